package order_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	domain "game-topup-bot/internal/core/domain/order"
	"game-topup-bot/internal/infrastructure/config"
	"game-topup-bot/internal/infrastructure/persistence/postgres"
	"game-topup-bot/internal/infrastructure/persistence/postgres/models"
	orderrepo "game-topup-bot/internal/infrastructure/persistence/postgres/repository/order"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := postgres.Connect(ctx, config.DatabaseConfig{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		Name:              "testdb",
		SSLMode:           "disable",
		MaxOpenConns:      10,
		MaxIdleConns:      2,
		MaxConnLifetime:   time.Minute,
		MaxConnIdleTime:   time.Minute,
		EnableAutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newOrder(refID string, chatID int64) *models.Order {
	return &models.Order{
		RefID:           refID,
		ChatID:          chatID,
		TargetAccountID: "12345",
		AmountCode:      "60M",
		SkuCode:         "HD60M",
		Status:          models.OrderStatusPending,
		RawResponse:     models.RawJSON(`{"status":"pending","message":"queued"}`),
	}
}

func TestOrderRepositoryLifecycle(t *testing.T) {
	db := startPostgres(t)
	ledger := orderrepo.NewOrderRepository(db)
	ctx := context.Background()

	o := newOrder("ref-lifecycle", 111)
	require.NoError(t, ledger.Insert(ctx, o))
	assert.False(t, o.CreatedAt.IsZero())

	err := ledger.UpdateStatus(ctx, domain.StatusUpdate{
		RefID:  "ref-lifecycle",
		Status: models.OrderStatusSuccess,
		Raw:    models.RawJSON(`{"ref_id":"ref-lifecycle","status":"success"}`),
	})
	require.NoError(t, err)

	got, err := ledger.Get(ctx, "ref-lifecycle")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusSuccess, got.Status)
	assert.Equal(t, "12345", got.TargetAccountID)
	assert.Equal(t, "60M", got.AmountCode)
	assert.Equal(t, int64(111), got.ChatID)

	var raw map[string]string
	require.NoError(t, json.Unmarshal(got.RawResponse, &raw))
	assert.Equal(t, "success", raw["status"])
}

func TestOrderRepositoryStoresUnboundedText(t *testing.T) {
	db := startPostgres(t)
	ledger := orderrepo.NewOrderRepository(db)
	ctx := context.Background()

	longAccount := strings.Repeat("9", 200) + "(1234)"
	longStatus := models.OrderStatus("PROVIDER_" + strings.Repeat("X", 120))
	// пробелы и порядок ключей должны сохраниться как пришли
	raw := models.RawJSON(`{ "status" : "` + string(longStatus) + `",  "ref_id":"ref-long" }`)

	o := newOrder("ref-long", 5)
	o.TargetAccountID = longAccount
	require.NoError(t, ledger.Insert(ctx, o))

	require.NoError(t, ledger.UpdateStatus(ctx, domain.StatusUpdate{
		RefID:  "ref-long",
		Status: longStatus,
		Raw:    raw,
	}))

	got, err := ledger.Get(ctx, "ref-long")
	require.NoError(t, err)
	assert.Equal(t, longAccount, got.TargetAccountID)
	assert.Equal(t, longStatus, got.Status)
	assert.Equal(t, string(raw), string(got.RawResponse))
}

func TestOrderRepositoryStoresNonJSONResponse(t *testing.T) {
	db := startPostgres(t)
	ledger := orderrepo.NewOrderRepository(db)
	ctx := context.Background()

	o := newOrder("ref-html", 6)
	o.Status = models.OrderStatusUnknown
	o.RawResponse = models.RawJSON(`<html>502 Bad Gateway</html>`)
	require.NoError(t, ledger.Insert(ctx, o))

	got, err := ledger.Get(ctx, "ref-html")
	require.NoError(t, err)
	assert.Equal(t, `<html>502 Bad Gateway</html>`, string(got.RawResponse))
}

func TestOrderRepositoryDuplicateKeepsOriginal(t *testing.T) {
	db := startPostgres(t)
	ledger := orderrepo.NewOrderRepository(db)
	ctx := context.Background()

	require.NoError(t, ledger.Insert(ctx, newOrder("ref-dup", 1)))

	second := newOrder("ref-dup", 2)
	second.TargetAccountID = "other"
	err := ledger.Insert(ctx, second)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	got, err := ledger.Get(ctx, "ref-dup")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ChatID)
	assert.Equal(t, "12345", got.TargetAccountID)
}

func TestOrderRepositoryNotFound(t *testing.T) {
	db := startPostgres(t)
	ledger := orderrepo.NewOrderRepository(db)
	ctx := context.Background()

	err := ledger.UpdateStatus(ctx, domain.StatusUpdate{RefID: "missing", Status: "success"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = ledger.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM orders`))
	assert.Zero(t, count)
}

func TestOrderRepositoryListByChatAndConcurrentInserts(t *testing.T) {
	db := startPostgres(t)
	ledger := orderrepo.NewOrderRepository(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- ledger.Insert(ctx, newOrder(fmt.Sprintf("ref-%02d", i), int64(i%2)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	orders, err := ledger.ListByChat(ctx, 0, 100)
	require.NoError(t, err)
	assert.Len(t, orders, 10)

	orders, err = ledger.ListByChat(ctx, 1, 3)
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}
