package bos

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"game-topup-bot/internal/infrastructure/config"
	"game-topup-bot/internal/infrastructure/persistence/postgres/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRefID string

func (f fixedRefID) NewRefID() string { return string(f) }

func newTestClient(url string, timeout time.Duration) *Client {
	return NewClient(config.ProviderConfig{
		APIURL:   url,
		Username: "reseller",
		APIKey:   "k3y",
		Timeout:  timeout,
	}, fixedRefID("ref-123"))
}

func TestSignIsMD5OfConcatenation(t *testing.T) {
	// md5("reseller" + "k3y" + "ref-123")
	assert.Equal(t, "56c84ba9d950613b5e5061b045235b4c", Sign("reseller", "k3y", "ref-123"))
	assert.NotEqual(t, Sign("reseller", "k3y", "ref-123"), Sign("reseller", "k3y", "ref-124"))
	assert.Len(t, Sign("", "", ""), 32)
}

func TestPlaceOrderSendsSignedPayload(t *testing.T) {
	var got orderPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"status":"pending","message":"order queued"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, time.Second).PlaceOrder(context.Background(), PlaceRequest{
		TargetAccountID: "12345",
		SkuCode:         "HD60M",
	})
	require.NoError(t, err)

	assert.Equal(t, orderPayload{
		Username: "reseller",
		RefID:    "ref-123",
		UserID:   "12345",
		SkuCode:  "HD60M",
		Sign:     Sign("reseller", "k3y", "ref-123"),
	}, got)
	assert.Equal(t, "ref-123", res.RefID)
	assert.Equal(t, models.OrderStatusPending, res.Status)
	assert.JSONEq(t, `{"status":"pending","message":"order queued"}`, string(res.RawResponse))
}

func TestPlaceOrderMissingStatusIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, time.Second).PlaceOrder(context.Background(), PlaceRequest{TargetAccountID: "1", SkuCode: "HD30M"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusUnknown, res.Status)
}

func TestPlaceOrderTransportFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte(`{"status":"error"}`))
			},
		},
		{
			name: "html body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>maintenance</html>`))
			},
		},
		{
			name: "json array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[]`))
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			res, err := newTestClient(srv.URL, time.Second).PlaceOrder(context.Background(), PlaceRequest{TargetAccountID: "1", SkuCode: "HD30M"})
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrTransport), "got %v", err)
		})
	}
}

func TestPlaceOrderTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestClient(srv.URL, 100*time.Millisecond).PlaceOrder(context.Background(), PlaceRequest{TargetAccountID: "1", SkuCode: "HD30M"})
	assert.ErrorIs(t, err, ErrTransport)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPlaceOrderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, time.Second).PlaceOrder(context.Background(), PlaceRequest{TargetAccountID: "1", SkuCode: "HD30M"})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestExtractStatus(t *testing.T) {
	tests := []struct {
		body string
		want models.OrderStatus
	}{
		{`{"status":"success"}`, "success"},
		{`{"status":"","data":{"status":"failed"}}`, "failed"},
		{`{"data":{"status":"processing"}}`, "processing"},
		{`{"status":null}`, models.OrderStatusUnknown},
		{`{"status":1}`, "1"},
		{`{}`, models.OrderStatusUnknown},
		{`{"status":"success","data":[]}`, "success"},
		{`{"status":"success","data":"queued"}`, "success"},
		{`{"data":[1]}`, models.OrderStatusUnknown},
		{`{"data":"queued"}`, models.OrderStatusUnknown},
		{`{"status":{"code":1}}`, models.OrderStatusUnknown},
		{`{"status":[1],"data":{"status":"failed"}}`, "failed"},
		{`{"status":true}`, models.OrderStatusUnknown},
	}
	for _, tt := range tests {
		got, err := ExtractStatus([]byte(tt.body))
		require.NoError(t, err, tt.body)
		assert.Equal(t, tt.want, got, tt.body)
	}

	_, err := ExtractStatus([]byte(`null`))
	assert.Error(t, err)
}
