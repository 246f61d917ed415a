// internal/infrastructure/persistence/postgres/migrator.go
package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"game-topup-bot/internal/infrastructure/persistence/postgres/migrations"
	"game-topup-bot/pkg/logger"

	"github.com/jmoiron/sqlx"
)

const downMarker = "-- DOWN Migration"

// Migrator управляет миграциями базы данных
type Migrator struct {
	db         *sqlx.DB
	migrations map[int]*Migration
	logger     *logger.Logger
}

// Migration представляет одну миграцию
type Migration struct {
	ID          int
	Name        string
	Description string
	UpSQL       string
	DownSQL     string
	Checksum    string
}

// MigrationStatus - состояние миграции для CLI
type MigrationStatus struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Applied   bool      `json:"applied"`
	AppliedAt time.Time `json:"applied_at,omitempty"`
	Status    string    `json:"status"`
}

type migrationRecord struct {
	ID        int          `db:"id"`
	Name      string       `db:"name"`
	AppliedAt sql.NullTime `db:"applied_at"`
	Checksum  string       `db:"checksum"`
}

// NewMigrator создает новый мигратор
func NewMigrator(db *sqlx.DB) *Migrator {
	return &Migrator{
		db:         db,
		migrations: make(map[int]*Migration),
		logger:     logger.Named("migrator"),
	}
}

// Init инициализирует таблицу миграций
func (m *Migrator) Init(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		checksum VARCHAR(64) NOT NULL,
		applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// LoadMigrations загружает миграции из каталога на диске
func (m *Migrator) LoadMigrations(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("migrations directory does not exist: %s", dir)
	}
	m.logger.Info("📂 Loading migrations from: %s", dir)
	return m.LoadFS(os.DirFS(dir))
}

// LoadEmbedded загружает миграции, встроенные в бинарник
func (m *Migrator) LoadEmbedded() error {
	return m.LoadFS(migrations.FS)
}

// LoadFS загружает NNN_name.sql файлы из файловой системы
func (m *Migrator) LoadFS(fsys fs.FS) error {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(files)

	for _, filename := range files {
		content, err := fs.ReadFile(fsys, filename)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}
		migration, err := parseMigration(filename, string(content))
		if err != nil {
			return err
		}
		if _, dup := m.migrations[migration.ID]; dup {
			return fmt.Errorf("duplicate migration ID %d (%s)", migration.ID, filename)
		}
		m.migrations[migration.ID] = migration
		m.logger.Debug("📄 Loaded migration: %s (%s)", filename, migration.Description)
	}

	if len(m.migrations) == 0 {
		return errors.New("no migrations loaded")
	}

	m.logger.Info("✅ Loaded %d migrations", len(m.migrations))
	return nil
}

// Migrate применяет все непройденные миграции по возрастанию ID
func (m *Migrator) Migrate(ctx context.Context) error {
	m.logger.Info("🚀 Starting database migrations...")

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	var appliedCount int
	for _, id := range m.sortedIDs() {
		migration := m.migrations[id]

		if record, ok := applied[id]; ok {
			if record.Checksum != migration.Checksum {
				return fmt.Errorf("checksum mismatch for migration %d: %s", id, migration.Name)
			}
			continue
		}

		if err := m.applyMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to apply migration %d: %s: %w", id, migration.Name, err)
		}
		appliedCount++
	}

	if appliedCount > 0 {
		m.logger.Info("✅ Applied %d new migrations", appliedCount)
	} else {
		m.logger.Info("✅ Database is up to date")
	}
	return nil
}

// Rollback откатывает последнюю примененную миграцию
func (m *Migrator) Rollback(ctx context.Context) error {
	var last migrationRecord
	err := m.db.GetContext(ctx, &last, `SELECT id, name, applied_at, checksum FROM migrations ORDER BY id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		m.logger.Info("ℹ️ No migrations to rollback")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get last migration: %w", err)
	}

	migration, ok := m.migrations[last.ID]
	if !ok || migration.DownSQL == "" {
		return fmt.Errorf("no rollback SQL found for migration %d: %s", last.ID, last.Name)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.DownSQL); err != nil {
		return fmt.Errorf("failed to execute rollback SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM migrations WHERE id = $1`, last.ID); err != nil {
		return fmt.Errorf("failed to delete migration record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rollback: %w", err)
	}

	m.logger.Info("↩️ Rolled back migration: %s", migration.Name)
	return nil
}

// Status возвращает состояние всех загруженных миграций
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(m.migrations))
	for _, id := range m.sortedIDs() {
		migration := m.migrations[id]
		status := MigrationStatus{ID: id, Name: migration.Name, Status: "pending"}
		if record, ok := applied[id]; ok {
			status.Applied = true
			status.AppliedAt = record.AppliedAt.Time
			status.Status = "applied"
			if record.Checksum != migration.Checksum {
				status.Status = "checksum_mismatch"
			}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Validate проверяет, что ID идут без пропусков и контрольные суммы совпадают
func (m *Migrator) Validate(ctx context.Context) error {
	ids := m.sortedIDs()
	for i, id := range ids {
		if id != i+1 {
			return fmt.Errorf("missing migration with ID %d", i+1)
		}
	}

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	var problems []string
	for id, record := range applied {
		migration, ok := m.migrations[id]
		if !ok {
			problems = append(problems, fmt.Sprintf("migration %d applied but not found in files", id))
			continue
		}
		if record.Checksum != migration.Checksum {
			problems = append(problems, fmt.Sprintf("migration %d (%s): checksum mismatch", id, migration.Name))
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// Вспомогательные методы

func (m *Migrator) sortedIDs() []int {
	ids := make([]int, 0, len(m.migrations))
	for id := range m.migrations {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[int]migrationRecord, error) {
	var records []migrationRecord
	if err := m.db.SelectContext(ctx, &records, `SELECT id, name, applied_at, checksum FROM migrations ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}

	applied := make(map[int]migrationRecord, len(records))
	for _, r := range records {
		applied[r.ID] = r
	}
	return applied, nil
}

func (m *Migrator) applyMigration(ctx context.Context, migration *Migration) error {
	m.logger.Info("📤 Applying migration: %s", migration.Name)

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.UpSQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO migrations (id, name, description, checksum) VALUES ($1, $2, $3, $4)`,
		migration.ID, migration.Name, migration.Description, migration.Checksum,
	)
	if err != nil {
		return fmt.Errorf("failed to save migration record: %w", err)
	}

	return tx.Commit()
}

// Вспомогательные функции

func parseMigration(filename, content string) (*Migration, error) {
	id, name, err := parseMigrationFilename(filename)
	if err != nil {
		return nil, err
	}

	up, down := splitMigration(content)
	if strings.TrimSpace(up) == "" {
		return nil, fmt.Errorf("migration %s has no UP section", filename)
	}

	return &Migration{
		ID:          id,
		Name:        name,
		Description: extractDescription(content),
		UpSQL:       up,
		DownSQL:     down,
		Checksum:    calculateChecksum(content),
	}, nil
}

func parseMigrationFilename(filename string) (int, string, error) {
	base := strings.TrimSuffix(filename, ".sql")

	// Формат: 001_create_orders.sql
	parts := strings.SplitN(base, "_", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("invalid migration filename format: %s (expected: 001_name.sql)", filename)
	}

	var id int
	if _, err := fmt.Sscanf(parts[0], "%d", &id); err != nil || id <= 0 {
		return 0, "", fmt.Errorf("invalid migration ID in filename: %s", filename)
	}

	return id, strings.ReplaceAll(parts[1], "_", " "), nil
}

func extractDescription(sql string) string {
	for _, line := range strings.Split(sql, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-- Description:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "-- Description:"))
		}
	}
	return "No description"
}

// splitMigration делит файл на UP и DOWN части по маркеру "-- DOWN Migration"
func splitMigration(content string) (up, down string) {
	idx := strings.Index(content, downMarker)
	if idx < 0 {
		return content, ""
	}
	return content[:idx], strings.TrimSpace(content[idx+len(downMarker):])
}

func calculateChecksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
