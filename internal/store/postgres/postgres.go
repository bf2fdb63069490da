// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/botswana-harvard/edc-configuration/internal/model"
	"github.com/botswana-harvard/edc-configuration/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewWithDB wraps an already open database. Migrations are not run.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) GetAttribute(ctx context.Context, name string) (*model.Attribute, error) {
	return queryGetAttribute(ctx, s.db, name)
}

func (s *PostgresStore) ListAttributes(ctx context.Context, category string) ([]*model.Attribute, error) {
	return queryListAttributes(ctx, s.db, category)
}

func (s *PostgresStore) UpsertAttribute(ctx context.Context, attr *model.Attribute) (bool, error) {
	return queryUpsertAttribute(ctx, s.db, attr)
}

func (s *PostgresStore) DeleteAttribute(ctx context.Context, name string) error {
	return queryDeleteAttribute(ctx, s.db, name)
}

func (s *PostgresStore) GetAliquotType(ctx context.Context, alphaCode string) (*model.AliquotType, error) {
	return queryGetAliquotType(ctx, s.db, alphaCode)
}

func (s *PostgresStore) UpsertAliquotType(ctx context.Context, at *model.AliquotType) (bool, error) {
	return queryUpsertAliquotType(ctx, s.db, at)
}

func (s *PostgresStore) UpsertPanel(ctx context.Context, p *model.Panel) (bool, error) {
	return queryUpsertPanel(ctx, s.db, p)
}

func (s *PostgresStore) AddPanelAliquotType(ctx context.Context, panelName, alphaCode string) error {
	return queryAddPanelAliquotType(ctx, s.db, panelName, alphaCode)
}

func (s *PostgresStore) ClearPanelAliquotTypes(ctx context.Context, panelName string) error {
	return queryClearPanelAliquotTypes(ctx, s.db, panelName)
}

func (s *PostgresStore) UpsertRequisitionPanel(ctx context.Context, rp *model.RequisitionPanel) (bool, error) {
	return queryUpsertRequisitionPanel(ctx, s.db, rp)
}

func (s *PostgresStore) GetProfile(ctx context.Context, name string) (*model.Profile, error) {
	return queryGetProfile(ctx, s.db, name)
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, p *model.Profile) (bool, error) {
	return queryUpsertProfile(ctx, s.db, p)
}

func (s *PostgresStore) UpsertProfileItem(ctx context.Context, pi *model.ProfileItem) (bool, error) {
	return queryUpsertProfileItem(ctx, s.db, pi)
}

func (s *PostgresStore) UpsertDestination(ctx context.Context, d *model.Destination) (bool, error) {
	return queryUpsertDestination(ctx, s.db, d)
}

func (s *PostgresStore) GetLabelPrinter(ctx context.Context, printerName, serverHostname string) (*model.LabelPrinter, error) {
	return queryGetLabelPrinter(ctx, s.db, printerName, serverHostname)
}

func (s *PostgresStore) UpsertLabelPrinter(ctx context.Context, lp *model.LabelPrinter) (bool, error) {
	return queryUpsertLabelPrinter(ctx, s.db, lp)
}

func (s *PostgresStore) UpsertLabelClient(ctx context.Context, c *model.LabelClient) (bool, error) {
	return queryUpsertLabelClient(ctx, s.db, c)
}

func (s *PostgresStore) UpsertZplTemplate(ctx context.Context, zt *model.ZplTemplate) (bool, error) {
	return queryUpsertZplTemplate(ctx, s.db, zt)
}

func (s *PostgresStore) UpsertHoliday(ctx context.Context, h *model.Holiday) (bool, error) {
	return queryUpsertHoliday(ctx, s.db, h)
}

func (s *PostgresStore) ListHolidays(ctx context.Context) ([]*model.Holiday, error) {
	return queryListHolidays(ctx, s.db)
}

func (s *PostgresStore) UpsertConsentType(ctx context.Context, c *model.ConsentType) (bool, error) {
	return queryUpsertConsentType(ctx, s.db, c)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) GetAttribute(ctx context.Context, name string) (*model.Attribute, error) {
	return queryGetAttribute(ctx, s.tx, name)
}

func (s *txStore) ListAttributes(ctx context.Context, category string) ([]*model.Attribute, error) {
	return queryListAttributes(ctx, s.tx, category)
}

func (s *txStore) UpsertAttribute(ctx context.Context, attr *model.Attribute) (bool, error) {
	return queryUpsertAttribute(ctx, s.tx, attr)
}

func (s *txStore) DeleteAttribute(ctx context.Context, name string) error {
	return queryDeleteAttribute(ctx, s.tx, name)
}

func (s *txStore) GetAliquotType(ctx context.Context, alphaCode string) (*model.AliquotType, error) {
	return queryGetAliquotType(ctx, s.tx, alphaCode)
}

func (s *txStore) UpsertAliquotType(ctx context.Context, at *model.AliquotType) (bool, error) {
	return queryUpsertAliquotType(ctx, s.tx, at)
}

func (s *txStore) UpsertPanel(ctx context.Context, p *model.Panel) (bool, error) {
	return queryUpsertPanel(ctx, s.tx, p)
}

func (s *txStore) AddPanelAliquotType(ctx context.Context, panelName, alphaCode string) error {
	return queryAddPanelAliquotType(ctx, s.tx, panelName, alphaCode)
}

func (s *txStore) ClearPanelAliquotTypes(ctx context.Context, panelName string) error {
	return queryClearPanelAliquotTypes(ctx, s.tx, panelName)
}

func (s *txStore) UpsertRequisitionPanel(ctx context.Context, rp *model.RequisitionPanel) (bool, error) {
	return queryUpsertRequisitionPanel(ctx, s.tx, rp)
}

func (s *txStore) GetProfile(ctx context.Context, name string) (*model.Profile, error) {
	return queryGetProfile(ctx, s.tx, name)
}

func (s *txStore) UpsertProfile(ctx context.Context, p *model.Profile) (bool, error) {
	return queryUpsertProfile(ctx, s.tx, p)
}

func (s *txStore) UpsertProfileItem(ctx context.Context, pi *model.ProfileItem) (bool, error) {
	return queryUpsertProfileItem(ctx, s.tx, pi)
}

func (s *txStore) UpsertDestination(ctx context.Context, d *model.Destination) (bool, error) {
	return queryUpsertDestination(ctx, s.tx, d)
}

func (s *txStore) GetLabelPrinter(ctx context.Context, printerName, serverHostname string) (*model.LabelPrinter, error) {
	return queryGetLabelPrinter(ctx, s.tx, printerName, serverHostname)
}

func (s *txStore) UpsertLabelPrinter(ctx context.Context, lp *model.LabelPrinter) (bool, error) {
	return queryUpsertLabelPrinter(ctx, s.tx, lp)
}

func (s *txStore) UpsertLabelClient(ctx context.Context, c *model.LabelClient) (bool, error) {
	return queryUpsertLabelClient(ctx, s.tx, c)
}

func (s *txStore) UpsertZplTemplate(ctx context.Context, zt *model.ZplTemplate) (bool, error) {
	return queryUpsertZplTemplate(ctx, s.tx, zt)
}

func (s *txStore) UpsertHoliday(ctx context.Context, h *model.Holiday) (bool, error) {
	return queryUpsertHoliday(ctx, s.tx, h)
}

func (s *txStore) ListHolidays(ctx context.Context) ([]*model.Holiday, error) {
	return queryListHolidays(ctx, s.tx)
}

func (s *txStore) UpsertConsentType(ctx context.Context, c *model.ConsentType) (bool, error) {
	return queryUpsertConsentType(ctx, s.tx, c)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
