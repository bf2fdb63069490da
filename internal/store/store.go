package store

import (
	"context"

	"github.com/botswana-harvard/edc-configuration/internal/model"
)

// Store defines the persistence interface for configuration data.
//
// Lookups return sql.ErrNoRows when nothing matches. Upsert methods create
// the row identified by its natural key or update it in place, fill in the
// row ID, and report whether the row was created.
type Store interface {
	// Global configuration
	GetAttribute(ctx context.Context, name string) (*model.Attribute, error)
	ListAttributes(ctx context.Context, category string) ([]*model.Attribute, error) // empty category lists all
	UpsertAttribute(ctx context.Context, attr *model.Attribute) (bool, error)
	DeleteAttribute(ctx context.Context, name string) error

	// Lab
	GetAliquotType(ctx context.Context, alphaCode string) (*model.AliquotType, error)
	UpsertAliquotType(ctx context.Context, at *model.AliquotType) (bool, error)
	UpsertPanel(ctx context.Context, p *model.Panel) (bool, error)
	AddPanelAliquotType(ctx context.Context, panelName, alphaCode string) error
	ClearPanelAliquotTypes(ctx context.Context, panelName string) error
	UpsertRequisitionPanel(ctx context.Context, rp *model.RequisitionPanel) (bool, error)
	GetProfile(ctx context.Context, name string) (*model.Profile, error)
	UpsertProfile(ctx context.Context, p *model.Profile) (bool, error)
	UpsertProfileItem(ctx context.Context, pi *model.ProfileItem) (bool, error)
	UpsertDestination(ctx context.Context, d *model.Destination) (bool, error)

	// Labeling
	GetLabelPrinter(ctx context.Context, printerName, serverHostname string) (*model.LabelPrinter, error)
	UpsertLabelPrinter(ctx context.Context, lp *model.LabelPrinter) (bool, error)
	UpsertLabelClient(ctx context.Context, c *model.LabelClient) (bool, error)
	UpsertZplTemplate(ctx context.Context, zt *model.ZplTemplate) (bool, error)

	// Scheduling and consent
	UpsertHoliday(ctx context.Context, h *model.Holiday) (bool, error)
	ListHolidays(ctx context.Context) ([]*model.Holiday, error)
	UpsertConsentType(ctx context.Context, c *model.ConsentType) (bool, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
