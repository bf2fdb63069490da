// Package reconcile brings the configuration tables in line with a declared
// AppConfiguration.
package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/botswana-harvard/edc-configuration/internal/appconfig"
	"github.com/botswana-harvard/edc-configuration/internal/events"
	"github.com/botswana-harvard/edc-configuration/internal/globalconf"
	"github.com/botswana-harvard/edc-configuration/internal/model"
	"github.com/botswana-harvard/edc-configuration/internal/store"
)

// Section names, in the order Prepare runs them.
const (
	SectionGlobal       = "global_configuration"
	SectionConsentTypes = "consent_types"
	SectionLabClinicAPI = "lab_clinic_api"
	SectionLab          = "lab"
	SectionLabeling     = "labeling"
	SectionHolidays     = "holidays"
)

// ErrUnknownReference is returned when a declared row refers to an aliquot
// type, profile or label printer that does not exist.
var ErrUnknownReference = errors.New("unknown reference")

// Reconciler applies an AppConfiguration to a store.
type Reconciler struct {
	store     store.Store
	conf      *globalconf.Manager
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// New returns a Reconciler. A nil publisher discards events.
func New(s store.Store, conf *globalconf.Manager, pub events.Publisher, logger *slog.Logger) *Reconciler {
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:     s,
		conf:      conf,
		publisher: pub,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// run holds the state of one Prepare call.
type run struct {
	tx      store.Store
	conf    *globalconf.Manager
	changes []*globalconf.Change
}

// Prepare creates or updates every row app declares. All writes happen in
// one transaction; on error nothing is kept and no events are published.
func (r *Reconciler) Prepare(ctx context.Context, app *appconfig.AppConfiguration) (*Report, error) {
	report := &Report{StartedAt: r.now()}
	var changes []*globalconf.Change

	err := r.store.RunInTransaction(ctx, func(tx store.Store) error {
		ru := &run{tx: tx, conf: r.conf.WithStore(tx)}
		steps := []struct {
			name string
			fn   func(context.Context, *run, *appconfig.AppConfiguration, *Section) error
		}{
			{SectionGlobal, prepareGlobal},
			{SectionConsentTypes, prepareConsentTypes},
			{SectionLabClinicAPI, prepareLabClinicAPI},
			{SectionLab, prepareLab},
			{SectionLabeling, prepareLabeling},
			{SectionHolidays, prepareHolidays},
		}
		for _, step := range steps {
			sec := report.section(step.name)
			if err := step.fn(ctx, ru, app, sec); err != nil {
				return fmt.Errorf("%s: %w", step.name, err)
			}
			r.logger.Debug("section prepared", "section", step.name, "created", sec.Created, "updated", sec.Updated)
		}
		changes = ru.changes
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.FinishedAt = r.now()

	r.logger.Info("configuration prepared", "created", report.Created(), "updated", report.Updated(),
		"duration", report.FinishedAt.Sub(report.StartedAt))

	for _, ch := range changes {
		topic, ev := ch.Event()
		r.publish(ctx, topic, ev)
	}
	r.publish(ctx, events.TopicPrepared, report.Event())
	return report, nil
}

func (r *Reconciler) publish(ctx context.Context, topic string, ev any) {
	if err := r.publisher.Publish(ctx, topic, ev); err != nil {
		r.logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
}

// reference wraps a failed lookup of a referenced row.
func reference(kind, key string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %q", ErrUnknownReference, kind, key)
	}
	return fmt.Errorf("get %s %q: %w", kind, key, err)
}

// prepareGlobal writes the defaults merged with the deployment overrides.
func prepareGlobal(ctx context.Context, ru *run, app *appconfig.AppConfiguration, sec *Section) error {
	for _, e := range app.Resolved().Entries() {
		ch, err := ru.conf.Set(ctx, e.Category, e.Attribute, e.Value, e.Convert, "")
		if err != nil {
			return fmt.Errorf("%s.%s: %w", e.Category, e.Attribute, err)
		}
		sec.record(ch.Created)
		ru.changes = append(ru.changes, ch)
	}
	return nil
}

func prepareConsentTypes(ctx context.Context, ru *run, app *appconfig.AppConfiguration, sec *Section) error {
	for _, item := range app.ConsentTypes {
		ct := &model.ConsentType{
			AppLabel:      item.AppLabel,
			ModelName:     item.ModelName,
			Version:       item.Version,
			StartDatetime: item.StartDatetime,
			EndDatetime:   item.EndDatetime,
		}
		if err := model.ValidateConsentType(ct); err != nil {
			return fmt.Errorf("%s.%s version %s: %w", item.AppLabel, item.ModelName, item.Version, err)
		}
		created, err := ru.tx.UpsertConsentType(ctx, ct)
		if err != nil {
			return fmt.Errorf("upsert consent type %s.%s version %s: %w", item.AppLabel, item.ModelName, item.Version, err)
		}
		sec.record(created)
	}
	return nil
}

func upsertAliquotTypes(ctx context.Context, tx store.Store, items []appconfig.AliquotTypeSetup, sec *Section) error {
	for _, item := range items {
		created, err := tx.UpsertAliquotType(ctx, &model.AliquotType{
			Name:        item.Name,
			AlphaCode:   item.AlphaCode,
			NumericCode: item.NumericCode,
		})
		if err != nil {
			return fmt.Errorf("upsert aliquot type %q: %w", item.Name, err)
		}
		sec.record(created)
	}
	return nil
}

// upsertPanel writes the panel and links its aliquot type. With reset the
// panel's previous links are removed first.
func upsertPanel(ctx context.Context, tx store.Store, item appconfig.PanelSetup, reset bool, sec *Section) error {
	created, err := tx.UpsertPanel(ctx, &model.Panel{Name: item.Name, PanelType: item.PanelType})
	if err != nil {
		return fmt.Errorf("upsert panel %q: %w", item.Name, err)
	}
	sec.record(created)

	if reset {
		if err := tx.ClearPanelAliquotTypes(ctx, item.Name); err != nil {
			return fmt.Errorf("clear aliquot types of panel %q: %w", item.Name, err)
		}
	}
	if _, err := tx.GetAliquotType(ctx, item.AliquotTypeAlphaCode); err != nil {
		return fmt.Errorf("panel %q: %w", item.Name, reference("aliquot type", item.AliquotTypeAlphaCode, err))
	}
	if err := tx.AddPanelAliquotType(ctx, item.Name, item.AliquotTypeAlphaCode); err != nil {
		return fmt.Errorf("link panel %q to aliquot type %q: %w", item.Name, item.AliquotTypeAlphaCode, err)
	}
	return nil
}

func prepareLabClinicAPI(ctx context.Context, ru *run, app *appconfig.AppConfiguration, sec *Section) error {
	if err := upsertAliquotTypes(ctx, ru.tx, app.LabClinicAPI.AliquotTypes, sec); err != nil {
		return err
	}
	for _, item := range app.LabClinicAPI.Panels {
		if err := upsertPanel(ctx, ru.tx, item, false, sec); err != nil {
			return err
		}
	}
	return nil
}

func prepareLab(ctx context.Context, ru *run, app *appconfig.AppConfiguration, sec *Section) error {
	for _, group := range app.LabGroups() {
		if err := prepareLabGroup(ctx, ru.tx, app.Lab[group], sec); err != nil {
			return fmt.Errorf("group %s: %w", group, err)
		}
	}
	return nil
}

func prepareLabGroup(ctx context.Context, tx store.Store, lab appconfig.LabSetup, sec *Section) error {
	for _, item := range lab.Destinations {
		created, err := tx.UpsertDestination(ctx, &model.Destination{
			Code:    item.Code,
			Name:    item.Name,
			Address: item.Address,
			Tel:     item.Tel,
			Email:   item.Email,
		})
		if err != nil {
			return fmt.Errorf("upsert destination %q: %w", item.Code, err)
		}
		sec.record(created)
	}

	if err := upsertAliquotTypes(ctx, tx, lab.AliquotTypes, sec); err != nil {
		return err
	}

	for _, item := range lab.Panels {
		if err := upsertPanel(ctx, tx, item, true, sec); err != nil {
			return err
		}
		created, err := tx.UpsertRequisitionPanel(ctx, &model.RequisitionPanel{
			Name:                 item.Name,
			AliquotTypeAlphaCode: item.AliquotTypeAlphaCode,
		})
		if err != nil {
			return fmt.Errorf("upsert requisition panel %q: %w", item.Name, err)
		}
		sec.record(created)
	}

	for _, item := range lab.Profiles {
		if _, err := tx.GetAliquotType(ctx, item.AlphaCode); err != nil {
			return fmt.Errorf("profile %q: %w", item.ProfileName, reference("aliquot type", item.AlphaCode, err))
		}
		created, err := tx.UpsertProfile(ctx, &model.Profile{Name: item.ProfileName, AlphaCode: item.AlphaCode})
		if err != nil {
			return fmt.Errorf("upsert profile %q: %w", item.ProfileName, err)
		}
		sec.record(created)
	}

	for _, item := range lab.ProfileItems {
		if _, err := tx.GetProfile(ctx, item.ProfileName); err != nil {
			return fmt.Errorf("profile item %s/%s: %w", item.ProfileName, item.AlphaCode, reference("profile", item.ProfileName, err))
		}
		if _, err := tx.GetAliquotType(ctx, item.AlphaCode); err != nil {
			return fmt.Errorf("profile item %s/%s: %w", item.ProfileName, item.AlphaCode, reference("aliquot type", item.AlphaCode, err))
		}
		created, err := tx.UpsertProfileItem(ctx, &model.ProfileItem{
			ProfileName: item.ProfileName,
			AlphaCode:   item.AlphaCode,
			Volume:      item.Volume,
			Count:       item.Count,
		})
		if err != nil {
			return fmt.Errorf("upsert profile item %s/%s: %w", item.ProfileName, item.AlphaCode, err)
		}
		sec.record(created)
	}
	return nil
}

func prepareLabeling(ctx context.Context, ru *run, app *appconfig.AppConfiguration, sec *Section) error {
	tx := ru.tx
	for _, item := range app.Labeling.LabelPrinters {
		created, err := tx.UpsertLabelPrinter(ctx, &model.LabelPrinter{
			CupsPrinterName:    item.CupsPrinterName,
			CupsServerHostname: item.CupsServerHostname,
			CupsServerIP:       item.CupsServerIP,
			Default:            item.Default,
		})
		if err != nil {
			return fmt.Errorf("upsert label printer %q: %w", item.CupsPrinterName, err)
		}
		sec.record(created)
	}

	for _, item := range app.Labeling.Clients {
		if _, err := tx.GetLabelPrinter(ctx, item.PrinterName, item.CupsHostname); err != nil {
			return fmt.Errorf("client %q: %w", item.Hostname, reference("label printer", item.PrinterName+"@"+item.CupsHostname, err))
		}
		created, err := tx.UpsertLabelClient(ctx, &model.LabelClient{
			Hostname:     item.Hostname,
			PrinterName:  item.PrinterName,
			CupsHostname: item.CupsHostname,
		})
		if err != nil {
			return fmt.Errorf("upsert client %q: %w", item.Hostname, err)
		}
		sec.record(created)
	}

	for _, item := range app.Labeling.ZplTemplates {
		created, err := tx.UpsertZplTemplate(ctx, &model.ZplTemplate{
			Name:     item.Name,
			Template: item.Template,
			Default:  item.Default,
		})
		if err != nil {
			return fmt.Errorf("upsert zpl template %q: %w", item.Name, err)
		}
		sec.record(created)
	}
	return nil
}

func prepareHolidays(ctx context.Context, ru *run, app *appconfig.AppConfiguration, sec *Section) error {
	for _, item := range app.Holidays {
		created, err := ru.tx.UpsertHoliday(ctx, &model.Holiday{Name: item.Name, Date: item.Date})
		if err != nil {
			return fmt.Errorf("upsert holiday %q: %w", item.Name, err)
		}
		sec.record(created)
	}
	return nil
}
