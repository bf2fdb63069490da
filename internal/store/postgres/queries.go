package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/botswana-harvard/edc-configuration/internal/idgen"
	"github.com/botswana-harvard/edc-configuration/internal/model"
)

// attributeColumns is the column list used for SELECT statements on the
// global_configurations table.
const attributeColumns = `id, category, attribute, value, convert, comment, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ensureID assigns a fresh ID with the given prefix when id is empty.
func ensureID(id *string, prefix string) error {
	if *id != "" {
		return nil
	}
	v, err := idgen.GenerateWithPrefix(prefix)
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// upsert runs an INSERT ... ON CONFLICT ... RETURNING id, (xmax = 0) statement.
// The returned id replaces *id, since an update keeps the existing row's ID.
// xmax is zero only for freshly inserted tuples.
func upsert(ctx context.Context, db executor, id *string, prefix, query string, args ...any) (bool, error) {
	if err := ensureID(id, prefix); err != nil {
		return false, err
	}
	var created bool
	args = append([]any{*id}, args...)
	if err := db.QueryRowContext(ctx, query, args...).Scan(id, &created); err != nil {
		return false, err
	}
	return created, nil
}

func queryGetAttribute(ctx context.Context, db executor, name string) (*model.Attribute, error) {
	row := db.QueryRowContext(ctx, `SELECT `+attributeColumns+` FROM global_configurations WHERE attribute = $1`, name)
	return scanAttribute(row)
}

func queryListAttributes(ctx context.Context, db executor, category string) ([]*model.Attribute, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if category == "" {
		rows, err = db.QueryContext(ctx, `SELECT `+attributeColumns+` FROM global_configurations ORDER BY attribute`)
	} else {
		rows, err = db.QueryContext(ctx, `SELECT `+attributeColumns+` FROM global_configurations WHERE category = $1 ORDER BY attribute`, category)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttributes(rows)
}

// queryUpsertAttribute creates the attribute or updates its category, value
// and convert flag in place. An empty comment leaves the stored one alone.
func queryUpsertAttribute(ctx context.Context, db executor, a *model.Attribute) (bool, error) {
	if err := ensureID(&a.ID, idgen.PrefixAttribute); err != nil {
		return false, err
	}
	var created bool
	err := db.QueryRowContext(ctx, `
		INSERT INTO global_configurations (id, category, attribute, value, convert, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (attribute) DO UPDATE SET
			category = EXCLUDED.category,
			value = EXCLUDED.value,
			convert = EXCLUDED.convert,
			comment = COALESCE(NULLIF(EXCLUDED.comment, ''), global_configurations.comment),
			updated_at = NOW()
		RETURNING id, comment, created_at, updated_at, (xmax = 0)`,
		a.ID, a.Category, a.Name, a.Value, a.Convert, a.Comment,
	).Scan(&a.ID, &a.Comment, &a.CreatedAt, &a.UpdatedAt, &created)
	if err != nil {
		return false, err
	}
	return created, nil
}

func queryDeleteAttribute(ctx context.Context, db executor, name string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM global_configurations WHERE attribute = $1`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryGetAliquotType(ctx context.Context, db executor, alphaCode string) (*model.AliquotType, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, alpha_code, numeric_code
		FROM aliquot_types WHERE alpha_code = $1`, alphaCode)
	return scanAliquotType(row)
}

func queryUpsertAliquotType(ctx context.Context, db executor, at *model.AliquotType) (bool, error) {
	return upsert(ctx, db, &at.ID, idgen.PrefixAliquotType, `
		INSERT INTO aliquot_types (id, name, alpha_code, numeric_code)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			alpha_code = EXCLUDED.alpha_code,
			numeric_code = EXCLUDED.numeric_code
		RETURNING id, (xmax = 0)`,
		at.Name, at.AlphaCode, at.NumericCode,
	)
}

func queryUpsertPanel(ctx context.Context, db executor, p *model.Panel) (bool, error) {
	return upsert(ctx, db, &p.ID, idgen.PrefixPanel, `
		INSERT INTO panels (id, name, panel_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET panel_type = EXCLUDED.panel_type
		RETURNING id, (xmax = 0)`,
		p.Name, p.PanelType,
	)
}

func queryAddPanelAliquotType(ctx context.Context, db executor, panelName, alphaCode string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO panel_aliquot_types (panel_name, alpha_code)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		panelName, alphaCode,
	)
	return err
}

func queryClearPanelAliquotTypes(ctx context.Context, db executor, panelName string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM panel_aliquot_types WHERE panel_name = $1`, panelName)
	return err
}

func queryUpsertRequisitionPanel(ctx context.Context, db executor, rp *model.RequisitionPanel) (bool, error) {
	return upsert(ctx, db, &rp.ID, idgen.PrefixRequisitionPanel, `
		INSERT INTO requisition_panels (id, name, aliquot_type_alpha_code)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET aliquot_type_alpha_code = EXCLUDED.aliquot_type_alpha_code
		RETURNING id, (xmax = 0)`,
		rp.Name, rp.AliquotTypeAlphaCode,
	)
}

func queryGetProfile(ctx context.Context, db executor, name string) (*model.Profile, error) {
	row := db.QueryRowContext(ctx, `SELECT id, name, alpha_code FROM profiles WHERE name = $1`, name)
	return scanProfile(row)
}

func queryUpsertProfile(ctx context.Context, db executor, p *model.Profile) (bool, error) {
	return upsert(ctx, db, &p.ID, idgen.PrefixProfile, `
		INSERT INTO profiles (id, name, alpha_code)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET alpha_code = EXCLUDED.alpha_code
		RETURNING id, (xmax = 0)`,
		p.Name, p.AlphaCode,
	)
}

func queryUpsertProfileItem(ctx context.Context, db executor, pi *model.ProfileItem) (bool, error) {
	return upsert(ctx, db, &pi.ID, idgen.PrefixProfileItem, `
		INSERT INTO profile_items (id, profile_name, alpha_code, volume, count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (profile_name, alpha_code) DO UPDATE SET
			volume = EXCLUDED.volume,
			count = EXCLUDED.count
		RETURNING id, (xmax = 0)`,
		pi.ProfileName, pi.AlphaCode, pi.Volume, pi.Count,
	)
}

func queryUpsertDestination(ctx context.Context, db executor, d *model.Destination) (bool, error) {
	return upsert(ctx, db, &d.ID, idgen.PrefixDestination, `
		INSERT INTO destinations (id, code, name, address, tel, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			tel = EXCLUDED.tel,
			email = EXCLUDED.email
		RETURNING id, (xmax = 0)`,
		d.Code, d.Name, d.Address, d.Tel, d.Email,
	)
}

func queryGetLabelPrinter(ctx context.Context, db executor, printerName, serverHostname string) (*model.LabelPrinter, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, cups_printer_name, cups_server_hostname, cups_server_ip, is_default
		FROM label_printers WHERE cups_printer_name = $1 AND cups_server_hostname = $2`,
		printerName, serverHostname)
	return scanLabelPrinter(row)
}

func queryUpsertLabelPrinter(ctx context.Context, db executor, lp *model.LabelPrinter) (bool, error) {
	return upsert(ctx, db, &lp.ID, idgen.PrefixLabelPrinter, `
		INSERT INTO label_printers (id, cups_printer_name, cups_server_hostname, cups_server_ip, is_default)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cups_printer_name, cups_server_hostname) DO UPDATE SET
			cups_server_ip = EXCLUDED.cups_server_ip,
			is_default = EXCLUDED.is_default
		RETURNING id, (xmax = 0)`,
		lp.CupsPrinterName, lp.CupsServerHostname, lp.CupsServerIP, lp.Default,
	)
}

func queryUpsertLabelClient(ctx context.Context, db executor, c *model.LabelClient) (bool, error) {
	return upsert(ctx, db, &c.ID, idgen.PrefixLabelClient, `
		INSERT INTO label_clients (id, hostname, printer_name, cups_hostname)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (hostname) DO UPDATE SET
			printer_name = EXCLUDED.printer_name,
			cups_hostname = EXCLUDED.cups_hostname
		RETURNING id, (xmax = 0)`,
		c.Hostname, c.PrinterName, c.CupsHostname,
	)
}

func queryUpsertZplTemplate(ctx context.Context, db executor, zt *model.ZplTemplate) (bool, error) {
	return upsert(ctx, db, &zt.ID, idgen.PrefixZplTemplate, `
		INSERT INTO zpl_templates (id, name, template, is_default)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			template = EXCLUDED.template,
			is_default = EXCLUDED.is_default
		RETURNING id, (xmax = 0)`,
		zt.Name, zt.Template, zt.Default,
	)
}

func queryUpsertHoliday(ctx context.Context, db executor, h *model.Holiday) (bool, error) {
	return upsert(ctx, db, &h.ID, idgen.PrefixHoliday, `
		INSERT INTO holidays (id, holiday_name, holiday_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (holiday_name) DO UPDATE SET holiday_date = EXCLUDED.holiday_date
		RETURNING id, (xmax = 0)`,
		h.Name, dateValue(h.Date),
	)
}

func queryListHolidays(ctx context.Context, db executor) ([]*model.Holiday, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, holiday_name, holiday_date
		FROM holidays ORDER BY holiday_date, holiday_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHolidays(rows)
}

func queryUpsertConsentType(ctx context.Context, db executor, c *model.ConsentType) (bool, error) {
	return upsert(ctx, db, &c.ID, idgen.PrefixConsentType, `
		INSERT INTO consent_types (id, app_label, model_name, version, start_datetime, end_datetime)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (version, app_label, model_name) DO UPDATE SET
			start_datetime = EXCLUDED.start_datetime,
			end_datetime = EXCLUDED.end_datetime
		RETURNING id, (xmax = 0)`,
		c.AppLabel, c.ModelName, c.Version, c.StartDatetime, nullTime(c.EndDatetime),
	)
}
