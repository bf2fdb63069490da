package postgres

import (
	"database/sql"
	"time"

	"cloud.google.com/go/civil"

	"github.com/botswana-harvard/edc-configuration/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanAttribute scans a single row into a model.Attribute.
// The row must contain columns in the order defined by attributeColumns.
func scanAttribute(row scannable) (*model.Attribute, error) {
	var a model.Attribute
	err := row.Scan(
		&a.ID,
		&a.Category,
		&a.Name,
		&a.Value,
		&a.Convert,
		&a.Comment,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// scanAttributes scans multiple rows into a slice of model.Attribute pointers.
func scanAttributes(rows *sql.Rows) ([]*model.Attribute, error) {
	var attrs []*model.Attribute
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attrs, nil
}

func scanAliquotType(row scannable) (*model.AliquotType, error) {
	var at model.AliquotType
	if err := row.Scan(&at.ID, &at.Name, &at.AlphaCode, &at.NumericCode); err != nil {
		return nil, err
	}
	return &at, nil
}

func scanProfile(row scannable) (*model.Profile, error) {
	var p model.Profile
	if err := row.Scan(&p.ID, &p.Name, &p.AlphaCode); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanLabelPrinter(row scannable) (*model.LabelPrinter, error) {
	var lp model.LabelPrinter
	if err := row.Scan(&lp.ID, &lp.CupsPrinterName, &lp.CupsServerHostname, &lp.CupsServerIP, &lp.Default); err != nil {
		return nil, err
	}
	return &lp, nil
}

// scanHolidays scans holiday rows; the DATE column arrives as a time.Time.
func scanHolidays(rows *sql.Rows) ([]*model.Holiday, error) {
	var holidays []*model.Holiday
	for rows.Next() {
		var h model.Holiday
		var date time.Time
		if err := rows.Scan(&h.ID, &h.Name, &date); err != nil {
			return nil, err
		}
		h.Date = civil.DateOf(date)
		holidays = append(holidays, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return holidays, nil
}

// dateValue converts a civil.Date to a value the driver can bind to a DATE
// column.
func dateValue(d civil.Date) time.Time {
	return d.In(time.UTC)
}

// nullTime converts a zero time.Time to a SQL NULL.
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
