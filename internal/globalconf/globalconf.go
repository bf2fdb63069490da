// Package globalconf stores typed configuration values in the global
// configuration table. Values are encoded on the way in and decoded on the
// way out, so callers only ever see native Go values.
package globalconf

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/botswana-harvard/edc-configuration/internal/convert"
	"github.com/botswana-harvard/edc-configuration/internal/events"
	"github.com/botswana-harvard/edc-configuration/internal/model"
	"github.com/botswana-harvard/edc-configuration/internal/store"
)

// Manager reads and writes configuration attributes.
type Manager struct {
	store  store.Store
	codec  *convert.Codec
	logger *slog.Logger
}

// New returns a Manager over s. A nil codec means convert.Default and a nil
// logger means slog.Default().
func New(s store.Store, codec *convert.Codec, logger *slog.Logger) *Manager {
	if codec == nil {
		codec = convert.Default
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: s, codec: codec, logger: logger}
}

// WithStore returns a copy of m that uses s, typically a transaction.
func (m *Manager) WithStore(s store.Store) *Manager {
	c := *m
	c.store = s
	return &c
}

// Codec returns the codec used to encode and decode values.
func (m *Manager) Codec() *convert.Codec {
	return m.codec
}

// Change describes the result of a write.
type Change struct {
	Attribute *model.Attribute
	Created   bool
	Previous  string // stored value before an update
}

// Event returns the topic and payload announcing the change.
func (c *Change) Event() (string, any) {
	if c.Created {
		return events.TopicAttributeCreated, events.AttributeCreated{Attribute: c.Attribute}
	}
	return events.TopicAttributeUpdated, events.AttributeUpdated{Attribute: c.Attribute, Previous: c.Previous}
}

// Set encodes value and creates or updates the attribute. The comment is
// kept when comment is empty.
func (m *Manager) Set(ctx context.Context, category, name string, value any, conv bool, comment string) (*Change, error) {
	encoded, conv := m.codec.Encode(value, conv)
	attr := &model.Attribute{
		Category: category,
		Name:     name,
		Value:    encoded,
		Convert:  conv,
		Comment:  comment,
	}
	if err := model.ValidateAttribute(attr); err != nil {
		return nil, err
	}

	var previous string
	existing, err := m.store.GetAttribute(ctx, name)
	switch {
	case err == nil:
		previous = existing.Value
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("get attribute %q: %w", name, err)
	}

	created, err := m.store.UpsertAttribute(ctx, attr)
	if err != nil {
		return nil, fmt.Errorf("upsert attribute %q: %w", name, err)
	}
	m.logger.Debug("attribute stored", "attribute", name, "value", encoded, "convert", conv, "created", created)

	ch := &Change{Attribute: attr, Created: created}
	if !created {
		ch.Previous = previous
	}
	return ch, nil
}

// SetString normalizes a hand-entered value by decoding it and encoding the
// result, then stores it.
func (m *Manager) SetString(ctx context.Context, category, name, raw string, conv bool, comment string) (*Change, error) {
	return m.Set(ctx, category, name, m.codec.Decode(raw, conv), conv, comment)
}

// Delete removes the attribute. It returns sql.ErrNoRows if it does not exist.
func (m *Manager) Delete(ctx context.Context, name string) error {
	return m.store.DeleteAttribute(ctx, name)
}

// Get returns the stored attribute row.
func (m *Manager) Get(ctx context.Context, name string) (*model.Attribute, error) {
	return m.store.GetAttribute(ctx, name)
}

// Lookup returns the decoded value of the attribute and whether it exists.
func (m *Manager) Lookup(ctx context.Context, name string) (any, bool, error) {
	attr, err := m.store.GetAttribute(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get attribute %q: %w", name, err)
	}
	return m.Decode(attr), true, nil
}

// Value returns the decoded value of the attribute, or "" if it does not
// exist.
func (m *Manager) Value(ctx context.Context, name string) (any, error) {
	v, ok, err := m.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return "", nil
	}
	return v, nil
}

// Decode returns the native value stored in attr.
func (m *Manager) Decode(attr *model.Attribute) any {
	return m.codec.Decode(attr.Value, attr.Convert)
}

// List returns the attributes in category, or all attributes when category
// is empty, ordered by name.
func (m *Manager) List(ctx context.Context, category string) ([]*model.Attribute, error) {
	attrs, err := m.store.ListAttributes(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	return attrs, nil
}

// KindError reports that an attribute decoded to a different kind than the
// caller asked for.
type KindError struct {
	Name string
	Want convert.Kind
	Got  convert.Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("attribute %q is %s, not %s", e.Name, e.Got, e.Want)
}

// typed looks up name and asserts its decoded value to T.
func typed[T any](ctx context.Context, m *Manager, name string, want convert.Kind) (T, error) {
	var zero T
	v, ok, err := m.Lookup(ctx, name)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, fmt.Errorf("attribute %q: %w", name, sql.ErrNoRows)
	}
	t, ok := v.(T)
	if !ok {
		return zero, &KindError{Name: name, Want: want, Got: convert.KindOf(v)}
	}
	return t, nil
}

func (m *Manager) Bool(ctx context.Context, name string) (bool, error) {
	return typed[bool](ctx, m, name, convert.KindBoolean)
}

func (m *Manager) Int(ctx context.Context, name string) (int64, error) {
	return typed[int64](ctx, m, name, convert.KindInteger)
}

func (m *Manager) String(ctx context.Context, name string) (string, error) {
	return typed[string](ctx, m, name, convert.KindString)
}

func (m *Manager) Date(ctx context.Context, name string) (civil.Date, error) {
	return typed[civil.Date](ctx, m, name, convert.KindDate)
}

func (m *Manager) Datetime(ctx context.Context, name string) (time.Time, error) {
	return typed[time.Time](ctx, m, name, convert.KindDatetime)
}

func (m *Manager) Decimal(ctx context.Context, name string) (decimal.Decimal, error) {
	return typed[decimal.Decimal](ctx, m, name, convert.KindDecimal)
}
