package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/botswana-harvard/edc-configuration/internal/convert"
	"github.com/botswana-harvard/edc-configuration/internal/events"
	"github.com/botswana-harvard/edc-configuration/internal/globalconf"
	"github.com/botswana-harvard/edc-configuration/internal/model"
)

// LocalClient implements ConfigurationClient directly over a configuration
// manager, for commands run next to the database. Not-found errors wrap
// sql.ErrNoRows.
type LocalClient struct {
	conf      *globalconf.Manager
	publisher events.Publisher
	logger    *slog.Logger
	closer    func() error
}

// NewLocalClient returns a client over conf. Close calls closer when it is
// not nil. A nil publisher disables change events.
func NewLocalClient(conf *globalconf.Manager, p events.Publisher, logger *slog.Logger, closer func() error) *LocalClient {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalClient{conf: conf, publisher: p, logger: logger, closer: closer}
}

func (c *LocalClient) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

func (c *LocalClient) view(attr *model.Attribute) (*Attribute, error) {
	v := c.conf.Decode(attr)
	decoded, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", attr.Name, err)
	}
	return &Attribute{Attribute: *attr, Kind: convert.KindOf(v), Decoded: decoded}, nil
}

func (c *LocalClient) GetAttribute(ctx context.Context, name string) (*Attribute, error) {
	attr, err := c.conf.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", name, err)
	}
	return c.view(attr)
}

func (c *LocalClient) ListAttributes(ctx context.Context, category string) ([]*Attribute, error) {
	attrs, err := c.conf.List(ctx, category)
	if err != nil {
		return nil, err
	}
	out := make([]*Attribute, 0, len(attrs))
	for _, a := range attrs {
		v, err := c.view(a)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *LocalClient) SetAttribute(ctx context.Context, name string, req *SetAttributeRequest) (*Attribute, error) {
	category := req.Category
	if category == "" {
		existing, err := c.conf.Get(ctx, name)
		switch {
		case err == nil:
			category = existing.Category
		case !errors.Is(err, sql.ErrNoRows):
			return nil, err
		}
	}
	conv := req.Convert == nil || *req.Convert

	ch, err := c.conf.SetString(ctx, category, name, req.Value, conv, req.Comment)
	if err != nil {
		return nil, err
	}
	topic, payload := ch.Event()
	c.publish(ctx, topic, name, payload)

	// Re-read so kept comments and timestamps are reported.
	attr, err := c.conf.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.view(attr)
}

func (c *LocalClient) DeleteAttribute(ctx context.Context, name string) error {
	if err := c.conf.Delete(ctx, name); err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}
	c.publish(ctx, events.TopicAttributeDeleted, name, events.AttributeDeleted{Name: name})
	return nil
}

func (c *LocalClient) Health(context.Context) (string, error) {
	return "ok", nil
}

func (c *LocalClient) publish(ctx context.Context, topic, name string, event any) {
	if err := c.publisher.Publish(ctx, topic, event); err != nil {
		c.logger.Warn("failed to publish event", "topic", topic, "attribute", name, "error", err)
	}
}
