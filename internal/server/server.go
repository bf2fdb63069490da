package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/botswana-harvard/edc-configuration/internal/convert"
	"github.com/botswana-harvard/edc-configuration/internal/events"
	"github.com/botswana-harvard/edc-configuration/internal/globalconf"
	"github.com/botswana-harvard/edc-configuration/internal/model"
)

// ConfigurationServer serves the global configuration over HTTP and gRPC.
// Both transports share the operations defined here.
type ConfigurationServer struct {
	conf      *globalconf.Manager
	publisher events.Publisher
	logger    *slog.Logger
}

// NewConfigurationServer returns a server backed by conf. A nil publisher
// disables change events.
func NewConfigurationServer(conf *globalconf.Manager, p events.Publisher, logger *slog.Logger) *ConfigurationServer {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigurationServer{conf: conf, publisher: p, logger: logger}
}

// Attribute is a stored attribute together with its decoded value.
type Attribute struct {
	*model.Attribute
	Kind    convert.Kind `json:"kind"`
	Decoded any          `json:"decoded"`
}

// SetAttributeRequest is the body of a write. Value is parsed the way a
// hand-entered value is. Convert defaults to true. An empty category keeps
// the category of an existing attribute.
type SetAttributeRequest struct {
	Category string `json:"category,omitempty"`
	Value    string `json:"value"`
	Convert  *bool  `json:"convert,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

func (s *ConfigurationServer) view(attr *model.Attribute) *Attribute {
	v := s.conf.Decode(attr)
	return &Attribute{Attribute: attr, Kind: convert.KindOf(v), Decoded: v}
}

func (s *ConfigurationServer) getAttribute(ctx context.Context, name string) (*Attribute, error) {
	if name == "" {
		return nil, inputError("attribute is required")
	}
	attr, err := s.conf.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.view(attr), nil
}

func (s *ConfigurationServer) listAttributes(ctx context.Context, category string) ([]*Attribute, error) {
	attrs, err := s.conf.List(ctx, category)
	if err != nil {
		return nil, err
	}
	views := make([]*Attribute, 0, len(attrs))
	for _, a := range attrs {
		views = append(views, s.view(a))
	}
	return views, nil
}

func (s *ConfigurationServer) setAttribute(ctx context.Context, name string, req *SetAttributeRequest) (*Attribute, error) {
	if name == "" {
		return nil, inputError("attribute is required")
	}
	category := req.Category
	if category == "" {
		existing, err := s.conf.Get(ctx, name)
		switch {
		case err == nil:
			category = existing.Category
		case !errors.Is(err, sql.ErrNoRows):
			return nil, err
		}
	}
	conv := true
	if req.Convert != nil {
		conv = *req.Convert
	}

	ch, err := s.conf.SetString(ctx, category, name, req.Value, conv, req.Comment)
	if err != nil {
		return nil, err
	}
	topic, payload := ch.Event()
	s.publish(ctx, topic, name, payload)
	return s.view(ch.Attribute), nil
}

func (s *ConfigurationServer) deleteAttribute(ctx context.Context, name string) error {
	if name == "" {
		return inputError("attribute is required")
	}
	if err := s.conf.Delete(ctx, name); err != nil {
		return err
	}
	s.publish(ctx, events.TopicAttributeDeleted, name, events.AttributeDeleted{Name: name})
	return nil
}

// encodeValue runs a hand-entered value through the codec without storing it.
func (s *ConfigurationServer) encodeValue(raw string, conv bool) *Attribute {
	codec := s.conf.Codec()
	encoded, conv := codec.Encode(codec.Decode(raw, conv), conv)
	return s.view(&model.Attribute{Value: encoded, Convert: conv})
}

// publish emits a change event. Failures are logged and do not fail the
// request.
func (s *ConfigurationServer) publish(ctx context.Context, topic, name string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "attribute", name, "error", err)
	}
}

// describe formats err for a response body.
func describe(err error, name string) string {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Sprintf("attribute %q not found", name)
	}
	return err.Error()
}
