package events

import (
	"context"
	"time"

	"github.com/botswana-harvard/edc-configuration/internal/model"
)

// Event topic constants
const (
	TopicAttributeCreated = "edc.configuration.attribute.created"
	TopicAttributeUpdated = "edc.configuration.attribute.updated"
	TopicAttributeDeleted = "edc.configuration.attribute.deleted"
	TopicPrepared         = "edc.configuration.prepared"

	// TopicAll matches every configuration event.
	TopicAll = "edc.configuration.>"
)

// Event types

type AttributeCreated struct {
	Attribute *model.Attribute `json:"attribute"`
}

type AttributeUpdated struct {
	Attribute *model.Attribute `json:"attribute"`
	Previous  string           `json:"previous,omitempty"` // stored value before the update
}

type AttributeDeleted struct {
	Name string `json:"attribute"`
}

// SectionCounts reports how many rows one section of a run created and
// updated.
type SectionCounts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type Prepared struct {
	Sections   map[string]SectionCounts `json:"sections"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
