// Package client reads and writes configuration attributes through a running
// server (HTTP/JSON or gRPC) or directly through a local store.
package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/botswana-harvard/edc-configuration/internal/convert"
	"github.com/botswana-harvard/edc-configuration/internal/model"
)

// ConfigurationClient is implemented by HTTPClient, GRPCClient and
// LocalClient.
type ConfigurationClient interface {
	GetAttribute(ctx context.Context, name string) (*Attribute, error)
	ListAttributes(ctx context.Context, category string) ([]*Attribute, error)
	SetAttribute(ctx context.Context, name string, req *SetAttributeRequest) (*Attribute, error)
	DeleteAttribute(ctx context.Context, name string) error

	Health(ctx context.Context) (string, error)
	Close() error
}

// Attribute is a stored attribute as returned by the server. Decoded holds
// the JSON form of the native value.
type Attribute struct {
	model.Attribute
	Kind    convert.Kind    `json:"kind"`
	Decoded json.RawMessage `json:"decoded"`
}

// SetAttributeRequest holds parameters for writing an attribute. Value is a
// hand-entered value; the server normalizes it. A nil Convert means true.
type SetAttributeRequest struct {
	Category string `json:"category,omitempty"`
	Value    string `json:"value"`
	Convert  *bool  `json:"convert,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// Conversion is the server's answer to a convert request.
type Conversion struct {
	Value   string          `json:"value"`
	Convert bool            `json:"convert"`
	Kind    convert.Kind    `json:"kind"`
	Decoded json.RawMessage `json:"decoded"`
}

// IsNotFound reports whether err means the attribute does not exist, for
// any client.
func IsNotFound(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return status.Code(err) == codes.NotFound
}
