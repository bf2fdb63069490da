package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/botswana-harvard/edc-configuration/internal/model"
)

// toStruct converts a JSON-encodable value to a protobuf Struct using its
// JSON field names.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return structpb.NewStruct(m)
}

// attributesToProto wraps attrs as {"attributes": [...]}.
func attributesToProto(attrs []*Attribute) (*structpb.Struct, error) {
	return toStruct(map[string]any{"attributes": attrs})
}

// setRequestFromProto reads the fields of a SetAttribute request: attribute
// (required), value, category, convert and comment.
func setRequestFromProto(in *structpb.Struct) (string, *SetAttributeRequest, error) {
	fields := in.GetFields()

	str := func(key string) (string, error) {
		v, ok := fields[key]
		if !ok {
			return "", nil
		}
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return "", inputError(key + " must be a string")
		}
		return s.StringValue, nil
	}

	var req SetAttributeRequest
	name, err := str("attribute")
	if err != nil {
		return "", nil, err
	}
	if req.Value, err = str("value"); err != nil {
		return "", nil, err
	}
	if req.Category, err = str("category"); err != nil {
		return "", nil, err
	}
	if req.Comment, err = str("comment"); err != nil {
		return "", nil, err
	}
	if v, ok := fields["convert"]; ok {
		b, ok := v.GetKind().(*structpb.Value_BoolValue)
		if !ok {
			return "", nil, inputError("convert must be a boolean")
		}
		req.Convert = &b.BoolValue
	}
	return name, &req, nil
}

// storeError maps configuration errors to gRPC status codes.
func storeError(err error, name string) error {
	if err == nil {
		return nil
	}
	var ve *model.ValidationError
	var ie inputError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return status.Error(codes.NotFound, describe(err, name))
	case errors.As(err, &ve), errors.As(err, &ie):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Errorf(codes.Internal, "attribute %q: %v", name, err)
}
