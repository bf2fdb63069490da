package client

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Method names of the configuration service.
const (
	service               = "/edc.configuration.v1.ConfigurationService/"
	methodHealth          = service + "Health"
	methodGetAttribute    = service + "GetAttribute"
	methodListAttributes  = service + "ListAttributes"
	methodSetAttribute    = service + "SetAttribute"
	methodDeleteAttribute = service + "DeleteAttribute"
)

// GRPCClient implements ConfigurationClient using the gRPC transport.
type GRPCClient struct {
	conn  *grpc.ClientConn
	token string
}

// NewGRPCClient connects to the given gRPC address and returns a client.
func NewGRPCClient(addr, token string) (*GRPCClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return NewGRPCClientConn(conn, token), nil
}

// NewGRPCClientConn wraps an existing connection. Close closes conn.
func NewGRPCClientConn(conn *grpc.ClientConn, token string) *GRPCClient {
	return &GRPCClient{conn: conn, token: token}
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) invoke(ctx context.Context, method string, in, out any) error {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	return c.conn.Invoke(ctx, method, in, out)
}

func (c *GRPCClient) GetAttribute(ctx context.Context, name string) (*Attribute, error) {
	out := &structpb.Struct{}
	if err := c.invoke(ctx, methodGetAttribute, wrapperspb.String(name), out); err != nil {
		return nil, err
	}
	var attr Attribute
	if err := fromStruct(out, &attr); err != nil {
		return nil, err
	}
	return &attr, nil
}

func (c *GRPCClient) ListAttributes(ctx context.Context, category string) ([]*Attribute, error) {
	out := &structpb.Struct{}
	if err := c.invoke(ctx, methodListAttributes, wrapperspb.String(category), out); err != nil {
		return nil, err
	}
	var resp struct {
		Attributes []*Attribute `json:"attributes"`
	}
	if err := fromStruct(out, &resp); err != nil {
		return nil, err
	}
	return resp.Attributes, nil
}

func (c *GRPCClient) SetAttribute(ctx context.Context, name string, req *SetAttributeRequest) (*Attribute, error) {
	fields := map[string]any{
		"attribute": name,
		"value":     req.Value,
	}
	if req.Category != "" {
		fields["category"] = req.Category
	}
	if req.Comment != "" {
		fields["comment"] = req.Comment
	}
	if req.Convert != nil {
		fields["convert"] = *req.Convert
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	out := &structpb.Struct{}
	if err := c.invoke(ctx, methodSetAttribute, in, out); err != nil {
		return nil, err
	}
	var attr Attribute
	if err := fromStruct(out, &attr); err != nil {
		return nil, err
	}
	return &attr, nil
}

func (c *GRPCClient) DeleteAttribute(ctx context.Context, name string) error {
	return c.invoke(ctx, methodDeleteAttribute, wrapperspb.String(name), &emptypb.Empty{})
}

func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	out := &wrapperspb.StringValue{}
	if err := c.invoke(ctx, methodHealth, &emptypb.Empty{}, out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// fromStruct decodes a Struct response into v through its JSON form.
func fromStruct(s *structpb.Struct, v any) error {
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
