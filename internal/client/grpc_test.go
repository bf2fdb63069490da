package client

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/botswana-harvard/edc-configuration/internal/convert"
	"github.com/botswana-harvard/edc-configuration/internal/server"
)

func newBufconnClient(t *testing.T, token string) *GRPCClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := server.NewGRPCServer(newConfigurationServer(t), "secret")
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	c := NewGRPCClientConn(conn, token)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGRPCClient_RoundTrip(t *testing.T) {
	c := newBufconnClient(t, "secret")
	ctx := context.Background()

	if s, err := c.Health(ctx); err != nil || s != "ok" {
		t.Fatalf("Health = %q, %v", s, err)
	}

	no := false
	attr, err := c.SetAttribute(ctx, "allowed_iso_weekdays", &SetAttributeRequest{
		Category: "appointment",
		Value:    "12345",
		Convert:  &no,
		Comment:  "weekdays only",
	})
	if err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}
	if attr.Convert || attr.Kind != convert.KindString || string(attr.Decoded) != `"12345"` {
		t.Fatalf("unexpected attribute %+v decoded=%s", attr, attr.Decoded)
	}

	got, err := c.GetAttribute(ctx, "allowed_iso_weekdays")
	if err != nil {
		t.Fatalf("GetAttribute: %v", err)
	}
	if got.Category != "appointment" || got.Comment != "weekdays only" || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected attribute %+v", got)
	}

	attrs, err := c.ListAttributes(ctx, "")
	if err != nil {
		t.Fatalf("ListAttributes: %v", err)
	}
	if len(attrs) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(attrs))
	}

	if err := c.DeleteAttribute(ctx, "allowed_iso_weekdays"); err != nil {
		t.Fatalf("DeleteAttribute: %v", err)
	}
	if _, err := c.GetAttribute(ctx, "allowed_iso_weekdays"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGRPCClient_Unauthenticated(t *testing.T) {
	c := newBufconnClient(t, "wrong")
	_, err := c.ListAttributes(context.Background(), "")
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
	// Health is exempt.
	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
