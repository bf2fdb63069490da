package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/botswana-harvard/edc-configuration/internal/client"
	"github.com/botswana-harvard/edc-configuration/internal/config"
	"github.com/botswana-harvard/edc-configuration/internal/convert"
	"github.com/botswana-harvard/edc-configuration/internal/events"
	"github.com/botswana-harvard/edc-configuration/internal/globalconf"
	"github.com/botswana-harvard/edc-configuration/internal/model"
	"github.com/botswana-harvard/edc-configuration/internal/reconcile"
	"github.com/botswana-harvard/edc-configuration/internal/store/memory"
	"github.com/botswana-harvard/edc-configuration/internal/ui"
)

func init() {
	ui.ForceNoColor()
}

func TestEncodeConversion(t *testing.T) {
	codec := convert.New(convert.WithTimeZone(time.UTC))
	tests := []struct {
		input    string
		conv     bool
		want     string
		wantKind convert.Kind
	}{
		{"2017-06-01", true, "2017-06-01", convert.KindDate},
		{"2017-06-01 10:30", true, "2017-06-01 10:30", convert.KindDatetime},
		{`"TRUE"`, true, "True", convert.KindBoolean},
		{"none", true, "None", convert.KindNull},
		{"42", true, "42", convert.KindInteger},
		{"11:00", true, "11:00", convert.KindString},
		{"2017-06-01", false, "2017-06-01", convert.KindString},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c := encodeConversion(codec, tt.input, tt.conv)
			if c.Value != tt.want {
				t.Errorf("Value = %q, want %q", c.Value, tt.want)
			}
			if c.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", c.Kind, tt.wantKind)
			}
			if c.Input != tt.input {
				t.Errorf("Input = %q, want %q", c.Input, tt.input)
			}
		})
	}
}

func TestDecodeConversion_KeepsStoredString(t *testing.T) {
	c := decodeConversion(convert.New(), "True", true)
	if c.Value != "True" || c.Kind != convert.KindBoolean || c.Decoded != true {
		t.Errorf("got %+v", c)
	}

	c = decodeConversion(convert.New(), "True", false)
	if c.Kind != convert.KindString || c.Decoded != "True" {
		t.Errorf("no-convert: got %+v", c)
	}
}

func TestPrintConversion(t *testing.T) {
	var buf bytes.Buffer
	printConversion(&buf, encodeConversion(convert.New(), "false", true))
	out := buf.String()
	for _, want := range []string{"Value:    False", "Kind:     boolean", "Convert:  true", "Decoded:  false"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintAttributeTable(t *testing.T) {
	attrs := []*client.Attribute{
		{Attribute: model.Attribute{Name: "use_same_weekday", Category: "appointment", Value: "True"}, Kind: convert.KindBoolean},
		{Attribute: model.Attribute{Name: "default_appt_type", Category: "appointment", Value: "default"}, Kind: convert.KindString},
	}
	var buf bytes.Buffer
	printAttributeTable(&buf, attrs)
	out := buf.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if !strings.HasPrefix(lines[0], "ATTRIBUTE") {
		t.Errorf("first line = %q, want header", lines[0])
	}
	if !strings.Contains(lines[1], "use_same_weekday") || !strings.HasSuffix(lines[1], "True") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.HasSuffix(out, "2 attributes\n") {
		t.Errorf("missing count footer:\n%s", out)
	}
}

func TestPrintAttribute_OmitsEmptyComment(t *testing.T) {
	var buf bytes.Buffer
	printAttribute(&buf, &client.Attribute{
		Attribute: model.Attribute{Name: "site_name", Category: "study", Value: "gaborone", Convert: true},
		Kind:      convert.KindString,
	})
	out := buf.String()
	if !strings.Contains(out, "Attribute:   site_name") || !strings.Contains(out, "Category:    study") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "Comment:") || strings.Contains(out, "Updated At:") {
		t.Errorf("empty fields should be omitted:\n%s", out)
	}
}

func TestPrintEvent(t *testing.T) {
	msg := events.Message{
		Topic: events.TopicAttributeDeleted,
		Data:  []byte("{\n  \"attribute\": \"site_name\"\n}"),
	}
	at := time.Date(2017, 6, 1, 10, 30, 5, 0, time.UTC)

	var buf bytes.Buffer
	if err := printEvent(&buf, msg, at); err != nil {
		t.Fatal(err)
	}
	want := "10:30:05 edc.configuration.attribute.deleted {\"attribute\":\"site_name\"}\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })
	buf.Reset()
	if err := printEvent(&buf, msg, at); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Topic string          `json:"topic"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json output does not parse: %v (%q)", err, buf.String())
	}
	if decoded.Topic != events.TopicAttributeDeleted {
		t.Errorf("topic = %q", decoded.Topic)
	}
}

func TestCompactJSON_NotJSON(t *testing.T) {
	if got := compactJSON([]byte("plain")); got != `"plain"` {
		t.Errorf("got %s", got)
	}
}

func newTestEnv(t *testing.T) (*localEnv, *memory.Store) {
	t.Helper()
	st := memory.New()
	cfg := &config.Config{
		DatabaseURL: config.MemoryDatabaseURL,
		Time:        config.TimeSettings{UseTZ: true, Location: time.UTC},
	}
	return &localEnv{
		cfg:       cfg,
		store:     st,
		publisher: &events.NoopPublisher{},
		conf:      globalconf.New(st, cfg.Time.Codec(), nil),
	}, st
}

func TestPrepare_Defaults(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()

	report, err := prepare(ctx, env, "")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	sec := report.Section(reconcile.SectionGlobal)
	if sec == nil || sec.Created == 0 {
		t.Fatalf("global section = %+v, want created attributes", sec)
	}

	v, err := env.conf.Value(ctx, "allowed_iso_weekdays")
	if err != nil {
		t.Fatal(err)
	}
	if v != "1234567" {
		t.Errorf("allowed_iso_weekdays = %#v, want the raw string", v)
	}

	again, err := prepare(ctx, env, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := again.Section(reconcile.SectionGlobal); got.Created != 0 || got.Updated != sec.Created {
		t.Errorf("second run = %+v, want %d updated", got, sec.Created)
	}
}

func TestPrepare_File(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()

	path := filepath.Join("..", "..", "internal", "appconfig", "testdata", "app.toml")
	report, err := prepare(ctx, env, path)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if report.Created() == 0 {
		t.Error("expected rows to be created")
	}
	if n, err := env.conf.Int(ctx, "appointments_per_day_max"); err != nil || n != 40 {
		t.Errorf("appointments_per_day_max = %d, %v; want 40", n, err)
	}

	var buf bytes.Buffer
	printReport(&buf, report)
	if !strings.Contains(buf.String(), reconcile.SectionGlobal) {
		t.Errorf("report missing global section:\n%s", buf.String())
	}
}

func TestPrepare_MissingFile(t *testing.T) {
	env, _ := newTestEnv(t)
	if _, err := prepare(context.Background(), env, filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestSyncDestinations(t *testing.T) {
	dests, err := syncDestinations(context.Background(), &config.Config{})
	if err != nil || len(dests) != 0 {
		t.Fatalf("no destinations configured: got %d, %v", len(dests), err)
	}

	dests, err = syncDestinations(context.Background(), &config.Config{
		SyncGitRepo:   t.TempDir(),
		SyncGitFile:   "configuration.jsonl",
		SyncGitBranch: "main",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(dests) != 1 || dests[0].Name() != "git:configuration.jsonl" {
		t.Errorf("got %d destinations", len(dests))
	}
}
