package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/botswana-harvard/edc-configuration/internal/model"
	"github.com/botswana-harvard/edc-configuration/internal/store/memory"
)

// seededStore returns a memory store with two attributes and a holiday.
func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	for _, a := range []*model.Attribute{
		{Category: "appointment", Name: "use_same_weekday", Value: "True", Convert: true},
		{Category: "appointment", Name: "allowed_iso_weekdays", Value: "1234567", Convert: false},
	} {
		if _, err := s.UpsertAttribute(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.UpsertHoliday(ctx, &model.Holiday{Name: "Christmas Day", Date: civil.Date{Year: 2017, Month: time.December, Day: 25}}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExportJSONL_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), memory.New(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.AttributeCount != 0 || h.HolidayCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_AttributesAndHolidays(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), seededStore(t), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 attributes + 1 holiday
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.AttributeCount != 2 || h.HolidayCount != 1 {
		t.Fatalf("header counts: attribute=%d holiday=%d", h.AttributeCount, h.HolidayCount)
	}

	type attrLine struct {
		Type string `json:"type"`
		Data struct {
			Attribute string `json:"attribute"`
			Value     string `json:"value"`
			Convert   bool   `json:"convert"`
			Kind      string `json:"kind"`
		} `json:"data"`
	}
	var a1, a2 attrLine
	if err := json.Unmarshal([]byte(lines[1]), &a1); err != nil {
		t.Fatalf("unmarshal line 1: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[2]), &a2); err != nil {
		t.Fatalf("unmarshal line 2: %v", err)
	}
	if a1.Type != "attribute" || a2.Type != "attribute" {
		t.Fatalf("expected attribute records, got %q and %q", a1.Type, a2.Type)
	}
	if a1.Data.Attribute != "allowed_iso_weekdays" || a2.Data.Attribute != "use_same_weekday" {
		t.Fatalf("attributes not sorted: got %q, %q", a1.Data.Attribute, a2.Data.Attribute)
	}
	if a1.Data.Kind != "string" || a2.Data.Kind != "boolean" {
		t.Fatalf("unexpected kinds %q, %q", a1.Data.Kind, a2.Data.Kind)
	}

	var rec record
	if err := json.Unmarshal([]byte(lines[3]), &rec); err != nil {
		t.Fatalf("unmarshal line 3: %v", err)
	}
	if rec.Type != "holiday" {
		t.Fatalf("expected holiday record, got %q", rec.Type)
	}
	if !strings.Contains(lines[3], `"2017-12-25"`) {
		t.Fatalf("holiday date not exported as a date: %s", lines[3])
	}
}

func TestTakeSnapshot_Checksum(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	first, err := TakeSnapshot(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	second, err := TakeSnapshot(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if first.Checksum != second.Checksum {
		t.Fatalf("checksum changed without a table change: %s != %s", first.Checksum, second.Checksum)
	}
	if len(first.Checksum) != 64 {
		t.Fatalf("checksum %q is not a hex sha256", first.Checksum)
	}

	var h header
	if err := json.Unmarshal([]byte(nonEmptyLines(string(first.Data))[0]), &h); err != nil {
		t.Fatal(err)
	}
	if h.Checksum != first.Checksum {
		t.Fatalf("header checksum = %q, want %q", h.Checksum, first.Checksum)
	}

	if err := s.DeleteAttribute(ctx, "use_same_weekday"); err != nil {
		t.Fatal(err)
	}
	third, err := TakeSnapshot(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if third.Checksum == first.Checksum {
		t.Fatal("checksum did not change after a delete")
	}
	if third.Attributes != 1 || third.Holidays != 1 {
		t.Fatalf("counts = %d/%d", third.Attributes, third.Holidays)
	}
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
