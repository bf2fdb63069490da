// Package sync exports the configuration tables as JSONL and ships the
// export to S3 or a git repository on a schedule.
package sync

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/botswana-harvard/edc-configuration/internal/convert"
	"github.com/botswana-harvard/edc-configuration/internal/model"
	"github.com/botswana-harvard/edc-configuration/internal/store"
)

// header is the first JSONL record of an export.
type header struct {
	Version        string    `json:"version"`
	Type           string    `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	Checksum       string    `json:"checksum"`
	AttributeCount int       `json:"attribute_count"`
	HolidayCount   int       `json:"holiday_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// attributeRecord is an attribute row plus the kind its value decodes to.
type attributeRecord struct {
	*model.Attribute
	Kind convert.Kind `json:"kind"`
}

// Snapshot is one rendered export. Checksum covers every line after the
// header, so two snapshots of unchanged tables share a checksum even though
// their timestamps differ.
type Snapshot struct {
	Data       []byte
	Checksum   string
	Attributes int
	Holidays   int
}

// TakeSnapshot renders every attribute and holiday in s. Attributes are
// sorted by name and holidays by date.
func TakeSnapshot(ctx context.Context, s store.Store) (*Snapshot, error) {
	attrs, err := s.ListAttributes(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].Name < attrs[j].Name
	})

	holidays, err := s.ListHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}

	var body bytes.Buffer
	enc := newEncoder(&body)
	for _, a := range attrs {
		rec := attributeRecord{Attribute: a, Kind: convert.KindOf(convert.Decode(a.Value, a.Convert))}
		if err := enc.Encode(record{Type: "attribute", Data: rec}); err != nil {
			return nil, fmt.Errorf("encode attribute %s: %w", a.Name, err)
		}
	}
	for _, h := range holidays {
		if err := enc.Encode(record{Type: "holiday", Data: h}); err != nil {
			return nil, fmt.Errorf("encode holiday %s: %w", h.Name, err)
		}
	}

	sum := sha256.Sum256(body.Bytes())
	snap := &Snapshot{
		Checksum:   hex.EncodeToString(sum[:]),
		Attributes: len(attrs),
		Holidays:   len(holidays),
	}

	var out bytes.Buffer
	if err := newEncoder(&out).Encode(header{
		Version:        "1",
		Type:           "header",
		Timestamp:      time.Now().UTC(),
		Checksum:       snap.Checksum,
		AttributeCount: snap.Attributes,
		HolidayCount:   snap.Holidays,
	}); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	out.Write(body.Bytes())
	snap.Data = out.Bytes()
	return snap, nil
}

// ExportJSONL writes a snapshot of s to w.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	snap, err := TakeSnapshot(ctx, s)
	if err != nil {
		return err
	}
	_, err = w.Write(snap.Data)
	return err
}

func newEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}
