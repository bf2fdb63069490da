package memory

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/botswana-harvard/edc-configuration/internal/idgen"
	"github.com/botswana-harvard/edc-configuration/internal/model"
	"github.com/botswana-harvard/edc-configuration/internal/store"
)

func TestUpsertAttribute_CreateThenUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := &model.Attribute{Category: "appointment", Name: "appointments_per_day_max", Value: "30", Convert: true, Comment: "seeded"}
	created, err := s.UpsertAttribute(ctx, a)
	if err != nil || !created {
		t.Fatalf("first upsert: created=%v err=%v", created, err)
	}
	if !idgen.HasPrefix(a.ID, idgen.PrefixAttribute) {
		t.Fatalf("unexpected id %q", a.ID)
	}

	b := &model.Attribute{Category: "appointment", Name: "appointments_per_day_max", Value: "40", Convert: true}
	created, err = s.UpsertAttribute(ctx, b)
	if err != nil || created {
		t.Fatalf("second upsert: created=%v err=%v", created, err)
	}
	if b.ID != a.ID {
		t.Errorf("update changed id: %q -> %q", a.ID, b.ID)
	}

	got, err := s.GetAttribute(ctx, "appointments_per_day_max")
	if err != nil {
		t.Fatal(err)
	}
	if got.Value != "40" || got.Comment != "seeded" {
		t.Errorf("got value=%q comment=%q", got.Value, got.Comment)
	}
}

func TestGetAttribute_NotFound(t *testing.T) {
	if _, err := New().GetAttribute(context.Background(), "missing"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestDeleteAttribute(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.DeleteAttribute(ctx, "missing"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
	_, _ = s.UpsertAttribute(ctx, &model.Attribute{Category: "c", Name: "a", Value: "1"})
	if err := s.DeleteAttribute(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if s.Counts()["global_configurations"] != 0 {
		t.Fatal("attribute not deleted")
	}
}

func TestListAttributes_FilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, a := range []model.Attribute{
		{Category: "dashboard", Name: "show_not_required_requisitions"},
		{Category: "appointment", Name: "use_same_weekday"},
		{Category: "appointment", Name: "allowed_iso_weekdays"},
	} {
		if _, err := s.UpsertAttribute(ctx, &a); err != nil {
			t.Fatal(err)
		}
	}

	all, _ := s.ListAttributes(ctx, "")
	if len(all) != 3 || all[0].Name != "allowed_iso_weekdays" || all[2].Name != "use_same_weekday" {
		t.Fatalf("unexpected order: %v", names(all))
	}
	appt, _ := s.ListAttributes(ctx, "appointment")
	if len(appt) != 2 {
		t.Fatalf("expected 2 appointment attributes, got %v", names(appt))
	}
}

func names(attrs []*model.Attribute) []string {
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.Name
	}
	return out
}

func TestPanelAliquotTypes(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.AddPanelAliquotType(ctx, "cd4", "WB")
	_ = s.AddPanelAliquotType(ctx, "cd4", "WB")
	_ = s.AddPanelAliquotType(ctx, "cd4", "PL")
	if got := s.PanelAliquotTypes("cd4"); len(got) != 2 {
		t.Fatalf("expected 2 links, got %v", got)
	}
	_ = s.ClearPanelAliquotTypes(ctx, "cd4")
	if got := s.PanelAliquotTypes("cd4"); len(got) != 0 {
		t.Fatalf("expected no links, got %v", got)
	}
}

func TestListHolidays_Ordered(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, _ = s.UpsertHoliday(ctx, &model.Holiday{Name: "Christmas", Date: civil.Date{Year: 2017, Month: time.December, Day: 25}})
	_, _ = s.UpsertHoliday(ctx, &model.Holiday{Name: "New Year", Date: civil.Date{Year: 2017, Month: time.January, Day: 1}})
	hs, _ := s.ListHolidays(ctx)
	if len(hs) != 2 || hs[0].Name != "New Year" {
		t.Fatalf("unexpected holidays %+v", hs)
	}
}

func TestRunInTransaction_RollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, _ = s.UpsertAttribute(ctx, &model.Attribute{Category: "c", Name: "kept", Value: "1"})

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		if _, err := tx.UpsertAttribute(ctx, &model.Attribute{Category: "c", Name: "discarded", Value: "2"}); err != nil {
			return err
		}
		if _, err := tx.UpsertAttribute(ctx, &model.Attribute{Category: "c", Name: "kept", Value: "3"}); err != nil {
			return err
		}
		return tx.RunInTransaction(ctx, func(store.Store) error { return boom })
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := s.GetAttribute(ctx, "discarded"); err != sql.ErrNoRows {
		t.Errorf("expected rolled back insert, got %v", err)
	}
	if a, _ := s.GetAttribute(ctx, "kept"); a.Value != "1" {
		t.Errorf("expected rolled back update, got %q", a.Value)
	}
}

func TestRunInTransaction_Commits(t *testing.T) {
	ctx := context.Background()
	s := New()
	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		_, err := tx.UpsertConsentType(ctx, &model.ConsentType{AppLabel: "edc_example", ModelName: "subjectconsent", Version: "1"})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Counts()["consent_types"] != 1 {
		t.Fatal("expected committed consent type")
	}
}
