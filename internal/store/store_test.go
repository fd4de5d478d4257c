package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ravlen/upkeep/internal/apperr"
	"github.com/ravlen/upkeep/internal/models"
	"github.com/ravlen/upkeep/internal/store"
	"github.com/ravlen/upkeep/internal/testutil"
)

func testRecord(id, title string) models.MaintenanceRecord {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return models.MaintenanceRecord{
		ID:            id,
		Title:         title,
		ScheduledDate: "2024-03-20T09:00",
		Frequency:     models.FreqMonthly,
		MachineIDs:    []string{},
		TopicIDs:      []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestUpsertAndGetRecord(t *testing.T) {
	db := testutil.TestStore(t)

	rec := testRecord("rec-1", "Replace filters")
	rec.MachineIDs = []string{"mach-2", "mach-1"}
	rec.TopicIDs = []string{"topic-1"}
	rec.Notes = "east wing units"
	if err := db.UpsertRecord(rec); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}

	got, err := db.GetRecord("rec-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Title != "Replace filters" {
		t.Errorf("title = %q", got.Title)
	}
	// Links come back sorted.
	if len(got.MachineIDs) != 2 || got.MachineIDs[0] != "mach-1" {
		t.Errorf("machine ids = %v", got.MachineIDs)
	}
	if len(got.TopicIDs) != 1 {
		t.Errorf("topic ids = %v", got.TopicIDs)
	}
}

func TestUpsertReplacesLinks(t *testing.T) {
	db := testutil.TestStore(t)

	rec := testRecord("rec-1", "Replace filters")
	rec.MachineIDs = []string{"mach-1", "mach-2"}
	if err := db.UpsertRecord(rec); err != nil {
		t.Fatal(err)
	}

	rec.MachineIDs = []string{"mach-3"}
	if err := db.UpsertRecord(rec); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetRecord("rec-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.MachineIDs) != 1 || got.MachineIDs[0] != "mach-3" {
		t.Errorf("machine ids = %v, want [mach-3]", got.MachineIDs)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	db := testutil.TestStore(t)
	if _, err := db.GetRecord("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteRecord(t *testing.T) {
	db := testutil.TestStore(t)

	if err := db.UpsertRecord(testRecord("rec-1", "Replace filters")); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteRecord("rec-1"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if _, err := db.GetRecord("rec-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("record still present after delete")
	}
	if err := db.DeleteRecord("rec-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestListRecordsPaginationAndOrder(t *testing.T) {
	db := testutil.TestStore(t)

	dates := []string{"2024-03-25T09:00", "2024-03-05T09:00", "2024-03-15T09:00"}
	for i, d := range dates {
		rec := testRecord("rec-"+string(rune('a'+i)), "Job")
		rec.ScheduledDate = d
		if err := db.UpsertRecord(rec); err != nil {
			t.Fatal(err)
		}
	}

	page, total, err := db.ListRecords(2, 0, store.RecordFilter{})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(page) != 2 {
		t.Fatalf("page len = %d, want 2", len(page))
	}
	// Soonest scheduled date first.
	if page[0].ScheduledDate != "2024-03-05T09:00" {
		t.Errorf("first = %s", page[0].ScheduledDate)
	}

	page, _, err = db.ListRecords(2, 2, store.RecordFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ScheduledDate != "2024-03-25T09:00" {
		t.Errorf("second page = %v", page)
	}
}

func TestListRecordsFilters(t *testing.T) {
	db := testutil.TestStore(t)

	a := testRecord("rec-a", "Filters")
	a.Frequency = models.FreqWeekly
	a.Assignee = "sam"
	a.MachineIDs = []string{"mach-1"}
	b := testRecord("rec-b", "Coils")
	b.Assignee = "alex"
	for _, rec := range []models.MaintenanceRecord{a, b} {
		if err := db.UpsertRecord(rec); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter store.RecordFilter
		wantID string
	}{
		{"by frequency", store.RecordFilter{Frequency: models.FreqWeekly}, "rec-a"},
		{"by assignee", store.RecordFilter{Assignee: "alex"}, "rec-b"},
		{"by machine", store.RecordFilter{MachineID: "mach-1"}, "rec-a"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, total, err := db.ListRecords(10, 0, tc.filter)
			if err != nil {
				t.Fatal(err)
			}
			if total != 1 || len(got) != 1 || got[0].ID != tc.wantID {
				t.Errorf("got %v (total %d), want single %s", got, total, tc.wantID)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	db := testutil.TestStore(t)

	a := testRecord("rec-a", "Replace air filters")
	a.Notes = "quarterly filter swap"
	b := testRecord("rec-b", "Inspect pump seals")
	for _, rec := range []models.MaintenanceRecord{a, b} {
		if err := db.UpsertRecord(rec); err != nil {
			t.Fatal(err)
		}
	}

	results, err := db.Search("filter", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "rec-a" {
		t.Errorf("results = %v, want rec-a only", results)
	}

	// Deleted records drop out of search.
	if err := db.DeleteRecord("rec-a"); err != nil {
		t.Fatal(err)
	}
	results, err = db.Search("filter", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results after delete = %v", results)
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	db := testutil.TestStore(t)

	machines := []models.MachineSummary{
		{ID: "mach-1", Name: "Air handler", GroupID: "hvac", PropertyID: "prop-1", TemplateIDs: []string{"tmpl-1"}},
		{ID: "mach-2", Name: "Pump", GroupID: "plumbing", PropertyID: "prop-2"},
	}
	templates := []models.TaskTemplate{
		{ID: "tmpl-1", Name: "Replace filters", GroupID: "hvac", Frequency: models.FreqQuarterly},
	}
	topics := []models.Topic{{ID: "topic-1", Name: "Safety"}}
	if err := db.ReplaceCatalog(machines, templates, topics); err != nil {
		t.Fatalf("ReplaceCatalog: %v", err)
	}

	all, err := db.ListMachines("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("machines = %d, want 2", len(all))
	}
	filtered, err := db.ListMachines("prop-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || filtered[0].ID != "mach-2" {
		t.Errorf("filtered = %v", filtered)
	}

	m, err := db.GetMachine("mach-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.TemplateIDs) != 1 || m.TemplateIDs[0] != "tmpl-1" {
		t.Errorf("template links = %v", m.TemplateIDs)
	}
	if _, err := db.GetMachine("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	tmpl, err := db.GetTemplate("tmpl-1")
	if err != nil {
		t.Fatal(err)
	}
	if tmpl.Frequency != models.FreqQuarterly {
		t.Errorf("frequency = %s", tmpl.Frequency)
	}

	// Reload replaces everything.
	if err := db.ReplaceCatalog(nil, nil, topics); err != nil {
		t.Fatal(err)
	}
	all, _ = db.ListMachines("")
	if len(all) != 0 {
		t.Errorf("machines after replace = %d, want 0", len(all))
	}
	tops, _ := db.ListTopics()
	if len(tops) != 1 {
		t.Errorf("topics = %v", tops)
	}
}
