package feed

import "testing"

func TestNormalizeRejectsMissingCode(t *testing.T) {
	records := []RawRecord{
		{Title: "no fields at all"},
		{Title: "empty code", Fields: []RawField{{ValidationKey: "event_code", Value: ""}}},
		{Title: "whitespace code", Fields: []RawField{{ValidationKey: "event_code", Value: "   "}}},
		{Title: "unrelated fields", Fields: []RawField{{ValidationKey: "event_status", Value: "Active"}}},
	}
	for _, r := range records {
		if ev, ok := Normalize(r); ok {
			t.Fatalf("expected %q rejected, got %+v", r.Title, ev)
		}
	}
}

func TestNormalizeFlattensFields(t *testing.T) {
	r := RawRecord{
		Title: "Robo Race",
		Fields: []RawField{
			{ValidationKey: "event_code", Value: "EVT-101"},
			{ValidationKey: "event_category", Value: "Competition"},
			{ValidationKey: "event_location", Value: "ONLINE"},
			{ValidationKey: "event_status", Value: "Active"},
		},
	}
	ev, ok := Normalize(r)
	if !ok {
		t.Fatalf("expected record accepted")
	}
	if ev.Code != "EVT-101" || ev.Title != "Robo Race" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Category != "Competition" || ev.Location != "ONLINE" || ev.Status != "Active" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestNormalizeTitlePlaceholder(t *testing.T) {
	r := RawRecord{Fields: []RawField{{ValidationKey: "event_code", Value: "EVT-1"}}}
	ev, ok := Normalize(r)
	if !ok {
		t.Fatalf("expected record accepted")
	}
	if ev.Title != untitled {
		t.Fatalf("expected placeholder title, got %q", ev.Title)
	}
}

func TestNormalizeNoOtherDefaults(t *testing.T) {
	// Missing category/location/status pass through empty; the validity
	// filter is the one to reject them.
	r := RawRecord{Title: "x", Fields: []RawField{{ValidationKey: "event_code", Value: "EVT-2"}}}
	ev, ok := Normalize(r)
	if !ok {
		t.Fatalf("expected record accepted")
	}
	if ev.Category != "" || ev.Location != "" || ev.Status != "" {
		t.Fatalf("expected empty passthrough, got %+v", ev)
	}
	if Notifiable(ev) {
		t.Fatalf("event with empty fields must not be notifiable")
	}
}
