package layout

import (
	"testing"
	"time"
)

func ev(id string, hour, min, durMinutes int) Event {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	start := day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
	return Event{ID: id, Start: start, End: start.Add(time.Duration(durMinutes) * time.Minute)}
}

func TestGroupOverlapping_TransitiveChain(t *testing.T) {
	// A 09:00-10:00, B 09:30-10:30, C 09:15-09:45: one cluster of three.
	events := []Event{ev("A", 9, 0, 60), ev("B", 9, 30, 60), ev("C", 9, 15, 30)}

	groups := GroupOverlapping(events)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if len(g.Events) != 3 {
		t.Fatalf("expected 3 members, got %d", len(g.Events))
	}
	if g.Events[0].ID != "A" || g.Events[1].ID != "B" || g.Events[2].ID != "C" {
		t.Fatalf("members should keep input order, got %s %s %s", g.Events[0].ID, g.Events[1].ID, g.Events[2].ID)
	}
	if !g.Start.Equal(events[0].Start) || !g.End.Equal(events[1].End) {
		t.Fatalf("group span should be 09:00-10:30, got %s-%s",
			g.Start.Format("15:04"), g.End.Format("15:04"))
	}
}

func TestGroupOverlapping_TouchingEventsStaySeparate(t *testing.T) {
	// D 09:00-10:00 and E 10:00-10:30 share only an endpoint.
	events := []Event{ev("D", 9, 0, 60), ev("E", 10, 0, 30)}

	groups := GroupOverlapping(events)
	if len(groups) != 2 {
		t.Fatalf("expected 2 singleton groups, got %d", len(groups))
	}
	for _, g := range groups {
		if len(g.Events) != 1 {
			t.Fatalf("expected singleton group, got %d members", len(g.Events))
		}
	}
}

func TestGroupOverlapping_BridgeDiscoveredLate(t *testing.T) {
	// A and C do not overlap each other but both overlap B, which appears
	// last in the input. All three must land in one group.
	events := []Event{ev("A", 9, 0, 30), ev("C", 9, 45, 30), ev("B", 9, 15, 45)}

	groups := GroupOverlapping(events)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if got := len(groups[0].Events); got != 3 {
		t.Fatalf("expected 3 members, got %d", got)
	}
}

func TestAssignColumns_ThreeWayOverlap(t *testing.T) {
	events := []Event{ev("A", 9, 0, 60), ev("B", 9, 30, 60), ev("C", 9, 15, 30)}
	groups := GroupOverlapping(events)
	records := AssignColumns(groups[0], DefaultMaxColumns)

	byID := make(map[string]RenderRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	// Ordered by start: A, C, B.
	wantCol := map[string]int{"A": 0, "C": 1, "B": 2}
	for id, col := range wantCol {
		r, ok := byID[id]
		if !ok {
			t.Fatalf("missing record for %s", id)
		}
		if r.Column != col {
			t.Errorf("%s: expected column %d, got %d", id, col, r.Column)
		}
		if r.TotalColumns != 3 {
			t.Errorf("%s: expected 3 total columns, got %d", id, r.TotalColumns)
		}
		wantLeft := float64(col) * (100.0 / 3.0)
		if diff := r.LeftPercent - wantLeft; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s: expected left %%%.4f, got %%%.4f", id, wantLeft, r.LeftPercent)
		}
	}
}

func TestAssignColumns_OverflowStacksInLastColumn(t *testing.T) {
	// Six mutually overlapping events against a four-column bound: the fifth
	// and sixth stack in column three.
	events := []Event{
		ev("A", 9, 0, 120), ev("B", 9, 10, 120), ev("C", 9, 20, 120),
		ev("D", 9, 30, 120), ev("E", 9, 40, 120), ev("F", 9, 50, 120),
	}
	groups := GroupOverlapping(events)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}

	records := AssignColumns(groups[0], 4)
	if len(records) != 6 {
		t.Fatalf("expected 6 records, got %d", len(records))
	}
	for _, r := range records {
		if r.TotalColumns != 4 {
			t.Errorf("%s: expected 4 total columns, got %d", r.ID, r.TotalColumns)
		}
		if r.WidthPercent != 25.0 {
			t.Errorf("%s: expected width 25%%, got %.4f", r.ID, r.WidthPercent)
		}
		if r.Column < 0 || r.Column > 3 {
			t.Errorf("%s: column %d outside bound", r.ID, r.Column)
		}
	}
	stacked := 0
	for _, r := range records {
		if r.Column == 3 {
			stacked++
		}
	}
	if stacked != 3 {
		t.Fatalf("expected 3 events stacked in the last column, got %d", stacked)
	}
}

func TestAssignColumns_TiesKeepInputOrder(t *testing.T) {
	events := []Event{ev("first", 9, 0, 60), ev("second", 9, 0, 30)}
	records := AssignColumns(GroupOverlapping(events)[0], DefaultMaxColumns)
	if records[0].ID != "first" || records[0].Column != 0 {
		t.Fatalf("expected first input event in column 0, got %s in column %d", records[0].ID, records[0].Column)
	}
	if records[1].ID != "second" || records[1].Column != 1 {
		t.Fatalf("expected second input event in column 1, got %s in column %d", records[1].ID, records[1].Column)
	}
}

func TestLayout_SingletonFillsFullWidth(t *testing.T) {
	records := Layout([]Event{ev("solo", 9, 0, 60)}, DefaultMaxColumns)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Column != 0 || r.TotalColumns != 1 || r.WidthPercent != 100.0 || r.LeftPercent != 0.0 {
		t.Fatalf("unexpected singleton placement %+v", r.Placement)
	}
}

func TestLayout_Empty(t *testing.T) {
	if got := Layout(nil, DefaultMaxColumns); got != nil {
		t.Fatalf("expected no records, got %v", got)
	}
}
