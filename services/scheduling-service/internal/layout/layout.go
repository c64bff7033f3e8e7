// Package layout lays out temporally overlapping appointments for calendar
// rendering: it clusters records that transitively overlap in time, then
// assigns each cluster member a rendering column so members never draw on
// top of each other.
package layout

import (
	"sort"
	"time"

	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/availability"
)

// DefaultMaxColumns bounds how many side-by-side columns a cluster may use.
const DefaultMaxColumns = 4

type Event struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Group is a maximal cluster of events connected by transitive time overlap,
// together with its aggregate [Start, End) span. Events keep their original
// input order.
type Group struct {
	Start  time.Time
	End    time.Time
	Events []Event
}

type Placement struct {
	Column       int
	TotalColumns int
	WidthPercent float64
	LeftPercent  float64
}

type RenderRecord struct {
	Event
	Placement
}

// GroupOverlapping partitions events into transitively-overlapping clusters.
// A seed event pulls in every unprocessed event overlapping any current
// member, rescanning until a pass adds nothing (fixed point). Overlap is
// half-open, so touching endpoints never join two events. Quadratic per pass,
// which is fine at per-day appointment volumes.
func GroupOverlapping(events []Event) []Group {
	used := make([]bool, len(events))
	var groups []Group

	for i := range events {
		if used[i] {
			continue
		}
		used[i] = true
		members := []int{i}

		for {
			added := false
			for j := range events {
				if used[j] {
					continue
				}
				for _, m := range members {
					if overlaps(events[m], events[j]) {
						used[j] = true
						members = append(members, j)
						added = true
						break
					}
				}
			}
			if !added {
				break
			}
		}

		// Later passes can discover members out of input order.
		sort.Ints(members)

		g := Group{Start: events[members[0]].Start, End: events[members[0]].End}
		for _, m := range members {
			e := events[m]
			if e.Start.Before(g.Start) {
				g.Start = e.Start
			}
			if e.End.After(g.End) {
				g.End = e.End
			}
			g.Events = append(g.Events, e)
		}
		groups = append(groups, g)
	}
	return groups
}

// AssignColumns places one group's members. Members are ordered by start time
// (stable, so ties keep input order); the first maxColumns-1 take their index
// as column and everyone past that stacks in the last column. Overflow
// members therefore render on top of each other rather than shrinking the
// grid further.
func AssignColumns(g Group, maxColumns int) []RenderRecord {
	if maxColumns <= 0 {
		maxColumns = DefaultMaxColumns
	}

	ordered := make([]Event, len(g.Events))
	copy(ordered, g.Events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})

	total := len(ordered)
	if total > maxColumns {
		total = maxColumns
	}
	if total == 0 {
		return nil
	}
	width := 100.0 / float64(total)

	out := make([]RenderRecord, 0, len(ordered))
	for i, e := range ordered {
		col := i
		if col > maxColumns-1 {
			col = maxColumns - 1
		}
		out = append(out, RenderRecord{
			Event: e,
			Placement: Placement{
				Column:       col,
				TotalColumns: total,
				WidthPercent: width,
				LeftPercent:  float64(col) * width,
			},
		})
	}
	return out
}

// Layout clusters the events and assigns columns per cluster. Singletons come
// out as {column 0, one column, full width}.
func Layout(events []Event, maxColumns int) []RenderRecord {
	var out []RenderRecord
	for _, g := range GroupOverlapping(events) {
		out = append(out, AssignColumns(g, maxColumns)...)
	}
	return out
}

func overlaps(a, b Event) bool {
	return availability.Overlaps(a.Start, a.End, b.Start, b.End)
}
