package journal

import (
	"cmp"
	"slices"
	"time"
)

// Section is one category bucket inside a week.
type Section struct {
	Type    Type    `json:"type"`
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
}

// Week is a group of entries sharing the same week start. Sections always
// holds one bucket per entry type, in Types order, even when empty.
type Week struct {
	Start    string    `json:"start"`
	Sections []Section `json:"sections"`
}

// InvalidEntry is an entry that could not be placed into a week.
type InvalidEntry struct {
	Entry Entry
	Err   error
}

// Result is the grouped view of a journal.
type Result struct {
	Weeks   []Week
	Invalid []InvalidEntry
}

// Merge combines persisted entries with pending ones, one entry per id.
// Repeated pending ids keep the latest submission. When a pending entry
// shares its id with a persisted entry, the persisted fields win wherever
// they are set. Persisted entries keep their input order, followed by
// pending-only entries in the order their ids were first submitted.
func Merge(persisted, pending []Entry) []Entry {
	byID := make(map[string]int, len(persisted)+len(pending))
	merged := make([]Entry, 0, len(persisted)+len(pending))

	for _, e := range persisted {
		if i, ok := byID[e.ID]; ok {
			merged[i] = e
			continue
		}
		byID[e.ID] = len(merged)
		merged = append(merged, e)
	}

	for _, p := range latestByID(pending) {
		if i, ok := byID[p.ID]; ok {
			merged[i] = overlay(p, merged[i])
			continue
		}
		merged = append(merged, p)
	}

	return merged
}

// latestByID collapses repeated ids to their last entry, keeping the
// position of the first.
func latestByID(entries []Entry) []Entry {
	index := make(map[string]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if i, ok := index[e.ID]; ok {
			out[i] = e
			continue
		}
		index[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}

// overlay copies every field set on top over base.
func overlay(base, top Entry) Entry {
	out := base
	if top.ID != "" {
		out.ID = top.ID
	}
	if top.Date != "" {
		out.Date = top.Date
	}
	if top.Type != "" {
		out.Type = top.Type
	}
	if top.Privacy != "" {
		out.Privacy = top.Privacy
	}
	if top.Text != "" {
		out.Text = top.Text
	}
	if top.Link != "" {
		out.Link = top.Link
	}
	return out
}

type datedEntry struct {
	entry Entry
	day   time.Time
}

// sortedEntries merges persisted and pending entries and sorts them most
// recent first, breaking ties on id. Entries whose date does not parse or
// whose type is unknown are returned separately.
func sortedEntries(persisted, pending []Entry) ([]Entry, []InvalidEntry) {
	dated, invalid := reconcile(persisted, pending)
	out := make([]Entry, len(dated))
	for i, d := range dated {
		out[i] = d.entry
	}
	return out, invalid
}

func reconcile(persisted, pending []Entry) ([]datedEntry, []InvalidEntry) {
	merged := Merge(persisted, pending)

	dated := make([]datedEntry, 0, len(merged))
	var invalid []InvalidEntry
	for _, e := range merged {
		day, err := ParseDate(e.Date)
		if err != nil {
			invalid = append(invalid, InvalidEntry{Entry: e, Err: err})
			continue
		}
		if !e.Type.Valid() {
			invalid = append(invalid, InvalidEntry{Entry: e, Err: ErrUnknownType})
			continue
		}
		dated = append(dated, datedEntry{entry: e, day: day})
	}

	slices.SortFunc(dated, func(a, b datedEntry) int {
		if c := b.day.Compare(a.day); c != 0 {
			return c
		}
		return cmp.Compare(a.entry.ID, b.entry.ID)
	})

	return dated, invalid
}

// Group builds the journal view: merged, sorted entries bucketed by week
// (most recent week first) and then by type. Inputs are not modified and the
// output depends only on the inputs.
func Group(persisted, pending []Entry) Result {
	dated, invalid := reconcile(persisted, pending)

	weeks := make([]Week, 0)
	weekIndex := make(map[string]int)
	for _, d := range dated {
		key := WeekKey(d.day)
		i, ok := weekIndex[key]
		if !ok {
			i = len(weeks)
			weekIndex[key] = i
			weeks = append(weeks, newWeek(key))
		}
		s := sectionIndex(d.entry.Type)
		weeks[i].Sections[s].Entries = append(weeks[i].Sections[s].Entries, d.entry)
	}

	return Result{Weeks: weeks, Invalid: invalid}
}

func newWeek(start string) Week {
	sections := make([]Section, len(Types))
	for i, t := range Types {
		sections[i] = Section{Type: t, Title: t.Title(), Entries: []Entry{}}
	}
	return Week{Start: start, Sections: sections}
}

func sectionIndex(t Type) int {
	return slices.Index(Types, t)
}

// Entries flattens the week groups back into display order.
func (r Result) Entries() []Entry {
	var out []Entry
	for _, w := range r.Weeks {
		for _, s := range w.Sections {
			out = append(out, s.Entries...)
		}
	}
	return out
}
