// Package journal holds the journal entry model and the logic that turns
// persisted and in-flight entries into the week/category view shown on a
// user's journal page.
package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateFormat is the canonical calendar date layout for entries.
const DateFormat = time.DateOnly

var (
	ErrInvalidDate = errors.New("invalid entry date")
	ErrUnknownType = errors.New("unknown entry type")
)

// Type is the category an entry belongs to.
type Type string

const (
	TypeWork             Type = "work"
	TypeLearning         Type = "learning"
	TypeInterestingThing Type = "interesting-thing"
)

// Types lists every entry type in display order.
var Types = []Type{TypeWork, TypeLearning, TypeInterestingThing}

func (t Type) Valid() bool {
	switch t {
	case TypeWork, TypeLearning, TypeInterestingThing:
		return true
	}
	return false
}

// Title is the section heading used for the type.
func (t Type) Title() string {
	switch t {
	case TypeWork:
		return "Work"
	case TypeLearning:
		return "Learnings"
	case TypeInterestingThing:
		return "Interesting Things"
	}
	return string(t)
}

// Privacy controls who can see an entry.
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyPrivate Privacy = "private"
)

// ParsePrivacy accepts both label pairs ("public"/"private" and
// "everyone"/"owner") and returns the canonical value.
func ParsePrivacy(s string) (Privacy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public", "everyone":
		return PrivacyPublic, true
	case "private", "owner":
		return PrivacyPrivate, true
	}
	return "", false
}

// Entry is a single journal record. Date is kept as the string it arrived
// with; ParseDate turns it into a calendar day.
type Entry struct {
	ID      string  `json:"id"`
	Date    string  `json:"date"`
	Type    Type    `json:"type"`
	Privacy Privacy `json:"privacy"`
	Text    string  `json:"text"`
	Link    string  `json:"link,omitempty"`
}

// IsPublic reports whether viewers other than the owner may see the entry.
func (e Entry) IsPublic() bool {
	return e.Privacy == PrivacyPublic
}

// ParseDate parses an entry date. Both "2006-01-02" and RFC 3339 timestamps
// are accepted; the calendar date is taken as written, in the literal's own
// offset, and returned as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateFormat, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// FilterVisible returns the entries a viewer may see. Owners see everything;
// anyone else only sees public entries. The input slice is not modified.
func FilterVisible(entries []Entry, viewerIsOwner bool) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if viewerIsOwner || e.IsPublic() {
			out = append(out, e)
		}
	}
	return out
}
