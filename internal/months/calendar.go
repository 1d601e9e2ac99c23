// Package months defines the canonical month ordering shared by every report.
//
// Sales tables store the month as a free-text label ("Jan", "March", "Sept").
// A Calendar fixes which labels exist and in which order they sort; every
// component that orders, filters or indexes by month goes through one.
package months

import (
	"fmt"
	"strings"
)

// All is the filter label meaning "no month filter".
const All = "All"

// Calendar is an ordered, immutable list of month labels.
type Calendar struct {
	labels []string
	index  map[string]int
}

// Default is the nine-month reporting period used by the sales database.
var Default = MustNew("Jan", "Feb", "March", "April", "May", "June", "July", "August", "September")

// Short is a twelve-month calendar using three-letter labels.
var Short = MustNew("Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec")

// New builds a calendar from labels in order. Labels must be non-empty and unique
// (case-insensitively).
func New(labels ...string) (Calendar, error) {
	if len(labels) == 0 {
		return Calendar{}, fmt.Errorf("calendar needs at least one month")
	}

	c := Calendar{
		labels: make([]string, len(labels)),
		index:  make(map[string]int, len(labels)),
	}
	for i, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			return Calendar{}, fmt.Errorf("empty month label at position %d", i)
		}
		if l == All {
			return Calendar{}, fmt.Errorf("%q is reserved and cannot be a month label", All)
		}
		key := strings.ToLower(l)
		if _, dup := c.index[key]; dup {
			return Calendar{}, fmt.Errorf("duplicate month label %q", l)
		}
		c.labels[i] = l
		c.index[key] = i
	}
	return c, nil
}

// MustNew is New for package-level calendars; it panics on invalid input.
func MustNew(labels ...string) Calendar {
	c, err := New(labels...)
	if err != nil {
		panic(err)
	}
	return c
}

// Named returns a built-in calendar by name ("default" or "short").
func Named(name string) (Calendar, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return Default, nil
	case "short":
		return Short, nil
	default:
		return Calendar{}, fmt.Errorf("unknown calendar %q (must be default or short)", name)
	}
}

// Len returns the number of months in the calendar.
func (c Calendar) Len() int {
	return len(c.labels)
}

// Labels returns a copy of the ordered labels.
func (c Calendar) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Label returns the label at position i.
func (c Calendar) Label(i int) string {
	return c.labels[i]
}

// Index returns the 0-based position of label, matching exactly.
func (c Calendar) Index(label string) (int, bool) {
	if c.index == nil {
		return 0, false
	}
	i, ok := c.index[strings.ToLower(label)]
	if !ok || c.labels[i] != label {
		return 0, false
	}
	return i, true
}

// Contains reports whether label is on the calendar.
func (c Calendar) Contains(label string) bool {
	_, ok := c.Index(label)
	return ok
}

// Normalize maps a raw label onto the calendar. It tries an exact match, then a
// case-insensitive match, then treats raw as an abbreviation: a prefix of at
// least three letters of a calendar label or of the English month name the
// label stands for ("Sept" and "september" both become "Sep" on Short, "Mar"
// becomes "March" on Default, "Junk" matches nothing).
//
// Queries filter on the returned label, so snapshots must store months
// exactly as the calendar spells them. Doctor reports labels that do not.
func (c Calendar) Normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || c.index == nil {
		return "", false
	}
	if i, ok := c.index[strings.ToLower(raw)]; ok {
		return c.labels[i], true
	}
	if len(raw) < 3 {
		return "", false
	}
	abbr := strings.ToLower(raw)
	for _, l := range c.labels {
		key := strings.ToLower(l)
		if strings.HasPrefix(key, abbr) || strings.HasPrefix(fullName(key), abbr) {
			return l, true
		}
	}
	return "", false
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// fullName returns the English month name a lowercase label abbreviates, or
// the label itself when it abbreviates none.
func fullName(label string) string {
	if len(label) < 3 {
		return label
	}
	for _, n := range monthNames {
		if strings.HasPrefix(n, label) {
			return n
		}
	}
	return label
}

// IsAll reports whether a month filter selects every month.
func IsAll(month string) bool {
	return month == "" || strings.EqualFold(month, All)
}
