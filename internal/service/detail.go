package service

import (
	"regexp"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
)

// SizeFitTitle is the description section holding the model's size note.
const SizeFitTitle = "Size & Fit"

var (
	caseBoundary = regexp.MustCompile(`([a-z])([A-Z])`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// NormalizeBody recovers sentence breaks lost upstream: a lowercase letter
// directly followed by an uppercase one gets ". " inserted between them.
// Whitespace runs are then collapsed and the result trimmed. Words that
// legitimately mix case are split too.
func NormalizeBody(s string) string {
	s = caseBoundary.ReplaceAllString(s, "$1. $2")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Normalize converts the description records of item into detail entries,
// in record order, one entry per record.
func Normalize(item *domain.Item) []domain.DetailEntry {
	if item == nil {
		return []domain.DetailEntry{}
	}
	entries := make([]domain.DetailEntry, 0, len(item.Description))
	for _, rec := range item.Description {
		entries = append(entries, domain.DetailEntry{
			Title:   rec.Title,
			Content: NormalizeBody(rec.Body),
		})
	}
	return entries
}

// Disclosure keeps at most one detail section expanded.
type Disclosure struct {
	titles   map[string]struct{}
	expanded string
}

// NewDisclosure creates a disclosure over entries with nothing expanded.
func NewDisclosure(entries []domain.DetailEntry) *Disclosure {
	titles := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		titles[e.Title] = struct{}{}
	}
	return &Disclosure{titles: titles}
}

// Toggle collapses title if it is the expanded section and expands it
// otherwise. Titles not present in the entries are ignored, as are
// untitled entries, which cannot be addressed.
func (d *Disclosure) Toggle(title string) {
	if _, ok := d.titles[title]; !ok || title == "" {
		return
	}
	if d.expanded == title {
		d.expanded = ""
		return
	}
	d.expanded = title
}

// Expanded returns the expanded title, if any.
func (d *Disclosure) Expanded() (string, bool) {
	return d.expanded, d.expanded != ""
}

// IsExpanded reports whether title is the expanded section.
func (d *Disclosure) IsExpanded(title string) bool {
	return d.expanded != "" && d.expanded == title
}
