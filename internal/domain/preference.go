package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// HistoryRef links a user to one prior item of interest. The zero value
// means no history context was supplied.
type HistoryRef string

// Absent reports whether no history reference is present.
func (h HistoryRef) Absent() bool {
	return strings.TrimSpace(string(h)) == ""
}

// SKU coerces the reference to the integer identifier the preference
// endpoint expects. Only the leading optional sign and digits are read, so
// "12.0" and "12abc" both yield 12. A reference with no leading digit is
// an error.
func (h HistoryRef) SKU() (int, error) {
	s := strings.TrimSpace(string(h))
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, fmt.Errorf("history reference %q is not an item identifier", string(h))
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, fmt.Errorf("history reference %q: %w", string(h), err)
	}
	return n, nil
}

// UnmarshalJSON accepts a string, a number or null.
func (h *HistoryRef) UnmarshalJSON(data []byte) error {
	v, err := scalarString(data)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	*h = HistoryRef(v)
	return nil
}

// PreferenceResult holds the two independent recommendation channels.
type PreferenceResult struct {
	ByImage []Item `json:"image"`
	ByText  []Item `json:"text"`
}

// Empty reports whether both channels are empty.
func (p PreferenceResult) Empty() bool {
	return len(p.ByImage) == 0 && len(p.ByText) == 0
}

// Normalized returns a copy with nil channels replaced by empty slices.
func (p PreferenceResult) Normalized() PreferenceResult {
	if p.ByImage == nil {
		p.ByImage = []Item{}
	}
	if p.ByText == nil {
		p.ByText = []Item{}
	}
	return p
}
