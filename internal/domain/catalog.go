package domain

import "strings"

// AllLabel is the filter selection meaning "unfiltered".
const AllLabel = "All"

// Catalog holds the fixed brand and color lists the storefront filters on.
type Catalog struct {
	Brands []string
	Colors []string
}

// NewCatalog copies the given lists.
func NewCatalog(brands, colors []string) Catalog {
	return Catalog{
		Brands: append([]string(nil), brands...),
		Colors: append([]string(nil), colors...),
	}
}

// BrandOptions returns the brand filter labels with AllLabel first.
func (c Catalog) BrandOptions() []string {
	return withAll(c.Brands)
}

// ColorOptions returns the color filter labels with AllLabel first.
func (c Catalog) ColorOptions() []string {
	return withAll(c.Colors)
}

// HasBrand reports whether label is a known brand or the AllLabel sentinel.
func (c Catalog) HasBrand(label string) bool {
	return IsUnfiltered(label) || containsFold(c.Brands, label)
}

// HasColor reports whether label is a known color or the AllLabel sentinel.
func (c Catalog) HasColor(label string) bool {
	return IsUnfiltered(label) || containsFold(c.Colors, label)
}

// IsUnfiltered reports whether a filter label means "no filter".
func IsUnfiltered(label string) bool {
	label = strings.TrimSpace(label)
	return label == "" || label == AllLabel
}

// EncodeFilter maps a filter label to its transport value: the AllLabel
// sentinel (or nothing) becomes the empty string, anything else is sent as is.
func EncodeFilter(label string) string {
	if IsUnfiltered(label) {
		return ""
	}
	return label
}

func withAll(labels []string) []string {
	out := make([]string, 0, len(labels)+1)
	out = append(out, AllLabel)
	return append(out, labels...)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
