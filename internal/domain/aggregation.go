package domain

import "encoding/json"

// BrandGroup is one brand and its items, in merged-stream order.
type BrandGroup struct {
	Brand string `json:"brand"`
	Items []Item `json:"items"`
}

// BrandAggregation groups items by their own brand field. Keys keep the
// order in which the brand's first item was added.
type BrandAggregation struct {
	order  []string
	groups map[string][]Item
}

// NewBrandAggregation returns an empty aggregation.
func NewBrandAggregation() *BrandAggregation {
	return &BrandAggregation{groups: make(map[string][]Item)}
}

// Add appends items to the aggregation, grouping each by item.Brand.
// An empty brand is a key like any other.
func (a *BrandAggregation) Add(items ...Item) {
	if a.groups == nil {
		a.groups = make(map[string][]Item)
	}
	for _, it := range items {
		if _, ok := a.groups[it.Brand]; !ok {
			a.order = append(a.order, it.Brand)
		}
		a.groups[it.Brand] = append(a.groups[it.Brand], it)
	}
}

// Brands returns the keys in insertion order.
func (a *BrandAggregation) Brands() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.order...)
}

// Items returns the items grouped under brand.
func (a *BrandAggregation) Items(brand string) []Item {
	if a == nil {
		return nil
	}
	return a.groups[brand]
}

// Len returns the number of brands present.
func (a *BrandAggregation) Len() int {
	if a == nil {
		return 0
	}
	return len(a.order)
}

// Groups returns the aggregation as an ordered slice.
func (a *BrandAggregation) Groups() []BrandGroup {
	if a == nil {
		return []BrandGroup{}
	}
	out := make([]BrandGroup, 0, len(a.order))
	for _, b := range a.order {
		out = append(out, BrandGroup{Brand: b, Items: a.groups[b]})
	}
	return out
}

func (a *BrandAggregation) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Groups())
}

func (a *BrandAggregation) UnmarshalJSON(data []byte) error {
	var groups []BrandGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return err
	}
	*a = BrandAggregation{groups: make(map[string][]Item, len(groups))}
	for _, g := range groups {
		if _, ok := a.groups[g.Brand]; !ok {
			a.order = append(a.order, g.Brand)
		}
		a.groups[g.Brand] = append(a.groups[g.Brand], g.Items...)
	}
	return nil
}
