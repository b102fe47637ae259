package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SKU identifies a catalog item. The recommendation backend sends numeric
// SKUs; the type also accepts strings so route parameters and cached
// payloads round-trip unchanged.
type SKU string

// UnmarshalJSON accepts a JSON number or string.
func (s *SKU) UnmarshalJSON(data []byte) error {
	v, err := scalarString(data)
	if err != nil {
		return fmt.Errorf("sku: %w", err)
	}
	*s = SKU(v)
	return nil
}

// MarshalJSON writes numeric SKUs as JSON numbers and anything else as a string.
func (s SKU) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(s), 10, 64); err == nil {
		return []byte(s), nil
	}
	return json.Marshal(string(s))
}

// Int returns the SKU as the integer the backend's query parameters expect.
func (s SKU) Int() (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(s)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sku %q is not an integer", string(s))
	}
	return n, nil
}

func (s SKU) String() string { return string(s) }

// Sizes is the set of in-stock size labels. The backend sends either a JSON
// list or a comma separated string.
type Sizes []string

func (z *Sizes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*z = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("in_stock_size: %w", err)
		}
		var out Sizes
		for _, part := range strings.Split(str, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*z = out
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("in_stock_size: %w", err)
	}
	*z = list
	return nil
}

// Contains reports whether label is one of the sizes.
func (z Sizes) Contains(label string) bool {
	for _, s := range z {
		if s == label {
			return true
		}
	}
	return false
}

// DescriptionRecord is one single-key section of an item description,
// e.g. {"Size & Fit": "Model wears: UK 8"}.
type DescriptionRecord struct {
	Title string
	Body  string
}

// UnmarshalJSON keeps the first key of the object in document order. An
// empty object yields a record with an empty Title.
func (r *DescriptionRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("description record: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("description record: expected object, got %v", tok)
	}
	*r = DescriptionRecord{}
	if !dec.More() {
		return nil
	}
	keyTok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("description record: %w", err)
	}
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("description record: %w", err)
	}
	r.Title = keyTok.(string)
	r.Body = bodyText(raw)
	return nil
}

// MarshalJSON writes the record back in its single-key form.
func (r DescriptionRecord) MarshalJSON() ([]byte, error) {
	if r.Title == "" {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string{r.Title: r.Body})
}

// scalarString decodes a JSON string, number or null into a trimmed string.
func scalarString(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return "", err
		}
		return strings.TrimSpace(str), nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// bodyText renders a section body as text. Non-string bodies (numbers,
// null from the upstream data frame) are kept in their JSON form.
func bodyText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

// Item is a catalog entity as returned by the recommendation backend.
type Item struct {
	SKU         SKU                 `json:"sku"`
	Name        string              `json:"name"`
	Price       float64             `json:"price"`
	Brand       string              `json:"brand"`
	Color       string              `json:"color"`
	Images      []string            `json:"images"`
	Description []DescriptionRecord `json:"description"`
	InStockSize Sizes               `json:"in_stock_size,omitempty"`
}

// Renderable reports whether the item can be shown: it needs at least one image.
func (i Item) Renderable() bool {
	return len(i.Images) > 0
}
