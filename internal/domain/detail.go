package domain

// DetailEntry is one normalized description section.
type DetailEntry struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
