package domain

// ImageUpload is an image blob attached to a search.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Query is one multi-modal search intent. Brand and Color hold catalog
// labels; AllLabel or "" means unfiltered.
type Query struct {
	Text  string
	Image *ImageUpload
	Brand string
	Color string
}

// HasImage reports whether an image is attached.
func (q Query) HasImage() bool {
	return q.Image != nil
}
