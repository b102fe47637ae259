package recommend

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
)

// Multipart field names accepted by the recommendation backend's /search.
const (
	FieldText  = "query_text"
	FieldImage = "file"
	FieldBrand = "brand"
	FieldColor = "color"
)

const defaultImageName = "upload"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Payload is an encoded multipart search request.
type Payload struct {
	Body        []byte
	ContentType string
}

// BuildSearchPayload encodes q as a multipart form. Text and image are
// omitted when absent; brand and color are always written, with the
// unfiltered selection sent as an empty value.
func BuildSearchPayload(q domain.Query) (Payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if q.Text != "" {
		if err := w.WriteField(FieldText, q.Text); err != nil {
			return Payload{}, fmt.Errorf("write %s: %w", FieldText, err)
		}
	}

	if q.Image != nil {
		part, err := w.CreatePart(imageHeader(q.Image))
		if err != nil {
			return Payload{}, fmt.Errorf("create %s part: %w", FieldImage, err)
		}
		if _, err := part.Write(q.Image.Data); err != nil {
			return Payload{}, fmt.Errorf("write %s: %w", FieldImage, err)
		}
	}

	if err := w.WriteField(FieldBrand, domain.EncodeFilter(q.Brand)); err != nil {
		return Payload{}, fmt.Errorf("write %s: %w", FieldBrand, err)
	}
	if err := w.WriteField(FieldColor, domain.EncodeFilter(q.Color)); err != nil {
		return Payload{}, fmt.Errorf("write %s: %w", FieldColor, err)
	}

	if err := w.Close(); err != nil {
		return Payload{}, fmt.Errorf("close multipart writer: %w", err)
	}

	return Payload{Body: buf.Bytes(), ContentType: w.FormDataContentType()}, nil
}

func imageHeader(img *domain.ImageUpload) textproto.MIMEHeader {
	name := img.Filename
	if name == "" {
		name = defaultImageName
	}
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FieldImage, quoteEscaper.Replace(name)))
	h.Set("Content-Type", contentType)
	return h
}
