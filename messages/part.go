package messages

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Part is a fragment of message content.
// Implementations are TextPart, MediaPart and DataPart.
type Part interface {
	// PartMetadata returns the annotations attached to the part, possibly nil.
	PartMetadata() Metadata
	part()
}

// Text creates a TextPart without metadata.
func Text(text string) TextPart {
	return TextPart{Text: text}
}

// TextPart is a plain text fragment.
type TextPart struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata,omitempty"`
	_        struct{} // require keyed usage
}

func (TextPart) part() {}

// PartMetadata implements Part.
func (t TextPart) PartMetadata() Metadata { return t.Metadata }

// MarshalJSON implements json.Marshaler for TextPart.
func (t TextPart) MarshalJSON() ([]byte, error) {
	b, err := sjson.SetBytes([]byte(`{}`), "text", t.Text)
	if err != nil {
		return nil, err
	}
	return setMetadata(b, t.Metadata)
}

// UnmarshalJSON implements json.Unmarshaler for TextPart.
func (t *TextPart) UnmarshalJSON(input []byte) error {
	text := gjson.GetBytes(input, "text")
	if !text.Exists() {
		return errors.New("missing required field 'text'")
	}
	md, err := parseMetadata(gjson.GetBytes(input, "metadata"))
	if err != nil {
		return err
	}
	t.Text = text.String()
	t.Metadata = md
	return nil
}

// Media creates a MediaPart for the given content type and URL.
// The URL may be a data URL carrying the media inline.
func Media(contentType, url string) MediaPart {
	return MediaPart{ContentType: contentType, URL: url}
}

// MediaPart references an image, audio clip or other binary content by URL.
type MediaPart struct {
	ContentType string   `json:"contentType,omitempty"`
	URL         string   `json:"url"`
	Metadata    Metadata `json:"metadata,omitempty"`
	_           struct{} // require keyed usage
}

func (MediaPart) part() {}

// PartMetadata implements Part.
func (m MediaPart) PartMetadata() Metadata { return m.Metadata }

// MarshalJSON implements json.Marshaler for MediaPart.
func (m MediaPart) MarshalJSON() ([]byte, error) {
	b, err := sjson.SetBytes([]byte(`{}`), "media.url", m.URL)
	if err != nil {
		return nil, err
	}
	if m.ContentType != "" {
		if b, err = sjson.SetBytes(b, "media.contentType", m.ContentType); err != nil {
			return nil, err
		}
	}
	return setMetadata(b, m.Metadata)
}

// UnmarshalJSON implements json.Unmarshaler for MediaPart.
func (m *MediaPart) UnmarshalJSON(input []byte) error {
	media := gjson.GetBytes(input, "media")
	if !media.IsObject() {
		return errors.New("missing required object 'media'")
	}
	url := media.Get("url")
	if !url.Exists() {
		return errors.New("missing required field 'media.url'")
	}
	md, err := parseMetadata(gjson.GetBytes(input, "metadata"))
	if err != nil {
		return err
	}
	m.URL = url.String()
	m.ContentType = media.Get("contentType").String()
	m.Metadata = md
	return nil
}

// Data creates a DataPart holding an arbitrary JSON-compatible value.
func Data(data any) DataPart {
	return DataPart{Data: data}
}

// DataPart carries structured data.
type DataPart struct {
	Data     any      `json:"data"`
	Metadata Metadata `json:"metadata,omitempty"`
	_        struct{} // require keyed usage
}

func (DataPart) part() {}

// PartMetadata implements Part.
func (d DataPart) PartMetadata() Metadata { return d.Metadata }

// MarshalJSON implements json.Marshaler for DataPart.
func (d DataPart) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return nil, err
	}
	b, err := sjson.SetRawBytes([]byte(`{}`), "data", raw)
	if err != nil {
		return nil, err
	}
	return setMetadata(b, d.Metadata)
}

// UnmarshalJSON implements json.Unmarshaler for DataPart.
func (d *DataPart) UnmarshalJSON(input []byte) error {
	data := gjson.GetBytes(input, "data")
	if !data.Exists() {
		return errors.New("missing required field 'data'")
	}
	md, err := parseMetadata(gjson.GetBytes(input, "metadata"))
	if err != nil {
		return err
	}
	d.Data = data.Value()
	d.Metadata = md
	return nil
}

// ParsePart decodes a single part, choosing its kind from the fields present.
func ParsePart(input []byte) (Part, error) {
	if !gjson.ValidBytes(input) {
		return nil, fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	switch {
	case jv.Get("text").Exists():
		var p TextPart
		if err := p.UnmarshalJSON(input); err != nil {
			return nil, err
		}
		return p, nil
	case jv.Get("media").Exists():
		var p MediaPart
		if err := p.UnmarshalJSON(input); err != nil {
			return nil, err
		}
		return p, nil
	case jv.Get("data").Exists():
		var p DataPart
		if err := p.UnmarshalJSON(input); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, errors.New("part has none of 'text', 'media' or 'data'")
	}
}

func setMetadata(b []byte, md Metadata) ([]byte, error) {
	if len(md) == 0 {
		return b, nil
	}
	raw, err := json.Marshal(md)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(b, "metadata", raw)
}

func parseMetadata(res gjson.Result) (Metadata, error) {
	if !res.Exists() || res.Type == gjson.Null {
		return nil, nil
	}
	if !res.IsObject() {
		return nil, errors.New("'metadata' must be an object")
	}
	v, _ := res.Value().(map[string]any)
	return Metadata(v), nil
}
