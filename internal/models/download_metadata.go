package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Belphemur/MovieBoxLookup/internal/apperrors"
)

// EnglishLanguage is the caption language code kept by the lookup.
const EnglishLanguage = "en"

// DownloadMetadata is the document returned by the subject download API.
// Fields are kept as raw JSON so everything except data.captions is passed
// through to callers unchanged.
type DownloadMetadata struct {
	fields map[string]json.RawMessage
}

// captionLanguage is the only part of a caption entry the lookup inspects
type captionLanguage struct {
	Lan string `json:"lan"`
}

// ParseDownloadMetadata decodes a download API body. The body must be a JSON object.
func ParseDownloadMetadata(body []byte) (*DownloadMetadata, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode JSON response: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("failed to decode JSON response: body is null")
	}
	return &DownloadMetadata{fields: fields}, nil
}

// MarshalJSON implements json.Marshaler.
func (m *DownloadMetadata) MarshalJSON() ([]byte, error) {
	if m == nil || m.fields == nil {
		return []byte("null"), nil
	}
	return json.Marshal(m.fields)
}

func (m *DownloadMetadata) data() (map[string]json.RawMessage, error) {
	raw, ok := m.fields["data"]
	if !ok || isNull(raw) {
		return nil, &apperrors.ErrMalformedResponse{Field: "data", Reason: "is missing"}
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &apperrors.ErrMalformedResponse{Field: "data", Reason: "is not an object"}
	}
	return data, nil
}

func captionsOf(data map[string]json.RawMessage) ([]json.RawMessage, error) {
	raw, ok := data["captions"]
	if !ok || isNull(raw) {
		return nil, &apperrors.ErrMalformedResponse{Field: "data.captions", Reason: "is missing"}
	}
	var captions []json.RawMessage
	if err := json.Unmarshal(raw, &captions); err != nil {
		return nil, &apperrors.ErrMalformedResponse{Field: "data.captions", Reason: "is not a list"}
	}
	return captions, nil
}

// CaptionLanguages returns the lan code of every caption in order.
func (m *DownloadMetadata) CaptionLanguages() ([]string, error) {
	data, err := m.data()
	if err != nil {
		return nil, err
	}
	captions, err := captionsOf(data)
	if err != nil {
		return nil, err
	}
	langs := make([]string, 0, len(captions))
	for i, caption := range captions {
		lang, err := languageOf(caption, i)
		if err != nil {
			return nil, err
		}
		langs = append(langs, lang)
	}
	return langs, nil
}

// FilterCaptions replaces data.captions with the entries whose lan equals
// lang, preserving their order and content. It returns how many captions
// were kept out of the original total. A missing data.captions is an error,
// never an empty list.
func (m *DownloadMetadata) FilterCaptions(lang string) (kept, total int, err error) {
	data, err := m.data()
	if err != nil {
		return 0, 0, err
	}
	captions, err := captionsOf(data)
	if err != nil {
		return 0, 0, err
	}

	filtered := make([]json.RawMessage, 0, len(captions))
	for i, caption := range captions {
		captionLang, err := languageOf(caption, i)
		if err != nil {
			return 0, 0, err
		}
		if captionLang == lang {
			filtered = append(filtered, caption)
		}
	}

	rawCaptions, err := json.Marshal(filtered)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to encode captions: %w", err)
	}
	data["captions"] = rawCaptions

	rawData, err := json.Marshal(data)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to encode data: %w", err)
	}
	m.fields["data"] = rawData

	return len(filtered), len(captions), nil
}

func languageOf(caption json.RawMessage, index int) (string, error) {
	if isNull(caption) {
		return "", nil
	}
	var cl captionLanguage
	if err := json.Unmarshal(caption, &cl); err != nil {
		return "", &apperrors.ErrMalformedResponse{
			Field:  fmt.Sprintf("data.captions[%d]", index),
			Reason: "is not a caption object",
		}
	}
	return cl.Lan, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
