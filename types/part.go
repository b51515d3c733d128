package types

import (
	"encoding/json"
	"fmt"
)

// PartKind discriminates the members of the Part union.
type PartKind string

// PartKind enum values for the three part types defined by the protocol.
const (
	PartKindText PartKind = "text"
	PartKindFile PartKind = "file"
	PartKindData PartKind = "data"
)

// String returns the string representation of the PartKind.
func (k PartKind) String() string {
	return string(k)
}

// IsValid checks if the PartKind is one of the supported values.
func (k PartKind) IsValid() bool {
	switch k {
	case PartKindText, PartKindFile, PartKindData:
		return true
	default:
		return false
	}
}

// FileContent carries file data either inline (base64 bytes) or by URI.
// Exactly one of Bytes and URI should be set.
type FileContent struct {
	Name     *string `json:"name,omitempty"`
	MimeType *string `json:"mimeType,omitempty"`
	Bytes    *string `json:"bytes,omitempty"`
	URI      *string `json:"uri,omitempty"`
}

// Part is a tagged union over the content kinds a message or artifact can
// carry: plain text, a file reference, or a structured data blob.
type Part struct {
	Kind     PartKind       `json:"kind"`
	Text     string         `json:"text,omitempty"`
	File     *FileContent   `json:"file,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// partAlias avoids recursing into Part.UnmarshalJSON.
type partAlias Part

// UnmarshalJSON decodes a Part and validates its kind discriminant and the
// presence of the field that kind requires.
func (p *Part) UnmarshalJSON(data []byte) error {
	var alias partAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	decoded := Part(alias)
	switch decoded.Kind {
	case PartKindText:
	case PartKindFile:
		if decoded.File == nil {
			return fmt.Errorf("file part missing file content")
		}
	case PartKindData:
		if decoded.Data == nil {
			return fmt.Errorf("data part missing data content")
		}
	default:
		return fmt.Errorf("unknown part kind: %q", decoded.Kind)
	}
	*p = decoded
	return nil
}

// NewTextPart creates a text part.
func NewTextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// NewFilePart creates a file part.
func NewFilePart(file *FileContent) Part {
	return Part{Kind: PartKindFile, File: file}
}

// NewDataPart creates a structured data part.
func NewDataPart(data map[string]any) Part {
	return Part{Kind: PartKindData, Data: data}
}

// UnmarshalParts decodes a JSON array of parts.
func UnmarshalParts(data []byte) ([]Part, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal raw parts: %w", err)
	}

	parts := make([]Part, len(raw))
	for i, rawPart := range raw {
		if err := json.Unmarshal(rawPart, &parts[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal part at index %d: %w", i, err)
		}
	}
	return parts, nil
}
