package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalPart(t *testing.T) {
	tests := []struct {
		name     string
		jsonData string
		expected Part
	}{
		{
			name:     "text part",
			jsonData: `{"kind": "text", "text": "Hello, world!", "metadata": {"key": "value"}}`,
			expected: Part{
				Kind:     PartKindText,
				Text:     "Hello, world!",
				Metadata: map[string]any{"key": "value"},
			},
		},
		{
			name:     "data part",
			jsonData: `{"kind": "data", "data": {"result": "success"}}`,
			expected: Part{
				Kind: PartKindData,
				Data: map[string]any{"result": "success"},
			},
		},
		{
			name:     "file part with inline bytes",
			jsonData: `{"kind": "file", "file": {"name": "test.txt", "mimeType": "text/plain", "bytes": "dGVzdA=="}}`,
			expected: Part{
				Kind: PartKindFile,
				File: &FileContent{
					Name:     StringPtr("test.txt"),
					MimeType: StringPtr("text/plain"),
					Bytes:    StringPtr("dGVzdA=="),
				},
			},
		},
		{
			name:     "file part with uri",
			jsonData: `{"kind": "file", "file": {"uri": "https://example.com/report.pdf"}}`,
			expected: Part{
				Kind: PartKindFile,
				File: &FileContent{URI: StringPtr("https://example.com/report.pdf")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var part Part
			require.NoError(t, json.Unmarshal([]byte(tt.jsonData), &part))
			assert.Equal(t, tt.expected, part)
		})
	}
}

func TestUnmarshalPartInvalid(t *testing.T) {
	tests := []struct {
		name     string
		jsonData string
	}{
		{name: "unknown kind", jsonData: `{"kind": "video", "text": "x"}`},
		{name: "missing kind", jsonData: `{"text": "x"}`},
		{name: "file part without content", jsonData: `{"kind": "file"}`},
		{name: "data part without content", jsonData: `{"kind": "data"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var part Part
			assert.Error(t, json.Unmarshal([]byte(tt.jsonData), &part))
		})
	}
}

func TestPartRoundTrip(t *testing.T) {
	original := NewDataPart(map[string]any{"answer": "42"})

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Part
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestUnmarshalParts(t *testing.T) {
	parts, err := UnmarshalParts([]byte(`[{"kind": "text", "text": "a"}, {"kind": "data", "data": {"b": true}}]`))
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "a", parts[0].Text)
	assert.Equal(t, map[string]any{"b": true}, parts[1].Data)

	_, err = UnmarshalParts([]byte(`[{"kind": "bogus"}]`))
	assert.ErrorContains(t, err, "index 0")
}

func TestPartKindIsValid(t *testing.T) {
	assert.True(t, PartKindText.IsValid())
	assert.True(t, PartKindFile.IsValid())
	assert.True(t, PartKindData.IsValid())
	assert.False(t, PartKind("video").IsValid())
}
