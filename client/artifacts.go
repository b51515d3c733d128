package client

import (
	"encoding/base64"
	"fmt"

	types "github.com/inference-gateway/a2a/types"
)

// ArtifactByID returns the artifact with the given id from a task.
func ArtifactByID(task *types.Task, artifactID string) (*types.Artifact, bool) {
	if task == nil {
		return nil, false
	}
	for i := range task.Artifacts {
		if task.Artifacts[i].ArtifactID == artifactID {
			return &task.Artifacts[i], true
		}
	}
	return nil, false
}

// ArtifactsByPartKind returns the artifacts of a task that contain at
// least one part of the given kind.
func ArtifactsByPartKind(task *types.Task, kind types.PartKind) []types.Artifact {
	var matched []types.Artifact
	if task == nil {
		return matched
	}
	for _, artifact := range task.Artifacts {
		for _, part := range artifact.Parts {
			if part.Kind == kind {
				matched = append(matched, artifact)
				break
			}
		}
	}
	return matched
}

// ArtifactText concatenates the text parts of an artifact.
func ArtifactText(artifact *types.Artifact) []string {
	var texts []string
	if artifact == nil {
		return texts
	}
	for _, part := range artifact.Parts {
		if part.Kind == types.PartKindText {
			texts = append(texts, part.Text)
		}
	}
	return texts
}

// ArtifactData collects the structured data parts of an artifact.
func ArtifactData(artifact *types.Artifact) []map[string]any {
	var data []map[string]any
	if artifact == nil {
		return data
	}
	for _, part := range artifact.Parts {
		if part.Kind == types.PartKindData {
			data = append(data, part.Data)
		}
	}
	return data
}

// ArtifactFile is a file extracted from an artifact, either decoded
// inline bytes or a URI reference.
type ArtifactFile struct {
	Name     *string
	MimeType *string
	Bytes    []byte
	URI      *string
}

// Inline reports whether the file carries decoded bytes rather than a
// URI reference.
func (f *ArtifactFile) Inline() bool {
	return len(f.Bytes) > 0
}

// ArtifactFiles extracts the file parts of an artifact, decoding inline
// base64 content.
func ArtifactFiles(artifact *types.Artifact) ([]ArtifactFile, error) {
	var files []ArtifactFile
	if artifact == nil {
		return files, nil
	}
	for _, part := range artifact.Parts {
		if part.Kind != types.PartKindFile || part.File == nil {
			continue
		}
		file := ArtifactFile{
			Name:     part.File.Name,
			MimeType: part.File.MimeType,
			URI:      part.File.URI,
		}
		if part.File.Bytes != nil {
			decoded, err := base64.StdEncoding.DecodeString(*part.File.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to decode file content: %w", err)
			}
			file.Bytes = decoded
		}
		files = append(files, file)
	}
	return files, nil
}
