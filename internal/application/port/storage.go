package port

import "context"

// ArtifactStore keeps exported statement files outside the database.
// Paths are relative to the store root.
type ArtifactStore interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	FullPath(relativePath string) string
}
