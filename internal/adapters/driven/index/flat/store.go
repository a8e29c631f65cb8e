package flat

import (
	"context"
	"fmt"

	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driven"
)

// Ensure ArtifactStore implements the interface.
var _ driven.IndexStore = (*ArtifactStore)(nil)

// ArtifactStore persists index artifacts at a fixed path: the binary
// vector file plus its JSON sidecar.
type ArtifactStore struct {
	vecPath string
}

// NewArtifactStore creates a store over the given vector file path.
func NewArtifactStore(vecPath string) *ArtifactStore {
	return &ArtifactStore{vecPath: vecPath}
}

// Path returns the vector file path.
func (s *ArtifactStore) Path() string {
	return s.vecPath
}

// Save writes the artifact with a build-then-swap.
func (s *ArtifactStore) Save(_ context.Context, art driven.IndexArtifact) error {
	idx, ok := art.Index.(*Index)
	if !ok {
		return fmt.Errorf("flat: cannot persist index of type %T", art.Index)
	}

	sc := Sidecar{
		IDs:            art.IDs,
		ModelSignature: art.ModelSignature,
		Dimension:      idx.Dimensions(),
		ChunkCount:     idx.Len(),
		BuildTimestamp: art.BuiltAt,
	}
	return Save(idx, sc, s.vecPath)
}

// Load reads the artifact, validating index and sidecar against each other.
func (s *ArtifactStore) Load(_ context.Context) (driven.IndexArtifact, error) {
	idx, sc, err := Load(s.vecPath)
	if err != nil {
		return driven.IndexArtifact{}, err
	}
	return driven.IndexArtifact{
		Index:          idx,
		IDs:            sc.IDs,
		ModelSignature: sc.ModelSignature,
		BuiltAt:        sc.BuildTimestamp,
	}, nil
}
