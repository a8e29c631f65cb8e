package flat

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driven"
)

// Ensure BaselineStore implements the interface.
var _ driven.BaselineStore = (*BaselineStore)(nil)

// baselineSidecar is the JSON companion of the baseline vector file.
type baselineSidecar struct {
	ModelSignature string `json:"model_signature"`
	Dimension      int    `json:"dimension"`
	CorpusSize     int    `json:"corpus_size"`
	BuildTimestamp string `json:"build_timestamp"`
}

// BaselineStore persists the doctrinal baseline as a single-vector
// binary file plus a JSON sidecar, in the same format as the index.
type BaselineStore struct {
	vecPath string
}

// NewBaselineStore creates a store over the given vector file path.
func NewBaselineStore(vecPath string) *BaselineStore {
	return &BaselineStore{vecPath: vecPath}
}

// Path returns the vector file path.
func (s *BaselineStore) Path() string {
	return s.vecPath
}

// Save writes the baseline with a build-then-swap, so a failed build
// never corrupts the previously active baseline.
func (s *BaselineStore) Save(_ context.Context, b domain.Baseline) error {
	if len(b.Vector) == 0 {
		return fmt.Errorf("%w: empty baseline vector", domain.ErrInvalidInput)
	}

	if err := os.MkdirAll(filepath.Dir(s.vecPath), 0700); err != nil {
		return fmt.Errorf("creating baseline directory: %w", err)
	}

	buf := make([]byte, headerBytes+len(b.Vector)*4)
	binary.LittleEndian.PutUint32(buf[0:], fileMagic)
	binary.LittleEndian.PutUint32(buf[4:], fileVersion)
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(b.Vector)))
	binary.LittleEndian.PutUint32(buf[12:], 1)
	for i, f := range b.Vector {
		binary.LittleEndian.PutUint32(buf[headerBytes+i*4:], math.Float32bits(f))
	}

	scJSON, err := json.Marshal(baselineSidecar{
		ModelSignature: b.ModelSignature,
		Dimension:      len(b.Vector),
		CorpusSize:     b.CorpusSize,
		BuildTimestamp: b.BuiltAt,
	})
	if err != nil {
		return fmt.Errorf("marshalling baseline sidecar: %w", err)
	}

	vecTmp, err := stageFile(s.vecPath, buf)
	if err != nil {
		return fmt.Errorf("writing baseline vector file: %w", err)
	}
	scPath := SidecarPath(s.vecPath)
	scTmp, err := stageFile(scPath, scJSON)
	if err != nil {
		os.Remove(vecTmp)
		return fmt.Errorf("writing baseline sidecar: %w", err)
	}

	if err := os.Rename(vecTmp, s.vecPath); err != nil {
		os.Remove(vecTmp)
		os.Remove(scTmp)
		return fmt.Errorf("swapping baseline vector file: %w", err)
	}
	if err := os.Rename(scTmp, scPath); err != nil {
		return fmt.Errorf("swapping baseline sidecar: %w", err)
	}
	return nil
}

// Load reads the baseline and validates it against its sidecar.
func (s *BaselineStore) Load(_ context.Context) (domain.Baseline, error) {
	var b domain.Baseline

	scJSON, err := os.ReadFile(SidecarPath(s.vecPath))
	if os.IsNotExist(err) {
		return b, fmt.Errorf("%w: no baseline built at %s", domain.ErrNotFound, s.vecPath)
	}
	if err != nil {
		return b, fmt.Errorf("reading baseline sidecar: %w", err)
	}
	var sc baselineSidecar
	if err := json.Unmarshal(scJSON, &sc); err != nil {
		return b, fmt.Errorf("%w: unparseable baseline sidecar: %v", domain.ErrIndexCorruption, err)
	}

	data, err := os.ReadFile(s.vecPath)
	if os.IsNotExist(err) {
		return b, fmt.Errorf("%w: no baseline built at %s", domain.ErrNotFound, s.vecPath)
	}
	if err != nil {
		return b, fmt.Errorf("reading baseline vector file: %w", err)
	}
	if len(data) < headerBytes {
		return b, fmt.Errorf("%w: baseline vector file truncated (%d bytes)", domain.ErrIndexCorruption, len(data))
	}
	if binary.LittleEndian.Uint32(data[0:]) != fileMagic {
		return b, fmt.Errorf("%w: bad magic", domain.ErrIndexCorruption)
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != fileVersion {
		return b, fmt.Errorf("%w: unsupported format version %d", domain.ErrIndexCorruption, v)
	}
	dim := int(binary.LittleEndian.Uint32(data[8:]))
	count := int(binary.LittleEndian.Uint32(data[12:]))

	if count != 1 || dim != sc.Dimension || len(data) != headerBytes+dim*4 {
		return b, fmt.Errorf("%w: baseline file holds %d vectors of dimension %d, sidecar promises dimension %d",
			domain.ErrIndexCorruption, count, dim, sc.Dimension)
	}

	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[headerBytes+i*4:]))
	}

	return domain.Baseline{
		Vector:         vec,
		CorpusSize:     sc.CorpusSize,
		ModelSignature: sc.ModelSignature,
		BuiltAt:        sc.BuildTimestamp,
	}, nil
}
