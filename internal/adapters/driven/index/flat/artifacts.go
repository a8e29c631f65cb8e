package flat

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

// Binary layout of the vector file: magic, format version, dimension,
// vector count (all uint32 little-endian) followed by count*dimension
// float32 values.
const (
	fileMagic   = 0x53564958 // "SVIX"
	fileVersion = 1
	headerBytes = 16
)

// Sidecar is the authoritative description of an index artifact. It is
// persisted next to the vector file and must be loaded in lockstep: a
// count or dimension mismatch between the two is fatal at load time.
type Sidecar struct {
	// IDs maps ordinal to chunk ID: IDs[i] is the i-th vector added.
	IDs []string `json:"ids"`

	// ModelSignature is the embedding/fusion configuration the vectors
	// were produced under. Checked against the query-time embedder.
	ModelSignature string `json:"model_signature"`

	// Dimension of every vector in the file.
	Dimension int `json:"dimension"`

	// ChunkCount is the number of vectors in the file.
	ChunkCount int `json:"chunk_count"`

	// BuildTimestamp is the RFC 3339 build time.
	BuildTimestamp string `json:"build_timestamp"`
}

// SidecarPath derives the sidecar file path from the vector file path
// by swapping the extension for .json.
func SidecarPath(vecPath string) string {
	return strings.TrimSuffix(vecPath, filepath.Ext(vecPath)) + ".json"
}

// Save persists the index and its sidecar using a build-then-swap
// pattern: both files are written to temporary paths and renamed into
// place, so a concurrent reader never observes a partially written
// index. The sidecar must describe the index being saved.
func Save(idx *Index, sc Sidecar, vecPath string) error {
	dim, vectors := idx.snapshot()
	if sc.ChunkCount != len(vectors) || len(sc.IDs) != len(vectors) {
		return fmt.Errorf("%w: sidecar lists %d ids for %d vectors", domain.ErrIndexCorruption, len(sc.IDs), len(vectors))
	}
	if sc.Dimension != dim {
		return fmt.Errorf("%w: sidecar dimension %d, index dimension %d", domain.ErrIndexCorruption, sc.Dimension, dim)
	}

	if err := os.MkdirAll(filepath.Dir(vecPath), 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	buf := make([]byte, headerBytes+len(vectors)*dim*4)
	binary.LittleEndian.PutUint32(buf[0:], fileMagic)
	binary.LittleEndian.PutUint32(buf[4:], fileVersion)
	binary.LittleEndian.PutUint32(buf[8:], uint32(dim))
	binary.LittleEndian.PutUint32(buf[12:], uint32(len(vectors)))
	off := headerBytes
	for _, v := range vectors {
		for _, f := range v {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
			off += 4
		}
	}

	scJSON, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshalling sidecar: %w", err)
	}

	vecTmp, err := stageFile(vecPath, buf)
	if err != nil {
		return fmt.Errorf("writing vector file: %w", err)
	}
	scPath := SidecarPath(vecPath)
	scTmp, err := stageFile(scPath, scJSON)
	if err != nil {
		os.Remove(vecTmp)
		return fmt.Errorf("writing sidecar: %w", err)
	}

	if err := os.Rename(vecTmp, vecPath); err != nil {
		os.Remove(vecTmp)
		os.Remove(scTmp)
		return fmt.Errorf("swapping vector file: %w", err)
	}
	if err := os.Rename(scTmp, scPath); err != nil {
		os.Remove(scTmp)
		return fmt.Errorf("swapping sidecar: %w", err)
	}
	return nil
}

// stageFile writes data to a uniquely named temporary file next to
// path, ready to be renamed into place. Unique names keep concurrent
// savers from clobbering each other's staged files.
func stageFile(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// Load reads an index and its sidecar, validating them against each
// other. Any disagreement (count, dimension, truncation, bad magic)
// wraps domain.ErrIndexCorruption; loading never silently falls back to
// a stale or empty index.
func Load(vecPath string) (*Index, Sidecar, error) {
	var sc Sidecar

	scJSON, err := os.ReadFile(SidecarPath(vecPath))
	if err != nil {
		return nil, sc, fmt.Errorf("reading sidecar: %w", err)
	}
	if err := json.Unmarshal(scJSON, &sc); err != nil {
		return nil, sc, fmt.Errorf("%w: unparseable sidecar: %v", domain.ErrIndexCorruption, err)
	}

	data, err := os.ReadFile(vecPath)
	if err != nil {
		return nil, sc, fmt.Errorf("reading vector file: %w", err)
	}
	if len(data) < headerBytes {
		return nil, sc, fmt.Errorf("%w: vector file truncated (%d bytes)", domain.ErrIndexCorruption, len(data))
	}
	if binary.LittleEndian.Uint32(data[0:]) != fileMagic {
		return nil, sc, fmt.Errorf("%w: bad magic", domain.ErrIndexCorruption)
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != fileVersion {
		return nil, sc, fmt.Errorf("%w: unsupported format version %d", domain.ErrIndexCorruption, v)
	}
	dim := int(binary.LittleEndian.Uint32(data[8:]))
	count := int(binary.LittleEndian.Uint32(data[12:]))

	if len(data) != headerBytes+count*dim*4 {
		return nil, sc, fmt.Errorf("%w: vector file has %d bytes, header promises %d vectors of dimension %d",
			domain.ErrIndexCorruption, len(data), count, dim)
	}
	if sc.ChunkCount != count || len(sc.IDs) != count {
		return nil, sc, fmt.Errorf("%w: sidecar lists %d chunks (%d ids), vector file holds %d",
			domain.ErrIndexCorruption, sc.ChunkCount, len(sc.IDs), count)
	}
	if sc.Dimension != dim {
		return nil, sc, fmt.Errorf("%w: sidecar dimension %d, vector file dimension %d", domain.ErrIndexCorruption, sc.Dimension, dim)
	}

	vectors := make([][]float32, count)
	off := headerBytes
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		vectors[i] = v
	}

	idx := &Index{dim: dim, vectors: vectors}
	if count == 0 {
		idx.dim = sc.Dimension
	}
	return idx, sc, nil
}
