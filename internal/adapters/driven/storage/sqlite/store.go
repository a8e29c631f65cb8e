package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pablofarias19/sentency-sub002/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driven"
)

// chunkColumns is the column list shared by every chunk SELECT.
const chunkColumns = `chunk_id, expediente, source_file, decision_date, court,
	jurisdiction, subject_matter, topics, reasoning_forms, fallacies,
	doctrine_citations, jurisprudence_citations, text, vector, doctrinal_distance`

// Store is the SQLite-backed metadata store.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.MetadataStore = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sentency/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sentency", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ReplaceDocument atomically replaces a document's chunk rows.
func (s *Store) ReplaceDocument(ctx context.Context, documentID string, chunks []driven.StoredChunk) error {
	if documentID == "" {
		return fmt.Errorf("%w: empty document ID", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("removing prior chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (chunk_id, document_id, expediente, source_file,
			decision_date, court, jurisdiction, subject_matter,
			topics, reasoning_forms, fallacies,
			doctrine_citations, jurisprudence_citations,
			text, vector, doctrinal_distance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			expediente = excluded.expediente,
			source_file = excluded.source_file,
			decision_date = excluded.decision_date,
			court = excluded.court,
			jurisdiction = excluded.jurisdiction,
			subject_matter = excluded.subject_matter,
			topics = excluded.topics,
			reasoning_forms = excluded.reasoning_forms,
			fallacies = excluded.fallacies,
			doctrine_citations = excluded.doctrine_citations,
			jurisprudence_citations = excluded.jurisprudence_citations,
			text = excluded.text,
			vector = excluded.vector,
			doctrinal_distance = excluded.doctrinal_distance
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		r := chunk.Record
		topics, err := marshalList(r.Topics)
		if err != nil {
			return err
		}
		reasoning, err := marshalList(r.ReasoningForms)
		if err != nil {
			return err
		}
		fallacies, err := marshalList(r.Fallacies)
		if err != nil {
			return err
		}
		doctrine, err := marshalList(r.DoctrineCitations)
		if err != nil {
			return err
		}
		jurisprudence, err := marshalList(r.JurisprudenceCitations)
		if err != nil {
			return err
		}

		if _, err := stmt.ExecContext(ctx, r.ChunkID, documentID, r.Expediente, r.SourceFile,
			r.DecisionDate, r.Court, r.Jurisdiction, r.SubjectMatter,
			topics, reasoning, fallacies, doctrine, jurisprudence,
			r.Text, float32SliceToBytes(chunk.Vector), r.DoctrinalDistance); err != nil {
			return fmt.Errorf("saving chunk %s: %w", r.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves one metadata record by chunk ID.
func (s *Store) Get(ctx context.Context, chunkID string) (*domain.MetadataRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE chunk_id = ?", chunkID)

	record, _, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: chunk %s", domain.ErrNotFound, chunkID)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// FetchMany retrieves the records for the given chunk IDs. Missing IDs
// are silently absent from the result.
func (s *Store) FetchMany(ctx context.Context, chunkIDs []string) ([]domain.MetadataRecord, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(chunkIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE chunk_id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var records []domain.MetadataRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		record, _, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return records, nil
}

// UpdateDoctrinalDistance refreshes the cached distance for one chunk.
func (s *Store) UpdateDoctrinalDistance(ctx context.Context, chunkID string, value float64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE chunks SET doctrinal_distance = ? WHERE chunk_id = ?", value, chunkID)
	if err != nil {
		return fmt.Errorf("updating doctrinal distance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: chunk %s", domain.ErrNotFound, chunkID)
	}
	return nil
}

// AllVectors returns every chunk ID with its vector, ordered by chunk ID.
func (s *Store) AllVectors(ctx context.Context) ([]string, [][]float32, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT chunk_id, vector FROM chunks ORDER BY chunk_id")
	if err != nil {
		return nil, nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var ids []string
	var vectors [][]float32
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, nil, fmt.Errorf("scanning vector row: %w", err)
		}
		ids = append(ids, id)
		vectors = append(vectors, bytesToFloat32Slice(blob))
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating vectors: %w", err)
	}
	return ids, vectors, nil
}

// IterateBatches streams all stored chunks in chunk-ID order, batchSize
// rows at a time. Each batch is a separate keyset-paginated query so no
// cursor is held open across fn calls.
func (s *Store) IterateBatches(ctx context.Context, batchSize int, fn func([]driven.StoredChunk) error) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: batch size %d", domain.ErrInvalidInput, batchSize)
	}

	lastID := ""
	for {
		batch, err := s.chunkBatch(ctx, lastID, batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		lastID = batch[len(batch)-1].Record.ChunkID
	}
}

func (s *Store) chunkBatch(ctx context.Context, afterID string, limit int) ([]driven.StoredChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE chunk_id > ? ORDER BY chunk_id LIMIT ?",
		afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chunk batch: %w", err)
	}
	defer rows.Close()

	batch := make([]driven.StoredChunk, 0, limit)
	for rows.Next() {
		record, vector, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		batch = append(batch, driven.StoredChunk{Record: *record, Vector: vector})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk batch: %w", err)
	}
	return batch, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanChunk(sc scanner) (*domain.MetadataRecord, []float32, error) {
	var r domain.MetadataRecord
	var expediente, decisionDate sql.NullString
	var distance sql.NullFloat64
	var topics, reasoning, fallacies, doctrine, jurisprudence string
	var blob []byte

	err := sc.Scan(&r.ChunkID, &expediente, &r.SourceFile, &decisionDate, &r.Court,
		&r.Jurisdiction, &r.SubjectMatter, &topics, &reasoning, &fallacies,
		&doctrine, &jurisprudence, &r.Text, &blob, &distance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, err
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scanning chunk: %w", err)
	}

	if expediente.Valid {
		r.Expediente = &expediente.String
	}
	if decisionDate.Valid {
		r.DecisionDate = &decisionDate.String
	}
	if distance.Valid {
		r.DoctrinalDistance = &distance.Float64
	}

	if r.Topics, err = unmarshalList(topics); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling topics for %s: %w", r.ChunkID, err)
	}
	if r.ReasoningForms, err = unmarshalList(reasoning); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling reasoning forms for %s: %w", r.ChunkID, err)
	}
	if r.Fallacies, err = unmarshalList(fallacies); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling fallacies for %s: %w", r.ChunkID, err)
	}
	if r.DoctrineCitations, err = unmarshalList(doctrine); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling doctrine citations for %s: %w", r.ChunkID, err)
	}
	if r.JurisprudenceCitations, err = unmarshalList(jurisprudence); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling jurisprudence citations for %s: %w", r.ChunkID, err)
	}

	return &r, bytesToFloat32Slice(blob), nil
}

func marshalList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshalling list: %w", err)
	}
	return string(data), nil
}

func unmarshalList(data string) ([]string, error) {
	if data == "" || data == "[]" || data == "null" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	data := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(f))
	}
	return data
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
