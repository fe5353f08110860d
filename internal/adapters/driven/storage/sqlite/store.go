package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// DefaultCollection is the collection name used when none is given.
const DefaultCollection = "askdocs"

// ErrNoCollection is returned when appending to or searching a collection
// that has not been created.
var ErrNoCollection = errors.New("collection does not exist")

// Store is a SQLite-backed vector store holding one collection.
type Store struct {
	db         *sql.DB
	path       string
	collection string
}

// NewStore opens (or creates) <dataDir>/index.db and runs pending migrations.
func NewStore(dataDir, collection string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory is required", domain.ErrInvalidInput)
	}
	if collection == "" {
		collection = DefaultCollection
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// Open database with WAL mode for better concurrency. Pragmas in the DSN
	// apply to every pooled connection.
	db, err := sql.Open("sqlite",
		dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:         db,
		path:       dbPath,
		collection: collection,
	}

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

// Collection returns the collection this store reads and writes.
func (s *Store) Collection() string {
	return s.collection
}

// Exists reports whether the collection row is present.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM collections WHERE name = ?", s.collection).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking collection: %w", err)
	}
	return n > 0, nil
}

// Create creates the collection and stores the first batch in one transaction.
// An existing collection with the same name is replaced.
func (s *Store) Create(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if err := checkBatch(chunks, vectors); err != nil {
		return err
	}
	dim := len(vectors[0])

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE collection = ?", s.collection); err != nil {
		return fmt.Errorf("dropping chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", s.collection); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO collections (name, dimensions) VALUES (?, ?)", s.collection, dim); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	if err := s.insert(ctx, tx, dim, chunks, vectors); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing collection: %w", err)
	}
	return nil
}

// Append adds a batch to the existing collection in one transaction.
func (s *Store) Append(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if err := checkBatch(chunks, vectors); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	dim, err := s.dimensions(ctx, tx)
	if err != nil {
		return err
	}
	if err := s.insert(ctx, tx, dim, chunks, vectors); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

func (s *Store) dimensions(ctx context.Context, tx *sql.Tx) (int, error) {
	var dim int
	err := tx.QueryRowContext(ctx,
		"SELECT dimensions FROM collections WHERE name = ?", s.collection).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoCollection
	}
	if err != nil {
		return 0, fmt.Errorf("reading collection: %w", err)
	}
	return dim, nil
}

func (s *Store) insert(ctx context.Context, tx *sql.Tx, dim int, chunks []domain.Chunk, vectors [][]float32) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, collection, position, content, metadata, embedding, norm)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			position = excluded.position,
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			norm = excluded.norm
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		v := vectors[i]
		if len(v) != dim {
			return fmt.Errorf("vector %d has dimension %d, collection has %d", i, len(v), dim)
		}
		meta, err := msgpack.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata for chunk %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, s.collection, c.Position, c.Content, meta, float32SliceToBytes(v), vecmath.Norm(v),
		); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}
	return nil
}

// Search scans the collection and returns the k most similar chunks.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	ok, err := s.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCollection
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, position, content, metadata, embedding, norm
		FROM chunks WHERE collection = ? ORDER BY rowid
	`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	qn := vecmath.Norm(query)
	top := vecmath.NewTopK(k)
	// Only chunks that make the cut are kept in memory.
	kept := make(map[int]domain.Chunk, k)
	for i := 0; rows.Next(); i++ {
		var (
			c         domain.Chunk
			meta, raw []byte
			norm      float64
		)
		if err := rows.Scan(&c.ID, &c.Position, &c.Content, &meta, &raw, &norm); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		score := vecmath.Cosine(query, bytesToFloat32Slice(raw), qn, norm)
		top.Push(i, score)
		if len(meta) > 0 {
			if err := msgpack.Unmarshal(meta, &c.Metadata); err != nil {
				return nil, fmt.Errorf("decoding metadata for chunk %s: %w", c.ID, err)
			}
		}
		kept[i] = c
		if len(kept) > 4*max(k, 1) {
			prune(kept, top.Results())
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	results := top.Results()
	hits := make([]domain.ScoredChunk, len(results))
	for i, r := range results {
		hits[i] = domain.ScoredChunk{Chunk: kept[r.Index], Score: r.Score}
	}
	return hits, nil
}

func prune(kept map[int]domain.Chunk, best []vecmath.Scored) {
	keep := make(map[int]struct{}, len(best))
	for _, b := range best {
		keep[b.Index] = struct{}{}
	}
	for i := range kept {
		if _, ok := keep[i]; !ok {
			delete(kept, i)
		}
	}
}

// Count returns the number of chunks in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE collection = ?", s.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

func checkBatch(chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return errors.New("empty batch")
	}
	return nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
