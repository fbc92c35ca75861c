package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"careerpath/internal/domain"
	"careerpath/internal/port"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrCollectionExists   = errors.New("collection already exists")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
)

var (
	bucketCollections = []byte("collections")
	bucketMeta        = []byte("meta")
)

const generationPrefix = "gen:"

// VectorStore is a bbolt-backed collection store with brute-force cosine search.
// Each collection name is an alias pointing at a generation bucket; Rebuild
// fills a fresh generation and re-points the alias in one transaction.
type VectorStore struct {
	db *bbolt.DB

	// writeMu serializes all writers so a rebuild never interleaves with an upsert.
	writeMu sync.Mutex

	mu     sync.RWMutex
	loaded map[string]*generation
}

type collectionMeta struct {
	Generation string    `json:"generation"`
	Dimension  int       `json:"dimension"`
	Model      string    `json:"model"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type storedDoc struct {
	Text   string    `json:"t"`
	Vector []float32 `json:"v"`
}

type generation struct {
	meta collectionMeta
	docs map[string]storedDoc
}

// Open opens (or creates) the index file at path. A file locked by another
// process yields port.ErrStoreUnavailable after one second.
func Open(path string) (*VectorStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: create index dir: %v", port.ErrStoreUnavailable, err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open index %s: %v", port.ErrStoreUnavailable, path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketCollections, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &VectorStore{
		db:     db,
		loaded: make(map[string]*generation),
	}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *VectorStore) Close() error {
	return s.db.Close()
}

func generationBucket(id string) []byte {
	return []byte(generationPrefix + id)
}

func readMeta(tx *bbolt.Tx, name string) (collectionMeta, bool, error) {
	var meta collectionMeta
	data := tx.Bucket(bucketCollections).Get([]byte(name))
	if data == nil {
		return meta, false, nil
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, false, fmt.Errorf("corrupt metadata for collection %s: %w", name, err)
	}
	return meta, true, nil
}

func writeMeta(tx *bbolt.Tx, name string, meta collectionMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketCollections).Put([]byte(name), data)
}

func putDocs(b *bbolt.Bucket, dim int, docs []domain.Document) error {
	for _, doc := range docs {
		if len(doc.Vector) != dim {
			return fmt.Errorf("%w: document %q has %d dimensions, collection has %d", ErrDimensionMismatch, doc.ID, len(doc.Vector), dim)
		}
		data, err := json.Marshal(storedDoc{Text: doc.Text, Vector: doc.Vector})
		if err != nil {
			return err
		}
		if err := b.Put([]byte(doc.ID), data); err != nil {
			return err
		}
	}
	return nil
}

// Create makes an empty collection.
func (s *VectorStore) Create(name string, dim int, model string) (*Collection, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d for collection %s", dim, name)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	meta := collectionMeta{
		Generation: uuid.NewString(),
		Dimension:  dim,
		Model:      model,
		UpdatedAt:  time.Now().UTC(),
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		_, exists, err := readMeta(tx, name)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrCollectionExists, name)
		}
		if _, err := tx.CreateBucket(generationBucket(meta.Generation)); err != nil {
			return err
		}
		return writeMeta(tx, name, meta)
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.loaded[name] = &generation{meta: meta, docs: make(map[string]storedDoc)}
	s.mu.Unlock()

	return &Collection{store: s, name: name}, nil
}

// Get returns a handle to an existing collection.
func (s *VectorStore) Get(name string) (*Collection, error) {
	if _, err := s.generation(name); err != nil {
		return nil, err
	}
	return &Collection{store: s, name: name}, nil
}

// generation returns the loaded generation for name, reading it from disk on
// first use.
func (s *VectorStore) generation(name string) (*generation, error) {
	s.mu.RLock()
	g, ok := s.loaded[name]
	s.mu.RUnlock()
	if ok {
		return g, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.loaded[name]; ok {
		return g, nil
	}

	g = &generation{docs: make(map[string]storedDoc)}
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta, exists, err := readMeta(tx, name)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
		}
		g.meta = meta

		b := tx.Bucket(generationBucket(meta.Generation))
		if b == nil {
			return fmt.Errorf("%w: %s (generation %s missing)", ErrCollectionNotFound, name, meta.Generation)
		}
		return b.ForEach(func(k, v []byte) error {
			var doc storedDoc
			if err := json.Unmarshal(v, &doc); err != nil {
				return nil // Skip corrupted entries
			}
			g.docs[string(k)] = doc
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.loaded[name] = g
	return g, nil
}

// Drop removes a collection and its documents.
func (s *VectorStore) Drop(name string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		meta, exists, err := readMeta(tx, name)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
		}
		if err := tx.DeleteBucket(generationBucket(meta.Generation)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		return tx.Bucket(bucketCollections).Delete([]byte(name))
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.loaded, name)
	s.mu.Unlock()
	return nil
}

// List returns collection names in lexical order.
func (s *VectorStore) List() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCollections).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// Rebuild replaces the contents of a collection, creating it if needed.
// Readers observe either the previous generation or the new one.
func (s *VectorStore) Rebuild(ctx context.Context, name string, dim int, model string, docs []domain.Document) (*Collection, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d for collection %s", dim, name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	meta := collectionMeta{
		Generation: uuid.NewString(),
		Dimension:  dim,
		Model:      model,
		UpdatedAt:  time.Now().UTC(),
	}
	bucket := generationBucket(meta.Generation)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucket(bucket)
		if err != nil {
			return err
		}
		return putDocs(b, dim, docs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write generation for %s: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		s.dropGeneration(bucket)
		return nil, err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		old, exists, err := readMeta(tx, name)
		if err != nil {
			return err
		}
		if err := writeMeta(tx, name, meta); err != nil {
			return err
		}
		if exists {
			if err := tx.DeleteBucket(generationBucket(old.Generation)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.dropGeneration(bucket)
		return nil, fmt.Errorf("failed to swap collection %s: %w", name, err)
	}

	g := &generation{meta: meta, docs: make(map[string]storedDoc, len(docs))}
	for _, doc := range docs {
		g.docs[doc.ID] = storedDoc{Text: doc.Text, Vector: doc.Vector}
	}

	s.mu.Lock()
	s.loaded[name] = g
	s.mu.Unlock()

	return &Collection{store: s, name: name}, nil
}

func (s *VectorStore) dropGeneration(bucket []byte) {
	_ = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket(bucket)
	})
}

// Collection is a handle to a named collection. It always reads the
// collection's current generation.
type Collection struct {
	store *VectorStore
	name  string
}

func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) Dimension() int {
	g, err := c.store.generation(c.name)
	if err != nil {
		return 0
	}
	return g.meta.Dimension
}

func (c *Collection) Model() string {
	g, err := c.store.generation(c.name)
	if err != nil {
		return ""
	}
	return g.meta.Model
}

// Count returns the number of documents in the collection.
func (c *Collection) Count() (int, error) {
	g, err := c.store.generation(c.name)
	if err != nil {
		return 0, err
	}
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return len(g.docs), nil
}

// Upsert adds or replaces documents by id. The last write of an id wins.
func (c *Collection) Upsert(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s := c.store
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	g, err := s.generation(c.name)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		meta, exists, err := readMeta(tx, c.name)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, c.name)
		}
		b := tx.Bucket(generationBucket(meta.Generation))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, c.name)
		}
		if err := putDocs(b, meta.Dimension, docs); err != nil {
			return err
		}
		meta.UpdatedAt = time.Now().UTC()
		return writeMeta(tx, c.name, meta)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	for _, doc := range docs {
		g.docs[doc.ID] = storedDoc{Text: doc.Text, Vector: doc.Vector}
	}
	s.mu.Unlock()
	return nil
}

// Query returns up to k documents nearest to vector, ordered by ascending
// cosine distance. Equal distances are ordered by id.
func (c *Collection) Query(ctx context.Context, vector []float32, k int) ([]domain.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, err := c.store.generation(c.name)
	if err != nil {
		return nil, err
	}
	if len(vector) != g.meta.Dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s has %d", ErrDimensionMismatch, len(vector), c.name, g.meta.Dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	c.store.mu.RLock()
	hits := make([]domain.Hit, 0, len(g.docs))
	for id, doc := range g.docs {
		hits = append(hits, domain.Hit{
			ID:       id,
			Document: doc.Text,
			Distance: 1 - cosineSimilarity(vector, doc.Vector),
		})
	}
	c.store.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
