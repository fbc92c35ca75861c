package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keySchemaVersion = []byte("schema_version")

// SchemaVersion returns the schema version recorded in the index file.
// Zero means the file has never been initialized.
func (s *VectorStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &version)
	})
	return version, err
}

func (s *VectorStore) setSchemaVersion(version int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(version)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
	})
}

// Migrate brings the index file up to CurrentSchemaVersion. A file written by
// a newer version is rejected rather than reinterpreted.
func (s *VectorStore) Migrate() error {
	version, err := s.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("index created by newer version (v%d > v%d); rebuild it with this binary", version, CurrentSchemaVersion)
	}

	for v := version; v < CurrentSchemaVersion; v++ {
		if err := s.runMigration(v, v+1); err != nil {
			return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
		}
	}
	if version == CurrentSchemaVersion {
		return nil
	}
	return s.setSchemaVersion(CurrentSchemaVersion)
}

func (s *VectorStore) runMigration(from, to int) error {
	switch {
	case from == 0 && to == 1:
		// Buckets are created on open.
		return nil
	default:
		return nil
	}
}

// StaleReason reports why the named collection no longer matches the given
// encoder, or "" when it is current.
func (s *VectorStore) StaleReason(name, model string, dim int) (string, error) {
	g, err := s.generation(name)
	if err != nil {
		return "", err
	}
	switch {
	case g.meta.Dimension != dim:
		return fmt.Sprintf("collection %s has %d dimensions, encoder produces %d", name, g.meta.Dimension, dim), nil
	case g.meta.Model != "" && g.meta.Model != model:
		return fmt.Sprintf("collection %s was built with %s, encoder is %s", name, g.meta.Model, model), nil
	}
	return "", nil
}
