package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jOptions configures the Neo4j backend.
type Neo4jOptions struct {
	URI      string
	Username string
	Password string
	Database string // empty selects the server default database
}

// Neo4jStorage keeps each slot as a (:Slot {key, value, updatedAt}) node.
type Neo4jStorage struct {
	driver   neo4j.DriverWithContext
	database string
}

// OpenNeo4j creates a driver, verifies connectivity and ensures the key
// uniqueness constraint exists.
func OpenNeo4j(ctx context.Context, opts Neo4jOptions) (*Neo4jStorage, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("neo4j uri is empty")
	}
	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.Username, opts.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("%w: neo4j connectivity: %v", ErrUnavailable, err)
	}

	s := &Neo4jStorage{driver: driver, database: opts.Database}
	if err := s.ensureConstraint(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Neo4jStorage) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func (s *Neo4jStorage) ensureConstraint(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	res, err := session.Run(ctx,
		"CREATE CONSTRAINT tasklist_slot_key IF NOT EXISTS FOR (s:Slot) REQUIRE s.key IS UNIQUE", nil)
	if err != nil {
		return fmt.Errorf("create slot constraint: %w", mapNeo4jError(err))
	}
	if _, err := res.Consume(ctx); err != nil {
		return fmt.Errorf("create slot constraint: %w", mapNeo4jError(err))
	}
	return nil
}

// Get reads the payload stored under key.
func (s *Neo4jStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	value, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (s:Slot {key: $key}) RETURN s.value AS value",
			map[string]any{"key": key},
		)
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			v, _ := res.Record().Get("value")
			return v, nil
		}
		return nil, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("read slot %q: %w", key, mapNeo4jError(err))
	}

	switch v := value.(type) {
	case nil:
		return nil, ErrNotFound
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("read slot %q: unexpected value type %T", key, value)
	}
}

// Set merges the node for key and replaces its value.
func (s *Neo4jStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MERGE (s:Slot {key: $key}) SET s.value = $value, s.updatedAt = $updatedAt",
			map[string]any{
				"key":       key,
				"value":     string(value),
				"updatedAt": time.Now().UTC().Format(time.RFC3339Nano),
			},
		)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("write slot %q: %w", key, mapNeo4jError(err))
	}
	return nil
}

// Remove deletes the node for key.
func (s *Neo4jStorage) Remove(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (s:Slot {key: $key}) DELETE s", map[string]any{"key": key})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("remove slot %q: %w", key, mapNeo4jError(err))
	}
	return nil
}

// Close closes the driver.
func (s *Neo4jStorage) Close() error {
	return s.driver.Close(context.Background())
}

func mapNeo4jError(err error) error {
	if neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
