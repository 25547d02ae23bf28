package game

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

const schemaFileName = "ecosystem_schema.json"

// SchemaPath returns the location of the cached ecosystem schema inside
// the tcli home directory.
func SchemaPath(homeDir string) string {
	return filepath.Join(homeDir, schemaFileName)
}

// CachedSchema loads the ecosystem schema from the local cache. It
// returns nil without error when no cache exists yet.
func CachedSchema(homeDir string) (*ts.EcosystemSchema, error) {
	contents, err := os.ReadFile(SchemaPath(homeDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading cached ecosystem schema")
	}

	var schema ts.EcosystemSchema
	if err := json.Unmarshal(contents, &schema); err != nil {
		return nil, errors.Wrap(err, "parsing cached ecosystem schema")
	}
	return &schema, nil
}

// SyncSchema fetches the latest ecosystem schema and replaces the local
// cache with it.
func SyncSchema(ctx context.Context, client *ts.Client, homeDir string) (*ts.EcosystemSchema, error) {
	schema, err := client.FetchEcosystemSchema(ctx)
	if err != nil {
		return nil, err
	}

	out, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.Wrap(err, "encoding ecosystem schema")
	}
	if err := os.WriteFile(SchemaPath(homeDir), out, 0o644); err != nil {
		return nil, errors.Wrap(err, "caching ecosystem schema")
	}
	return schema, nil
}

// Schema returns the cached ecosystem schema, fetching it first when no
// cache exists.
func Schema(ctx context.Context, client *ts.Client, homeDir string) (*ts.EcosystemSchema, error) {
	schema, err := CachedSchema(homeDir)
	if err != nil || schema != nil {
		return schema, err
	}
	return SyncSchema(ctx, client, homeDir)
}

// RemoveSchema deletes the cached schema, forcing the next Schema call to
// fetch a fresh copy.
func RemoveSchema(homeDir string) error {
	err := os.Remove(SchemaPath(homeDir))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing cached ecosystem schema")
	}
	return nil
}
