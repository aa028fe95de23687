package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zumu-ai/knowledgedb/domain"
	"github.com/zumu-ai/knowledgedb/pkg/database"
)

const defaultCollectionColor = "#000000"

// CollectionRepo owns the collections shard (collections and their resource
// associations). Association rows reference the resources shard; no
// existence check is made when writing them — the caller creates the
// resource first and the linkage is eventually consistent.
type CollectionRepo struct {
	base
}

// NewCollectionRepo binds a collection repository to the collections shard.
func NewCollectionRepo(provider *database.Provider, logger *slog.Logger) (*CollectionRepo, error) {
	shard, err := provider.Shard(database.FamilyCollections)
	if err != nil {
		return nil, err
	}
	return &CollectionRepo{base: newBase(shard, logger)}, nil
}

// CreateCollection commits a new collection. An empty name gets a generated
// unique placeholder.
func (r *CollectionRepo) CreateCollection(ctx context.Context, organizationID uuid.UUID, name string) (collection *domain.Collection, err error) {
	ctx, done := r.instrument(ctx, "create_collection")
	defer func() { done(err) }()

	if name == "" {
		name = fmt.Sprintf("Collection %s", uuid.New())
	}
	collection = &domain.Collection{
		OrganizationID: organizationID,
		CollectionID:   uuid.New(),
		Name:           name,
		ColorCode:      defaultCollectionColor,
		CreatedAt:      now(),
	}

	query := r.shard.Rebind(`
		INSERT INTO collections (organization_id, collection_id, name, color_code, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	err = r.commit(ctx, "create_collection", func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, query,
			collection.OrganizationID, collection.CollectionID, collection.Name,
			collection.ColorCode, collection.Description, collection.CreatedAt)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

// CreateCollectionResource commits an association row linking a resource
// into a collection.
func (r *CollectionRepo) CreateCollectionResource(ctx context.Context, collectionID, organizationID, resourceID uuid.UUID) (assoc *domain.CollectionResource, err error) {
	ctx, done := r.instrument(ctx, "create_collection_resource")
	defer func() { done(err) }()

	assoc = &domain.CollectionResource{
		OrganizationID: organizationID,
		CollectionID:   collectionID,
		ResourceID:     resourceID,
		CreatedAt:      now(),
	}
	query := r.shard.Rebind(`
		INSERT INTO collection_resources (organization_id, collection_id, resource_id, created_at)
		VALUES (?, ?, ?, ?)
	`)
	err = r.commit(ctx, "create_collection_resource", func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, query,
			assoc.OrganizationID, assoc.CollectionID, assoc.ResourceID, assoc.CreatedAt)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return assoc, nil
}

// GetCollectionResources returns all association rows for a collection,
// unordered.
func (r *CollectionRepo) GetCollectionResources(ctx context.Context, collectionID uuid.UUID) (assocs []domain.CollectionResource, err error) {
	ctx, done := r.instrument(ctx, "get_collection_resources")
	defer func() { done(err) }()

	query := r.shard.Rebind(`
		SELECT organization_id, collection_id, resource_id, created_at, updated_at
		FROM collection_resources
		WHERE collection_id = ?
	`)
	rows, err := r.shard.DB().QueryContext(ctx, query, collectionID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get_collection_resources", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.CollectionResource
		if err = rows.Scan(&a.OrganizationID, &a.CollectionID, &a.ResourceID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, &domain.PersistenceError{Op: "get_collection_resources", Err: err}
		}
		assocs = append(assocs, a)
	}
	if err = rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "get_collection_resources", Err: err}
	}
	return assocs, nil
}
