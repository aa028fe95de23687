package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zumu-ai/knowledgedb/domain"
	"github.com/zumu-ai/knowledgedb/pkg/database"
	"github.com/zumu-ai/knowledgedb/pkg/metrics"
)

// ResourceRepo owns the resources shard and the resource lifecycle:
// pending -> available | failed. The concrete entity behind a resource lives
// in another family's shard, keyed by SourceEntityID.
type ResourceRepo struct {
	base
	collections *CollectionRepo
}

// NewResourceRepo binds a resource repository to the resources shard.
// collections is used to resolve collection membership across shards.
func NewResourceRepo(provider *database.Provider, collections *CollectionRepo, logger *slog.Logger) (*ResourceRepo, error) {
	shard, err := provider.Shard(database.FamilyResources)
	if err != nil {
		return nil, err
	}
	return &ResourceRepo{base: newBase(shard, logger), collections: collections}, nil
}

const resourceColumns = `organization_id, resource_id, source_entity_type, source_entity_id, status, name, ai_summary, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (*domain.Resource, error) {
	res := &domain.Resource{}
	err := row.Scan(&res.OrganizationID, &res.ResourceID, &res.SourceEntityType, &res.SourceEntityID,
		&res.Status, &res.Name, &res.AISummary, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetResource retrieves a resource by id.
func (r *ResourceRepo) GetResource(ctx context.Context, resourceID uuid.UUID) (res *domain.Resource, err error) {
	ctx, done := r.instrument(ctx, "get_resource")
	defer func() { done(err) }()

	return r.getResource(ctx, resourceID)
}

func (r *ResourceRepo) getResource(ctx context.Context, resourceID uuid.UUID) (*domain.Resource, error) {
	query := r.shard.Rebind(`SELECT ` + resourceColumns + ` FROM resources WHERE resource_id = ?`)
	res, err := scanResource(r.shard.DB().QueryRowContext(ctx, query, resourceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "resource", ID: resourceID}
		}
		return nil, &domain.PersistenceError{Op: "get_resource", Err: err}
	}
	return res, nil
}

// CreateResource commits a new resource in the pending state. The caller
// pre-allocates sourceEntityID so the concrete entity can be created with
// the same identity in its own shard afterwards.
func (r *ResourceRepo) CreateResource(ctx context.Context, organizationID uuid.UUID, sourceEntityType domain.ResourceType, sourceEntityID uuid.UUID) (res *domain.Resource, err error) {
	ctx, done := r.instrument(ctx, "create_resource")
	defer func() { done(err) }()

	res = &domain.Resource{
		OrganizationID:   organizationID,
		ResourceID:       uuid.New(),
		SourceEntityType: sourceEntityType,
		SourceEntityID:   sourceEntityID,
		Status:           domain.ResourceStatusPending,
		AISummary:        sql.NullString{String: "", Valid: true},
		CreatedAt:        now(),
	}
	query := r.shard.Rebind(`
		INSERT INTO resources (organization_id, resource_id, source_entity_type, source_entity_id, status, name, ai_summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	err = r.commit(ctx, "create_resource", func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, query,
			res.OrganizationID, res.ResourceID, string(res.SourceEntityType), res.SourceEntityID,
			string(res.Status), res.Name, res.AISummary, res.CreatedAt)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateResourceStatus rewrites a resource's lifecycle status inside one
// shard transaction.
func (r *ResourceRepo) UpdateResourceStatus(ctx context.Context, resourceID uuid.UUID, status domain.ResourceStatus) (res *domain.Resource, err error) {
	ctx, done := r.instrument(ctx, "update_resource_status")
	defer func() { done(err) }()

	res, err = r.updateResource(ctx, "update_resource_status", resourceID, func(res *domain.Resource) {
		res.Status = status
	})
	return res, err
}

// UpdateResourceAISummary rewrites a resource's AI-generated summary inside
// one shard transaction.
func (r *ResourceRepo) UpdateResourceAISummary(ctx context.Context, resourceID uuid.UUID, aiSummary string) (res *domain.Resource, err error) {
	ctx, done := r.instrument(ctx, "update_resource_ai_summary")
	defer func() { done(err) }()

	res, err = r.updateResource(ctx, "update_resource_ai_summary", resourceID, func(res *domain.Resource) {
		res.AISummary = sql.NullString{String: aiSummary, Valid: true}
	})
	return res, err
}

// updateResource loads the row, applies mutate and writes it back, all in
// one transaction on the resources shard. Missing rows are a NotFoundError,
// not a null dereference.
func (r *ResourceRepo) updateResource(ctx context.Context, operation string, resourceID uuid.UUID, mutate func(*domain.Resource)) (*domain.Resource, error) {
	var res *domain.Resource
	err := r.commit(ctx, operation, func(tx *sql.Tx) error {
		selectQuery := r.shard.Rebind(`SELECT ` + resourceColumns + ` FROM resources WHERE resource_id = ?`)
		loaded, scanErr := scanResource(tx.QueryRowContext(ctx, selectQuery, resourceID))
		if scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return &domain.NotFoundError{Entity: "resource", ID: resourceID}
			}
			return scanErr
		}

		mutate(loaded)
		loaded.UpdatedAt = sql.NullTime{Time: now(), Valid: true}

		updateQuery := r.shard.Rebind(`
			UPDATE resources
			SET status = ?, name = ?, ai_summary = ?, updated_at = ?
			WHERE resource_id = ?
		`)
		if _, execErr := tx.ExecContext(ctx, updateQuery,
			string(loaded.Status), loaded.Name, loaded.AISummary, loaded.UpdatedAt, resourceID); execErr != nil {
			return execErr
		}
		res = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetResourcesByCollectionID resolves every resource linked into a
// collection: association rows come from the collections shard, the
// resources themselves from this one. An association whose resource has not
// (yet) committed is skipped with a warning — cross-shard linkage is
// eventually consistent.
func (r *ResourceRepo) GetResourcesByCollectionID(ctx context.Context, collectionID uuid.UUID) (resources []*domain.Resource, err error) {
	ctx, done := r.instrument(ctx, "get_resources_by_collection_id")
	defer func() { done(err) }()

	assocs, err := r.collections.GetCollectionResources(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	for _, assoc := range assocs {
		res, getErr := r.getResource(ctx, assoc.ResourceID)
		if getErr != nil {
			var notFound *domain.NotFoundError
			if errors.As(getErr, &notFound) {
				warn := &domain.ConsistencyWarning{From: "collection_resources", Entity: "resource", ID: assoc.ResourceID}
				metrics.ObserveCrossShardMiss(warn.From, warn.Entity)
				r.logger.Warn("skipping dangling collection resource",
					slog.String("collection_id", collectionID.String()),
					slog.String("warning", warn.Error()),
				)
				continue
			}
			return nil, getErr
		}
		resources = append(resources, res)
	}
	return resources, nil
}
