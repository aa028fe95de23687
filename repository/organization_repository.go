package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zumu-ai/knowledgedb/domain"
	"github.com/zumu-ai/knowledgedb/pkg/cache"
	"github.com/zumu-ai/knowledgedb/pkg/database"
	"github.com/zumu-ai/knowledgedb/pkg/redis"
)

// Sentinel name of the organization that owns AI-produced rows.
const (
	defaultOrganizationName = "Default AI service org 2"

	defaultOrganizationCacheKey = "default-organization"
	defaultOrganizationLockKey  = "knowledgedb:lock:default-organization"
)

// OrganizationRepo owns the organizations shard (organizations and
// organization membership rows). The default-organization protocol composes
// with the users shard through UserRepo.
type OrganizationRepo struct {
	base
	users     *UserRepo
	locker    *redis.Client
	sentinels *cache.Cache[*domain.Organization]
}

// NewOrganizationRepo binds an organization repository to the organizations
// shard. users resolves the default user during the singleton protocol;
// locker is optional, as in NewUserRepo.
func NewOrganizationRepo(provider *database.Provider, users *UserRepo, logger *slog.Logger, locker *redis.Client) (*OrganizationRepo, error) {
	shard, err := provider.Shard(database.FamilyOrganizations)
	if err != nil {
		return nil, err
	}
	return &OrganizationRepo{
		base:      newBase(shard, logger),
		users:     users,
		locker:    locker,
		sentinels: cache.New[*domain.Organization](),
	}, nil
}

const organizationColumns = `organization_id, name, timezone, status, created_at, updated_at`

func scanOrganization(row *sql.Row) (*domain.Organization, error) {
	o := &domain.Organization{}
	err := row.Scan(&o.OrganizationID, &o.Name, &o.Timezone, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrganization retrieves an organization by id.
func (r *OrganizationRepo) GetOrganization(ctx context.Context, organizationID uuid.UUID) (org *domain.Organization, err error) {
	ctx, done := r.instrument(ctx, "get_organization")
	defer func() { done(err) }()

	query := r.shard.Rebind(`SELECT ` + organizationColumns + ` FROM organizations WHERE organization_id = ?`)
	org, err = scanOrganization(r.shard.DB().QueryRowContext(ctx, query, organizationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "organization", ID: organizationID}
		}
		return nil, &domain.PersistenceError{Op: "get_organization", Err: err}
	}
	return org, nil
}

// GetDefaultOrganization returns the sentinel organization, creating it on
// first use, and idempotently ensures the default user is a member. The
// membership row is looked up by user id: if the default user already
// belongs to an organization, no second membership is written.
func (r *OrganizationRepo) GetDefaultOrganization(ctx context.Context) (org *domain.Organization, err error) {
	ctx, done := r.instrument(ctx, "get_default_organization")
	defer func() { done(err) }()

	if cached, ok := r.sentinels.Get(defaultOrganizationCacheKey); ok {
		return cached, nil
	}

	if r.locker != nil {
		release, lockErr := r.locker.Lock(ctx, defaultOrganizationLockKey, sentinelLockTTL)
		if lockErr != nil {
			return nil, &domain.PersistenceError{Op: "get_default_organization", Err: lockErr}
		}
		defer release()
	}

	query := r.shard.Rebind(`SELECT ` + organizationColumns + ` FROM organizations WHERE name = ?`)
	org, err = scanOrganization(r.shard.DB().QueryRowContext(ctx, query, defaultOrganizationName))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.PersistenceError{Op: "get_default_organization", Err: err}
		}
		org = &domain.Organization{
			OrganizationID: uuid.New(),
			Name:           defaultOrganizationName,
			Timezone:       placeholderValue,
			Status:         placeholderValue,
			CreatedAt:      now(),
		}
		insert := r.shard.Rebind(`
			INSERT INTO organizations (organization_id, name, timezone, status, created_at)
			VALUES (?, ?, ?, ?, ?)
		`)
		err = r.commit(ctx, "insert_organization", func(tx *sql.Tx) error {
			_, execErr := tx.ExecContext(ctx, insert,
				org.OrganizationID, org.Name, org.Timezone, org.Status, org.CreatedAt)
			return execErr
		})
		if err != nil {
			return nil, err
		}
		r.logger.Info("default organization created", slog.String("organization_id", org.OrganizationID.String()))
	}

	user, err := r.users.GetDefaultUser(ctx)
	if err != nil {
		return nil, err
	}
	if err = r.ensureMembership(ctx, org.OrganizationID, user.UserID); err != nil {
		return nil, err
	}

	r.sentinels.Set(defaultOrganizationCacheKey, org, sentinelCacheTTL)
	return org, nil
}

// ensureMembership creates the organization_users row for userID unless the
// user already has one, using the same lookup-else-create pattern as the
// sentinel rows.
func (r *OrganizationRepo) ensureMembership(ctx context.Context, organizationID, userID uuid.UUID) error {
	query := r.shard.Rebind(`SELECT organization_id FROM organization_users WHERE user_id = ?`)
	var existing uuid.UUID
	err := r.shard.DB().QueryRowContext(ctx, query, userID).Scan(&existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return &domain.PersistenceError{Op: "ensure_membership", Err: err}
	}

	insert := r.shard.Rebind(`
		INSERT INTO organization_users (organization_id, user_id, status, created_at)
		VALUES (?, ?, ?, ?)
	`)
	return r.commit(ctx, "insert_organization_user", func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, insert, organizationID, userID, placeholderValue, now())
		return execErr
	})
}
