package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/zumu-ai/knowledgedb/domain"
	"github.com/zumu-ai/knowledgedb/pkg/cache"
	"github.com/zumu-ai/knowledgedb/pkg/database"
	"github.com/zumu-ai/knowledgedb/pkg/redis"
)

// Sentinel identity of the service user every AI-produced row is attributed
// to. The pair of names is the lookup key for get-or-create; it never
// changes once a deployment has data.
const (
	defaultUserFirstName = "Default AI"
	defaultUserLastName  = "service user 2"

	defaultUserCacheKey = "default-user"
	defaultUserLockKey  = "knowledgedb:lock:default-user"

	sentinelCacheTTL = 5 * time.Minute
	sentinelLockTTL  = 5 * time.Second
)

// UserRepo owns the users shard.
type UserRepo struct {
	base
	locker    *redis.Client
	sentinels *cache.Cache[*domain.User]
}

// NewUserRepo binds a user repository to the users shard. locker is
// optional; when present the get-or-create sentinel protocol runs under a
// short-lived advisory lock instead of tolerating the duplicate race.
func NewUserRepo(provider *database.Provider, logger *slog.Logger, locker *redis.Client) (*UserRepo, error) {
	shard, err := provider.Shard(database.FamilyUsers)
	if err != nil {
		return nil, err
	}
	return &UserRepo{
		base:      newBase(shard, logger),
		locker:    locker,
		sentinels: cache.New[*domain.User](),
	}, nil
}

const userColumns = `user_id, first_name, last_name, phone, email, password, created_at, updated_at`

func scanUser(row *sql.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.UserID, &u.FirstName, &u.LastName, &u.Phone, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser retrieves a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID uuid.UUID) (user *domain.User, err error) {
	ctx, done := r.instrument(ctx, "get_user")
	defer func() { done(err) }()

	query := r.shard.Rebind(`SELECT ` + userColumns + ` FROM users WHERE user_id = ?`)
	user, err = scanUser(r.shard.DB().QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "user", ID: userID}
		}
		return nil, &domain.PersistenceError{Op: "get_user", Err: err}
	}
	return user, nil
}

// CreateUser commits a new user with a bcrypt-hashed password.
func (r *UserRepo) CreateUser(ctx context.Context, firstName, lastName, email, phone, password string) (user *domain.User, err error) {
	ctx, done := r.instrument(ctx, "create_user")
	defer func() { done(err) }()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "create_user", Err: err}
	}

	user = &domain.User{
		UserID:    uuid.New(),
		FirstName: firstName,
		LastName:  lastName,
		Phone:     phone,
		Email:     email,
		Password:  string(hash),
		CreatedAt: now(),
	}
	if err = r.insertUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetDefaultUser returns the sentinel service user, creating it on first
// use. Without the advisory lock two concurrent first callers can both
// create a row; sequential callers always get the same row back.
func (r *UserRepo) GetDefaultUser(ctx context.Context) (user *domain.User, err error) {
	ctx, done := r.instrument(ctx, "get_default_user")
	defer func() { done(err) }()

	if cached, ok := r.sentinels.Get(defaultUserCacheKey); ok {
		return cached, nil
	}

	if r.locker != nil {
		release, lockErr := r.locker.Lock(ctx, defaultUserLockKey, sentinelLockTTL)
		if lockErr != nil {
			return nil, &domain.PersistenceError{Op: "get_default_user", Err: lockErr}
		}
		defer release()
	}

	query := r.shard.Rebind(`SELECT ` + userColumns + ` FROM users WHERE first_name = ? AND last_name = ?`)
	user, err = scanUser(r.shard.DB().QueryRowContext(ctx, query, defaultUserFirstName, defaultUserLastName))
	if err == nil {
		r.sentinels.Set(defaultUserCacheKey, user, sentinelCacheTTL)
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.PersistenceError{Op: "get_default_user", Err: err}
	}

	user = &domain.User{
		UserID:    uuid.New(),
		FirstName: defaultUserFirstName,
		LastName:  defaultUserLastName,
		Phone:     placeholderValue,
		Email:     placeholderValue,
		Password:  placeholderValue,
		CreatedAt: now(),
	}
	if err = r.insertUser(ctx, user); err != nil {
		return nil, err
	}
	r.logger.Info("default service user created", slog.String("user_id", user.UserID.String()))
	r.sentinels.Set(defaultUserCacheKey, user, sentinelCacheTTL)
	return user, nil
}

func (r *UserRepo) insertUser(ctx context.Context, user *domain.User) error {
	query := r.shard.Rebind(`
		INSERT INTO users (user_id, first_name, last_name, phone, email, password, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	return r.commit(ctx, "insert_user", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			user.UserID, user.FirstName, user.LastName, user.Phone, user.Email, user.Password, user.CreatedAt)
		return err
	})
}
