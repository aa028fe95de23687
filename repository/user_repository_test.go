package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/zumu-ai/knowledgedb/domain"
	"github.com/zumu-ai/knowledgedb/pkg/database"
	"github.com/zumu-ai/knowledgedb/pkg/logger"
)

func TestGetDefaultUserIdempotent(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)
	ctx := context.Background()

	first, err := repos.users.GetDefaultUser(ctx)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if first.FirstName != "Default AI" || first.LastName != "service user 2" {
		t.Fatalf("unexpected sentinel names: %q %q", first.FirstName, first.LastName)
	}

	second, err := repos.users.GetDefaultUser(ctx)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if first.UserID != second.UserID {
		t.Fatalf("expected same user, got %s and %s", first.UserID, second.UserID)
	}

	// A fresh repo instance has no memoized sentinel and must find the row
	// in the shard rather than creating another.
	fresh, err := NewUserRepo(provider, logger.New("error"), nil)
	if err != nil {
		t.Fatalf("failed to build fresh repo: %v", err)
	}
	third, err := fresh.GetDefaultUser(ctx)
	if err != nil {
		t.Fatalf("fresh repo call failed: %v", err)
	}
	if third.UserID != first.UserID {
		t.Fatalf("expected same user from fresh repo, got %s", third.UserID)
	}

	if n := countRows(t, provider, database.FamilyUsers, "users"); n != 1 {
		t.Fatalf("expected exactly one sentinel row, got %d", n)
	}
}

func TestCreateUserHashesPassword(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)
	ctx := context.Background()

	user, err := repos.users.CreateUser(ctx, "Ada", "Lovelace", "ada@example.com", "+1555", "s3cret")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if user.Password == "s3cret" {
		t.Fatalf("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("s3cret")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	loaded, err := repos.users.GetUser(ctx, user.UserID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded.Email != "ada@example.com" || loaded.FirstName != "Ada" {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	if loaded.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
}

func TestGetUserNotFound(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)

	_, err := repos.users.GetUser(context.Background(), uuid.New())
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Entity != "user" {
		t.Fatalf("unexpected entity: %s", notFound.Entity)
	}
}
