package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestCreateCollectionGeneratesPlaceholderName(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)
	ctx := context.Background()
	orgID := uuid.New()

	unnamed, err := repos.collections.CreateCollection(ctx, orgID, "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.HasPrefix(unnamed.Name, "Collection ") {
		t.Fatalf("expected generated placeholder name, got %q", unnamed.Name)
	}
	if unnamed.ColorCode != "#000000" {
		t.Fatalf("expected default color, got %q", unnamed.ColorCode)
	}

	named, err := repos.collections.CreateCollection(ctx, orgID, "Research")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if named.Name != "Research" {
		t.Fatalf("expected supplied name, got %q", named.Name)
	}
	if named.CollectionID == unnamed.CollectionID {
		t.Fatalf("expected distinct collection ids")
	}
}

func TestCollectionResourceRoundTrip(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)
	ctx := context.Background()
	orgID := uuid.New()

	collection, err := repos.collections.CreateCollection(ctx, orgID, "Docs")
	if err != nil {
		t.Fatalf("create collection failed: %v", err)
	}

	resourceID := uuid.New()
	assoc, err := repos.collections.CreateCollectionResource(ctx, collection.CollectionID, orgID, resourceID)
	if err != nil {
		t.Fatalf("create association failed: %v", err)
	}
	if assoc.CollectionID != collection.CollectionID || assoc.ResourceID != resourceID {
		t.Fatalf("association mismatch: %+v", assoc)
	}

	assocs, err := repos.collections.GetCollectionResources(ctx, collection.CollectionID)
	if err != nil {
		t.Fatalf("get associations failed: %v", err)
	}
	if len(assocs) != 1 {
		t.Fatalf("expected one association, got %d", len(assocs))
	}
	if assocs[0].ResourceID != resourceID || assocs[0].OrganizationID != orgID {
		t.Fatalf("round trip mismatch: %+v", assocs[0])
	}
}

func TestGetCollectionResourcesEmpty(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)

	assocs, err := repos.collections.GetCollectionResources(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get associations failed: %v", err)
	}
	if len(assocs) != 0 {
		t.Fatalf("expected no associations, got %d", len(assocs))
	}
}
