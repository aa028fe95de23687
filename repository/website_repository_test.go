package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/zumu-ai/knowledgedb/domain"
)

// TestWebsiteIngestScenario walks the full cross-shard ingest path: default
// org and user, a collection, a pending website resource with a
// pre-allocated source id, the concrete website sharing that id, and the
// association linking the resource into the collection.
func TestWebsiteIngestScenario(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)
	ctx := context.Background()

	org, user := mustDefaultOrgAndUser(t, repos)

	collection, err := repos.collections.CreateCollection(ctx, org.OrganizationID, "")
	if err != nil {
		t.Fatalf("create collection failed: %v", err)
	}

	sourceID := uuid.New()
	res, err := repos.resources.CreateResource(ctx, org.OrganizationID, domain.ResourceTypeWebsite, sourceID)
	if err != nil {
		t.Fatalf("create resource failed: %v", err)
	}

	website, err := repos.websites.CreateWebsite(ctx, org, res, user, "https://example.com")
	if err != nil {
		t.Fatalf("create website failed: %v", err)
	}
	if website.WebsiteID != sourceID {
		t.Fatalf("expected website id %s, got %s", sourceID, website.WebsiteID)
	}
	if website.ResourceID != res.ResourceID {
		t.Fatalf("expected resource back-reference %s, got %s", res.ResourceID, website.ResourceID)
	}
	if !strings.HasPrefix(website.Name, "Website ") {
		t.Fatalf("expected generated placeholder name, got %q", website.Name)
	}
	if website.UserID.UUID != user.UserID {
		t.Fatalf("expected uploading user %s, got %s", user.UserID, website.UserID.UUID)
	}

	if _, err := repos.collections.CreateCollectionResource(ctx, collection.CollectionID, org.OrganizationID, res.ResourceID); err != nil {
		t.Fatalf("create association failed: %v", err)
	}
	assocs, err := repos.collections.GetCollectionResources(ctx, collection.CollectionID)
	if err != nil {
		t.Fatalf("get associations failed: %v", err)
	}
	if len(assocs) != 1 || assocs[0].ResourceID != res.ResourceID {
		t.Fatalf("expected one association to %s, got %+v", res.ResourceID, assocs)
	}
}

func TestUpdateWebsiteParsedURLs(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)
	ctx := context.Background()

	org, user := mustDefaultOrgAndUser(t, repos)
	res, err := repos.resources.CreateResource(ctx, org.OrganizationID, domain.ResourceTypeWebsite, uuid.New())
	if err != nil {
		t.Fatalf("create resource failed: %v", err)
	}
	website, err := repos.websites.CreateWebsite(ctx, org, res, user, "https://example.com/docs")
	if err != nil {
		t.Fatalf("create website failed: %v", err)
	}
	if website.ParsedURLs.Valid {
		t.Fatalf("expected no parsed urls on creation")
	}

	updated, err := repos.websites.UpdateWebsiteParsedURLs(ctx, website.WebsiteID, `["https://example.com/docs/a"]`)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.ParsedURLs.String != `["https://example.com/docs/a"]` {
		t.Fatalf("unexpected parsed urls: %q", updated.ParsedURLs.String)
	}

	loaded, err := repos.websites.GetWebsite(ctx, website.WebsiteID)
	if err != nil {
		t.Fatalf("get website failed: %v", err)
	}
	if !loaded.ParsedURLs.Valid {
		t.Fatalf("expected persisted parsed urls")
	}
}
