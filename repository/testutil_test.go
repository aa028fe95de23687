package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/zumu-ai/knowledgedb/domain"
	"github.com/zumu-ai/knowledgedb/pkg/config"
	"github.com/zumu-ai/knowledgedb/pkg/database"
	"github.com/zumu-ai/knowledgedb/pkg/logger"
)

// Tests run the real repositories against per-family in-memory sqlite
// shards opened through the real provider, so every cross-shard protocol is
// exercised across genuinely separate databases.

var testFamilies = []database.Family{
	database.FamilyUsers,
	database.FamilyOrganizations,
	database.FamilyCollections,
	database.FamilyResources,
	database.FamilyFiles,
	database.FamilyMeetings,
	database.FamilyWebsites,
	database.FamilyChats,
}

func newTestProvider(t *testing.T) *database.Provider {
	t.Helper()

	// Distinct in-memory database per family and per test. cache=shared
	// keeps each database alive across the pool's connections.
	prefix := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	shardURL := func(name string) string {
		return fmt.Sprintf("sqlite:file:%s_%s?mode=memory&cache=shared", prefix, name)
	}

	settings := &config.Settings{
		Environment:      "test",
		UsersURL:         shardURL("users"),
		OrganizationsURL: shardURL("organizations"),
		CollectionsURL:   shardURL("collections"),
		ResourcesURL:     shardURL("resources"),
		FilesURL:         shardURL("files"),
		MeetingsURL:      shardURL("meetings"),
		WebsitesURL:      shardURL("websites"),
		ChatsURL:         shardURL("chats"),
		AssistantURL:     shardURL("assistant"),
	}

	provider := database.NewProvider(settings, logger.New("error"))
	t.Cleanup(func() { _ = provider.Close() })

	ctx := context.Background()
	for _, family := range testFamilies {
		shard, err := provider.Shard(family)
		if err != nil {
			t.Fatalf("failed to open %s shard: %v", family, err)
		}
		if err := database.Bootstrap(ctx, shard); err != nil {
			t.Fatalf("failed to bootstrap %s shard: %v", family, err)
		}
	}
	return provider
}

type testRepos struct {
	users         *UserRepo
	organizations *OrganizationRepo
	collections   *CollectionRepo
	resources     *ResourceRepo
	files         *FileRepo
	meetings      *MeetingRepo
	websites      *WebsiteRepo
	chats         *ChatRepo
}

func newTestRepos(t *testing.T, provider *database.Provider) *testRepos {
	t.Helper()
	log := logger.New("error")

	users, err := NewUserRepo(provider, log, nil)
	if err != nil {
		t.Fatalf("failed to build user repo: %v", err)
	}
	organizations, err := NewOrganizationRepo(provider, users, log, nil)
	if err != nil {
		t.Fatalf("failed to build organization repo: %v", err)
	}
	collections, err := NewCollectionRepo(provider, log)
	if err != nil {
		t.Fatalf("failed to build collection repo: %v", err)
	}
	resources, err := NewResourceRepo(provider, collections, log)
	if err != nil {
		t.Fatalf("failed to build resource repo: %v", err)
	}
	files, err := NewFileRepo(provider, log)
	if err != nil {
		t.Fatalf("failed to build file repo: %v", err)
	}
	meetings, err := NewMeetingRepo(provider, log)
	if err != nil {
		t.Fatalf("failed to build meeting repo: %v", err)
	}
	websites, err := NewWebsiteRepo(provider, log)
	if err != nil {
		t.Fatalf("failed to build website repo: %v", err)
	}
	chats, err := NewChatRepo(provider, log)
	if err != nil {
		t.Fatalf("failed to build chat repo: %v", err)
	}

	return &testRepos{
		users:         users,
		organizations: organizations,
		collections:   collections,
		resources:     resources,
		files:         files,
		meetings:      meetings,
		websites:      websites,
		chats:         chats,
	}
}

func countRows(t *testing.T, provider *database.Provider, family database.Family, table string) int {
	t.Helper()
	shard, err := provider.Shard(family)
	if err != nil {
		t.Fatalf("failed to get %s shard: %v", family, err)
	}
	var n int
	if err := shard.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s rows: %v", table, err)
	}
	return n
}

func mustDefaultOrgAndUser(t *testing.T, repos *testRepos) (*domain.Organization, *domain.User) {
	t.Helper()
	ctx := context.Background()
	org, err := repos.organizations.GetDefaultOrganization(ctx)
	if err != nil {
		t.Fatalf("failed to get default organization: %v", err)
	}
	user, err := repos.users.GetDefaultUser(ctx)
	if err != nil {
		t.Fatalf("failed to get default user: %v", err)
	}
	return org, user
}
