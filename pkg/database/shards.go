package database

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/zumu-ai/knowledgedb/domain"
	"github.com/zumu-ai/knowledgedb/pkg/config"
	"github.com/zumu-ai/knowledgedb/pkg/metrics"
)

// Family names one entity family and therefore one dedicated database.
type Family string

const (
	FamilyUsers         Family = "users"
	FamilyOrganizations Family = "organizations"
	FamilyCollections   Family = "collections"
	FamilyResources     Family = "resources"
	FamilyFiles         Family = "files"
	FamilyMeetings      Family = "meetings"
	FamilyWebsites      Family = "websites"
	FamilyChats         Family = "chats"
	FamilyAssistant     Family = "assistant"
)

// Families lists every family the provider can serve.
var Families = []Family{
	FamilyUsers,
	FamilyOrganizations,
	FamilyCollections,
	FamilyResources,
	FamilyFiles,
	FamilyMeetings,
	FamilyWebsites,
	FamilyChats,
	FamilyAssistant,
}

// Shard is one family's ready connection pool plus the capability set of its
// engine. Each family's repository exclusively owns write access through its
// shard; there is no cross-shard transaction primitive.
type Shard struct {
	family  Family
	db      *sql.DB
	dialect Dialect
}

func (s *Shard) Family() Family { return s.family }

// DB returns the underlying pool.
func (s *Shard) DB() *sql.DB { return s.db }

// Dialect returns the shard's engine capabilities.
func (s *Shard) Dialect() Dialect { return s.dialect }

// Rebind rewrites `?` placeholders for the shard's engine.
func (s *Shard) Rebind(query string) string { return s.dialect.Rebind(query) }

// Health pings the shard with a short timeout.
func (s *Shard) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Provider resolves one long-lived pool per entity family from settings.
// Pools open lazily, exactly once per family, and are reused for the process
// lifetime. A family without a configured URL fails with a
// ConfigurationError; the provider never connects to a default shard.
type Provider struct {
	settings *config.Settings
	logger   *slog.Logger

	mu     sync.Mutex
	shards map[Family]*shardEntry
}

type shardEntry struct {
	once  sync.Once
	shard *Shard
	err   error
}

// NewProvider creates a shard provider. URLs are not validated up front; each
// family is checked when its shard is first requested.
func NewProvider(settings *config.Settings, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		settings: settings,
		logger:   logger,
		shards:   make(map[Family]*shardEntry),
	}
}

// Shard returns the ready pool for a family, opening it on first use.
func (p *Provider) Shard(family Family) (*Shard, error) {
	p.mu.Lock()
	entry, ok := p.shards[family]
	if !ok {
		entry = &shardEntry{}
		p.shards[family] = entry
	}
	p.mu.Unlock()

	entry.once.Do(func() {
		entry.shard, entry.err = p.open(family)
	})
	return entry.shard, entry.err
}

func (p *Provider) open(family Family) (*Shard, error) {
	rawURL, err := p.urlFor(family)
	if err != nil {
		return nil, err
	}

	dialect, dsn, err := resolveDialect(family, rawURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, &domain.ConfigurationError{Key: string(family), Reason: err.Error()}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &domain.ConfigurationError{Key: string(family), Reason: err.Error()}
	}

	metrics.ObserveShardOpened(string(family), dialect.Driver)
	p.logger.Info("shard connected",
		slog.String("family", string(family)),
		slog.String("driver", dialect.Driver),
	)

	return &Shard{family: family, db: db, dialect: dialect}, nil
}

func (p *Provider) urlFor(family Family) (string, error) {
	var rawURL string
	switch family {
	case FamilyUsers:
		rawURL = p.settings.UsersURL
	case FamilyOrganizations:
		rawURL = p.settings.OrganizationsURL
	case FamilyCollections:
		rawURL = p.settings.CollectionsURL
	case FamilyResources:
		rawURL = p.settings.ResourcesURL
	case FamilyFiles:
		rawURL = p.settings.FilesURL
	case FamilyMeetings:
		rawURL = p.settings.MeetingsURL
	case FamilyWebsites:
		rawURL = p.settings.WebsitesURL
	case FamilyChats:
		rawURL = p.settings.ChatsURL
	case FamilyAssistant:
		rawURL = p.settings.AssistantURL
	default:
		return "", &domain.ConfigurationError{Key: string(family), Reason: "unknown entity family"}
	}
	if rawURL == "" {
		return "", &domain.ConfigurationError{Key: string(family), Reason: "no shard URL configured"}
	}
	return rawURL, nil
}

// Close closes every opened pool.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for family, entry := range p.shards {
		if entry.shard == nil {
			continue
		}
		if err := entry.shard.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.shards, family)
	}
	return firstErr
}
