package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zumu-ai/knowledgedb/domain"
	"github.com/zumu-ai/knowledgedb/pkg/database"
)

// WebsiteRepo owns the websites shard.
type WebsiteRepo struct {
	base
}

// NewWebsiteRepo binds a website repository to the websites shard.
func NewWebsiteRepo(provider *database.Provider, logger *slog.Logger) (*WebsiteRepo, error) {
	shard, err := provider.Shard(database.FamilyWebsites)
	if err != nil {
		return nil, err
	}
	return &WebsiteRepo{base: newBase(shard, logger)}, nil
}

const websiteColumns = `organization_id, website_id, resource_id, name, url, parsed_urls, user_id, created_at, updated_at`

func scanWebsite(row rowScanner) (*domain.Website, error) {
	w := &domain.Website{}
	err := row.Scan(&w.OrganizationID, &w.WebsiteID, &w.ResourceID, &w.Name, &w.URL,
		&w.ParsedURLs, &w.UserID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// GetWebsite retrieves a website by id.
func (r *WebsiteRepo) GetWebsite(ctx context.Context, websiteID uuid.UUID) (website *domain.Website, err error) {
	ctx, done := r.instrument(ctx, "get_website")
	defer func() { done(err) }()

	query := r.shard.Rebind(`SELECT ` + websiteColumns + ` FROM websites WHERE website_id = ?`)
	website, err = scanWebsite(r.shard.DB().QueryRowContext(ctx, query, websiteID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "website", ID: websiteID}
		}
		return nil, &domain.PersistenceError{Op: "get_website", Err: err}
	}
	return website, nil
}

// CreateWebsite commits the concrete website entity for a resource, taking
// its identity from the resource's SourceEntityID. The display name is a
// generated placeholder until crawling discovers a better one.
func (r *WebsiteRepo) CreateWebsite(ctx context.Context, org *domain.Organization, resource *domain.Resource, user *domain.User, url string) (website *domain.Website, err error) {
	ctx, done := r.instrument(ctx, "create_website")
	defer func() { done(err) }()

	website = &domain.Website{
		OrganizationID: org.OrganizationID,
		WebsiteID:      resource.SourceEntityID,
		ResourceID:     resource.ResourceID,
		Name:           fmt.Sprintf("Website %s", uuid.New()),
		URL:            url,
		UserID:         uuid.NullUUID{UUID: user.UserID, Valid: true},
		CreatedAt:      now(),
	}
	query := r.shard.Rebind(`
		INSERT INTO websites (organization_id, website_id, resource_id, name, url, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	err = r.commit(ctx, "create_website", func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, query,
			website.OrganizationID, website.WebsiteID, website.ResourceID,
			website.Name, website.URL, website.UserID, website.CreatedAt)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return website, nil
}

// UpdateWebsiteParsedURLs stores the crawl result on the website row.
func (r *WebsiteRepo) UpdateWebsiteParsedURLs(ctx context.Context, websiteID uuid.UUID, parsedURLs string) (website *domain.Website, err error) {
	ctx, done := r.instrument(ctx, "update_website_parsed_urls")
	defer func() { done(err) }()

	err = r.commit(ctx, "update_website_parsed_urls", func(tx *sql.Tx) error {
		selectQuery := r.shard.Rebind(`SELECT ` + websiteColumns + ` FROM websites WHERE website_id = ?`)
		loaded, scanErr := scanWebsite(tx.QueryRowContext(ctx, selectQuery, websiteID))
		if scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return &domain.NotFoundError{Entity: "website", ID: websiteID}
			}
			return scanErr
		}

		loaded.ParsedURLs = sql.NullString{String: parsedURLs, Valid: true}
		loaded.UpdatedAt = sql.NullTime{Time: now(), Valid: true}

		updateQuery := r.shard.Rebind(`UPDATE websites SET parsed_urls = ?, updated_at = ? WHERE website_id = ?`)
		if _, execErr := tx.ExecContext(ctx, updateQuery, loaded.ParsedURLs, loaded.UpdatedAt, websiteID); execErr != nil {
			return execErr
		}
		website = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return website, nil
}
