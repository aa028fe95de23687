package database

import (
	"context"

	"github.com/zumu-ai/knowledgedb/domain"
)

// Per-family table DDL. Table names are the pluralized snake_case entity
// names; identities are 36-char canonical UUID text; every table carries
// created_at and a nullable updated_at. The DDL targets the sqlite and
// postgres shards used for development and tests; provisioned environments
// manage schemas out of band.
var familySchemas = map[Family][]string{
	FamilyUsers: {
		`CREATE TABLE IF NOT EXISTS users (
			user_id CHAR(36) NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			phone TEXT NOT NULL,
			email TEXT NOT NULL,
			password TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (user_id)
		)`,
	},
	FamilyOrganizations: {
		`CREATE TABLE IF NOT EXISTS organizations (
			organization_id CHAR(36) NOT NULL,
			name TEXT NOT NULL,
			timezone TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id)
		)`,
		`CREATE TABLE IF NOT EXISTS organization_users (
			organization_id CHAR(36) NOT NULL,
			user_id CHAR(36) NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id, user_id)
		)`,
	},
	FamilyCollections: {
		`CREATE TABLE IF NOT EXISTS collections (
			organization_id CHAR(36) NOT NULL,
			collection_id CHAR(36) NOT NULL,
			name TEXT NOT NULL,
			color_code TEXT NOT NULL,
			description TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id, collection_id)
		)`,
		`CREATE TABLE IF NOT EXISTS collection_resources (
			organization_id CHAR(36) NOT NULL,
			collection_id CHAR(36) NOT NULL,
			resource_id CHAR(36) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id, collection_id, resource_id)
		)`,
	},
	FamilyResources: {
		`CREATE TABLE IF NOT EXISTS resources (
			organization_id CHAR(36) NOT NULL,
			resource_id CHAR(36) NOT NULL,
			source_entity_type TEXT NOT NULL,
			source_entity_id CHAR(36) NOT NULL,
			status TEXT NOT NULL,
			name TEXT NOT NULL,
			ai_summary TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id, resource_id)
		)`,
	},
	FamilyFiles: {
		`CREATE TABLE IF NOT EXISTS files (
			organization_id CHAR(36) NOT NULL,
			file_id CHAR(36) NOT NULL,
			resource_id CHAR(36) NOT NULL,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			user_id CHAR(36) NOT NULL,
			deleted BOOLEAN,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id, file_id)
		)`,
	},
	FamilyMeetings: {
		`CREATE TABLE IF NOT EXISTS meetings (
			organization_id CHAR(36) NOT NULL,
			meeting_id CHAR(36) NOT NULL,
			resource_id CHAR(36) NOT NULL,
			provider_meeting_id TEXT,
			provider_meeting_password TEXT,
			provider_meeting_url TEXT,
			provider TEXT NOT NULL,
			status TEXT NOT NULL,
			status_updated_at TIMESTAMP NOT NULL,
			transcriptions TEXT,
			user_id CHAR(36) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id, meeting_id)
		)`,
		`CREATE TABLE IF NOT EXISTS meeting_participants (
			organization_id CHAR(36) NOT NULL,
			meeting_id CHAR(36) NOT NULL,
			participant_id CHAR(36) NOT NULL,
			name TEXT NOT NULL,
			joined_at TIMESTAMP,
			left_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id, meeting_id, participant_id)
		)`,
		`CREATE TABLE IF NOT EXISTS meeting_recordings (
			organization_id CHAR(36) NOT NULL,
			meeting_id CHAR(36) NOT NULL,
			recording_id CHAR(36) NOT NULL,
			participant_id CHAR(36),
			file_id CHAR(36) NOT NULL,
			type TEXT NOT NULL,
			subtype TEXT NOT NULL,
			transcriptions TEXT,
			started_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id, meeting_id, recording_id)
		)`,
	},
	FamilyWebsites: {
		`CREATE TABLE IF NOT EXISTS websites (
			organization_id CHAR(36) NOT NULL,
			website_id CHAR(36) NOT NULL,
			resource_id CHAR(36) NOT NULL,
			name TEXT NOT NULL,
			url TEXT NOT NULL,
			parsed_urls TEXT,
			user_id CHAR(36),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id, website_id)
		)`,
	},
	FamilyChats: {
		`CREATE TABLE IF NOT EXISTS chats (
			organization_id CHAR(36) NOT NULL,
			chat_id CHAR(36) NOT NULL,
			owner_user_id CHAR(36) NOT NULL,
			type TEXT NOT NULL,
			summary TEXT,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id, chat_id)
		)`,
		`CREATE TABLE IF NOT EXISTS chat_collections (
			organization_id CHAR(36) NOT NULL,
			chat_id CHAR(36) NOT NULL,
			collection_id CHAR(36) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id, chat_id, collection_id)
		)`,
		`CREATE TABLE IF NOT EXISTS chat_users (
			organization_id CHAR(36) NOT NULL,
			chat_id CHAR(36) NOT NULL,
			user_id CHAR(36) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id, chat_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS chat_resources (
			organization_id CHAR(36) NOT NULL,
			chat_id CHAR(36) NOT NULL,
			resource_id CHAR(36) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id, chat_id, resource_id)
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			organization_id CHAR(36) NOT NULL,
			chat_id CHAR(36) NOT NULL,
			message_id CHAR(36) NOT NULL,
			user_id CHAR(36),
			type TEXT NOT NULL,
			content TEXT NOT NULL,
			arguments TEXT NOT NULL,
			is_summarized BOOLEAN NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP,
			PRIMARY KEY (organization_id, chat_id, message_id)
		)`,
	},
}

// Bootstrap creates the family's tables on its shard if they do not exist.
func Bootstrap(ctx context.Context, shard *Shard) error {
	statements, ok := familySchemas[shard.Family()]
	if !ok {
		return &domain.ConfigurationError{Key: string(shard.Family()), Reason: "no schema defined for family"}
	}
	for _, stmt := range statements {
		if _, err := shard.DB().ExecContext(ctx, stmt); err != nil {
			return &domain.PersistenceError{Op: "bootstrap " + string(shard.Family()), Err: err}
		}
	}
	return nil
}
