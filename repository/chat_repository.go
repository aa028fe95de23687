package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zumu-ai/knowledgedb/domain"
	"github.com/zumu-ai/knowledgedb/pkg/database"
)

// chatMessageWindow caps how much of the message log a single read returns:
// the 40 most recent messages.
const chatMessageWindow = 40

// ChatRepo owns the chats shard: conversations, their append-only message
// logs, and the association rows attaching users, resources and collections
// from other shards. Associations are written without existence checks, same
// as the collections family.
type ChatRepo struct {
	base
}

// NewChatRepo binds a chat repository to the chats shard.
func NewChatRepo(provider *database.Provider, logger *slog.Logger) (*ChatRepo, error) {
	shard, err := provider.Shard(database.FamilyChats)
	if err != nil {
		return nil, err
	}
	return &ChatRepo{base: newBase(shard, logger)}, nil
}

const chatColumns = `organization_id, chat_id, owner_user_id, type, summary, name, created_at, updated_at`

func scanChat(row rowScanner) (*domain.Chat, error) {
	c := &domain.Chat{}
	err := row.Scan(&c.OrganizationID, &c.ChatID, &c.OwnerUserID, &c.Type, &c.Summary,
		&c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetChat retrieves a chat scoped to its organization.
func (r *ChatRepo) GetChat(ctx context.Context, chatID, organizationID uuid.UUID) (chat *domain.Chat, err error) {
	ctx, done := r.instrument(ctx, "get_chat")
	defer func() { done(err) }()

	query := r.shard.Rebind(`SELECT ` + chatColumns + ` FROM chats WHERE chat_id = ? AND organization_id = ?`)
	chat, err = scanChat(r.shard.DB().QueryRowContext(ctx, query, chatID, organizationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "chat", ID: chatID}
		}
		return nil, &domain.PersistenceError{Op: "get_chat", Err: err}
	}
	return chat, nil
}

// CreateChat commits a new conversation owned by userID.
func (r *ChatRepo) CreateChat(ctx context.Context, organizationID, userID uuid.UUID, chatType, name string) (chat *domain.Chat, err error) {
	ctx, done := r.instrument(ctx, "create_chat")
	defer func() { done(err) }()

	chat = &domain.Chat{
		OrganizationID: organizationID,
		ChatID:         uuid.New(),
		OwnerUserID:    userID,
		Type:           chatType,
		Name:           name,
		CreatedAt:      now(),
	}
	query := r.shard.Rebind(`
		INSERT INTO chats (organization_id, chat_id, owner_user_id, type, summary, name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	err = r.commit(ctx, "create_chat", func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, query,
			chat.OrganizationID, chat.ChatID, chat.OwnerUserID, chat.Type,
			chat.Summary, chat.Name, chat.CreatedAt)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// UpdateChatName renames a chat.
func (r *ChatRepo) UpdateChatName(ctx context.Context, chatID uuid.UUID, name string) (chat *domain.Chat, err error) {
	ctx, done := r.instrument(ctx, "update_chat_name")
	defer func() { done(err) }()

	chat, err = r.updateChat(ctx, "update_chat_name", chatID, func(c *domain.Chat) {
		c.Name = name
	})
	return chat, err
}

// UpdateChatSummary stores the rolling conversation summary.
func (r *ChatRepo) UpdateChatSummary(ctx context.Context, chatID uuid.UUID, summary string) (chat *domain.Chat, err error) {
	ctx, done := r.instrument(ctx, "update_chat_summary")
	defer func() { done(err) }()

	chat, err = r.updateChat(ctx, "update_chat_summary", chatID, func(c *domain.Chat) {
		c.Summary = sql.NullString{String: summary, Valid: true}
	})
	return chat, err
}

func (r *ChatRepo) updateChat(ctx context.Context, operation string, chatID uuid.UUID, mutate func(*domain.Chat)) (*domain.Chat, error) {
	var chat *domain.Chat
	err := r.commit(ctx, operation, func(tx *sql.Tx) error {
		selectQuery := r.shard.Rebind(`SELECT ` + chatColumns + ` FROM chats WHERE chat_id = ?`)
		loaded, scanErr := scanChat(tx.QueryRowContext(ctx, selectQuery, chatID))
		if scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return &domain.NotFoundError{Entity: "chat", ID: chatID}
			}
			return scanErr
		}

		mutate(loaded)
		loaded.UpdatedAt = sql.NullTime{Time: now(), Valid: true}

		updateQuery := r.shard.Rebind(`UPDATE chats SET name = ?, summary = ?, updated_at = ? WHERE chat_id = ?`)
		if _, execErr := tx.ExecContext(ctx, updateQuery, loaded.Name, loaded.Summary, loaded.UpdatedAt, chatID); execErr != nil {
			return execErr
		}
		chat = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// AddResourceToChat attaches a resource (resources shard) to a chat.
func (r *ChatRepo) AddResourceToChat(ctx context.Context, organizationID, chatID, resourceID uuid.UUID) (assoc *domain.ChatResource, err error) {
	ctx, done := r.instrument(ctx, "add_resource_to_chat")
	defer func() { done(err) }()

	assoc = &domain.ChatResource{
		OrganizationID: organizationID,
		ChatID:         chatID,
		ResourceID:     resourceID,
		CreatedAt:      now(),
	}
	query := r.shard.Rebind(`
		INSERT INTO chat_resources (organization_id, chat_id, resource_id, created_at)
		VALUES (?, ?, ?, ?)
	`)
	err = r.commit(ctx, "add_resource_to_chat", func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, query, assoc.OrganizationID, assoc.ChatID, assoc.ResourceID, assoc.CreatedAt)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return assoc, nil
}

// AddCollectionToChat attaches a collection (collections shard) to a chat.
func (r *ChatRepo) AddCollectionToChat(ctx context.Context, organizationID, chatID, collectionID uuid.UUID) (assoc *domain.ChatCollection, err error) {
	ctx, done := r.instrument(ctx, "add_collection_to_chat")
	defer func() { done(err) }()

	assoc = &domain.ChatCollection{
		OrganizationID: organizationID,
		ChatID:         chatID,
		CollectionID:   collectionID,
		CreatedAt:      now(),
	}
	query := r.shard.Rebind(`
		INSERT INTO chat_collections (organization_id, chat_id, collection_id, created_at)
		VALUES (?, ?, ?, ?)
	`)
	err = r.commit(ctx, "add_collection_to_chat", func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, query, assoc.OrganizationID, assoc.ChatID, assoc.CollectionID, assoc.CreatedAt)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return assoc, nil
}

// AddUserToChat attaches a user (users shard) to a chat.
func (r *ChatRepo) AddUserToChat(ctx context.Context, organizationID, chatID, userID uuid.UUID) (assoc *domain.ChatUser, err error) {
	ctx, done := r.instrument(ctx, "add_user_to_chat")
	defer func() { done(err) }()

	assoc = &domain.ChatUser{
		OrganizationID: organizationID,
		ChatID:         chatID,
		UserID:         userID,
		CreatedAt:      now(),
	}
	query := r.shard.Rebind(`
		INSERT INTO chat_users (organization_id, chat_id, user_id, created_at)
		VALUES (?, ?, ?, ?)
	`)
	err = r.commit(ctx, "add_user_to_chat", func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, query, assoc.OrganizationID, assoc.ChatID, assoc.UserID, assoc.CreatedAt)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return assoc, nil
}

// GetChatResources returns the resource associations of a chat, unordered.
func (r *ChatRepo) GetChatResources(ctx context.Context, chatID uuid.UUID) (assocs []domain.ChatResource, err error) {
	ctx, done := r.instrument(ctx, "get_chat_resources")
	defer func() { done(err) }()

	query := r.shard.Rebind(`
		SELECT organization_id, chat_id, resource_id, created_at, updated_at
		FROM chat_resources
		WHERE chat_id = ?
	`)
	rows, err := r.shard.DB().QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get_chat_resources", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.ChatResource
		if err = rows.Scan(&a.OrganizationID, &a.ChatID, &a.ResourceID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, &domain.PersistenceError{Op: "get_chat_resources", Err: err}
		}
		assocs = append(assocs, a)
	}
	if err = rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "get_chat_resources", Err: err}
	}
	return assocs, nil
}

// GetChatCollections returns the collection associations of a chat,
// unordered.
func (r *ChatRepo) GetChatCollections(ctx context.Context, chatID uuid.UUID) (assocs []domain.ChatCollection, err error) {
	ctx, done := r.instrument(ctx, "get_chat_collections")
	defer func() { done(err) }()

	query := r.shard.Rebind(`
		SELECT organization_id, chat_id, collection_id, created_at, updated_at
		FROM chat_collections
		WHERE chat_id = ?
	`)
	rows, err := r.shard.DB().QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get_chat_collections", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.ChatCollection
		if err = rows.Scan(&a.OrganizationID, &a.ChatID, &a.CollectionID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, &domain.PersistenceError{Op: "get_chat_collections", Err: err}
		}
		assocs = append(assocs, a)
	}
	if err = rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "get_chat_collections", Err: err}
	}
	return assocs, nil
}

// GetChatUsers returns the user associations of a chat, unordered.
func (r *ChatRepo) GetChatUsers(ctx context.Context, chatID uuid.UUID) (assocs []domain.ChatUser, err error) {
	ctx, done := r.instrument(ctx, "get_chat_users")
	defer func() { done(err) }()

	query := r.shard.Rebind(`
		SELECT organization_id, chat_id, user_id, created_at, updated_at
		FROM chat_users
		WHERE chat_id = ?
	`)
	rows, err := r.shard.DB().QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get_chat_users", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.ChatUser
		if err = rows.Scan(&a.OrganizationID, &a.ChatID, &a.UserID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, &domain.PersistenceError{Op: "get_chat_users", Err: err}
		}
		assocs = append(assocs, a)
	}
	if err = rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "get_chat_users", Err: err}
	}
	return assocs, nil
}

// CreateChatMessageParams are the optional parts of a message append.
type CreateChatMessageParams struct {
	MessageID   uuid.UUID // zero value: generated
	OwnerUserID uuid.NullUUID
	Arguments   domain.Arguments // nil: stored as an empty mapping
}

// CreateChatMessage appends a message to a chat's log.
func (r *ChatRepo) CreateChatMessage(ctx context.Context, organizationID, chatID uuid.UUID, messageType, content string, params CreateChatMessageParams) (message *domain.ChatMessage, err error) {
	ctx, done := r.instrument(ctx, "create_chat_message")
	defer func() { done(err) }()

	messageID := params.MessageID
	if messageID == uuid.Nil {
		messageID = uuid.New()
	}
	arguments := params.Arguments
	if arguments == nil {
		arguments = domain.Arguments{}
	}

	message = &domain.ChatMessage{
		OrganizationID: organizationID,
		ChatID:         chatID,
		MessageID:      messageID,
		UserID:         params.OwnerUserID,
		Type:           messageType,
		Content:        content,
		Arguments:      arguments,
		CreatedAt:      now(),
	}
	query := r.shard.Rebind(`
		INSERT INTO chat_messages (organization_id, chat_id, message_id, user_id, type, content, arguments, is_summarized, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	err = r.commit(ctx, "create_chat_message", func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, query,
			message.OrganizationID, message.ChatID, message.MessageID, message.UserID,
			message.Type, message.Content, message.Arguments, message.IsSummarized,
			message.CreatedAt)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

// GetChatMessages returns the most recent messages of a chat in
// chronological order. The storage read takes the newest rows first, capped
// at the window size; the slice is then reversed so callers always see
// oldest-first.
func (r *ChatRepo) GetChatMessages(ctx context.Context, chatID uuid.UUID) (messages []*domain.ChatMessage, err error) {
	ctx, done := r.instrument(ctx, "get_chat_messages")
	defer func() { done(err) }()

	query := r.shard.Rebind(`
		SELECT organization_id, chat_id, message_id, user_id, type, content, arguments, is_summarized, created_at, updated_at
		FROM chat_messages
		WHERE chat_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`)
	rows, err := r.shard.DB().QueryContext(ctx, query, chatID, chatMessageWindow)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get_chat_messages", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		m := &domain.ChatMessage{}
		if err = rows.Scan(&m.OrganizationID, &m.ChatID, &m.MessageID, &m.UserID,
			&m.Type, &m.Content, &m.Arguments, &m.IsSummarized, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, &domain.PersistenceError{Op: "get_chat_messages", Err: err}
		}
		messages = append(messages, m)
	}
	if err = rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "get_chat_messages", Err: err}
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkChatMessagesSummarized flags every not-yet-summarized message of a
// chat after its content has been folded into the chat summary. Returns how
// many rows were flagged.
func (r *ChatRepo) MarkChatMessagesSummarized(ctx context.Context, chatID uuid.UUID) (flagged int64, err error) {
	ctx, done := r.instrument(ctx, "mark_chat_messages_summarized")
	defer func() { done(err) }()

	query := r.shard.Rebind(`
		UPDATE chat_messages SET is_summarized = ?, updated_at = ?
		WHERE chat_id = ? AND is_summarized = ?
	`)
	err = r.commit(ctx, "mark_chat_messages_summarized", func(tx *sql.Tx) error {
		result, execErr := tx.ExecContext(ctx, query, true, now(), chatID, false)
		if execErr != nil {
			return execErr
		}
		flagged, execErr = result.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, err
	}
	return flagged, nil
}
