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

// FileRepo owns the files shard. A file's identity always comes from the
// resources shard: CreateFileForResource reuses the resource's pre-allocated
// SourceEntityID as the file id, which is what makes the 1:1
// resource/concrete-entity binding hold without a cross-database constraint.
type FileRepo struct {
	base
}

// NewFileRepo binds a file repository to the files shard.
func NewFileRepo(provider *database.Provider, logger *slog.Logger) (*FileRepo, error) {
	shard, err := provider.Shard(database.FamilyFiles)
	if err != nil {
		return nil, err
	}
	return &FileRepo{base: newBase(shard, logger)}, nil
}

const fileColumns = `organization_id, file_id, resource_id, name, path, mime_type, user_id, deleted, created_at, updated_at`

func scanFile(row rowScanner) (*domain.File, error) {
	f := &domain.File{}
	err := row.Scan(&f.OrganizationID, &f.FileID, &f.ResourceID, &f.Name, &f.Path,
		&f.MimeType, &f.UserID, &f.Deleted, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetFile retrieves a file by id.
func (r *FileRepo) GetFile(ctx context.Context, fileID uuid.UUID) (file *domain.File, err error) {
	ctx, done := r.instrument(ctx, "get_file")
	defer func() { done(err) }()

	query := r.shard.Rebind(`SELECT ` + fileColumns + ` FROM files WHERE file_id = ?`)
	file, err = scanFile(r.shard.DB().QueryRowContext(ctx, query, fileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "file", ID: fileID}
		}
		return nil, &domain.PersistenceError{Op: "get_file", Err: err}
	}
	return file, nil
}

// CreateFileForResource commits the concrete file entity for a resource,
// taking its identity from the resource's SourceEntityID.
func (r *FileRepo) CreateFileForResource(ctx context.Context, org *domain.Organization, resource *domain.Resource, fileName, mimeType string, user *domain.User) (file *domain.File, err error) {
	ctx, done := r.instrument(ctx, "create_file_for_resource")
	defer func() { done(err) }()

	file = &domain.File{
		OrganizationID: org.OrganizationID,
		FileID:         resource.SourceEntityID,
		ResourceID:     resource.ResourceID,
		Name:           fileName,
		Path:           fmt.Sprintf("files/%s", resource.SourceEntityID),
		MimeType:       mimeType,
		UserID:         user.UserID,
		CreatedAt:      now(),
	}
	if err = r.insertFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// CreateFileForMeetingRecording commits the file entity backing a meeting
// recording's media. The recording pre-allocates the file id, so both sides
// share one identity the same way resources and their entities do.
func (r *FileRepo) CreateFileForMeetingRecording(ctx context.Context, org *domain.Organization, recording *domain.MeetingRecording, fileName, mimeType string, user *domain.User) (file *domain.File, err error) {
	ctx, done := r.instrument(ctx, "create_file_for_meeting_recording")
	defer func() { done(err) }()

	file = &domain.File{
		OrganizationID: org.OrganizationID,
		FileID:         recording.FileID,
		ResourceID:     recording.FileID,
		Name:           fileName,
		Path:           fmt.Sprintf("meetings/%s", recording.FileID),
		MimeType:       mimeType,
		UserID:         user.UserID,
		CreatedAt:      now(),
	}
	if err = r.insertFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// MarkFileDeleted sets the soft-delete flag. Rows are never physically
// removed by this layer.
func (r *FileRepo) MarkFileDeleted(ctx context.Context, fileID uuid.UUID) (file *domain.File, err error) {
	ctx, done := r.instrument(ctx, "mark_file_deleted")
	defer func() { done(err) }()

	err = r.commit(ctx, "mark_file_deleted", func(tx *sql.Tx) error {
		selectQuery := r.shard.Rebind(`SELECT ` + fileColumns + ` FROM files WHERE file_id = ?`)
		loaded, scanErr := scanFile(tx.QueryRowContext(ctx, selectQuery, fileID))
		if scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return &domain.NotFoundError{Entity: "file", ID: fileID}
			}
			return scanErr
		}

		loaded.Deleted = sql.NullBool{Bool: true, Valid: true}
		loaded.UpdatedAt = sql.NullTime{Time: now(), Valid: true}

		updateQuery := r.shard.Rebind(`UPDATE files SET deleted = ?, updated_at = ? WHERE file_id = ?`)
		if _, execErr := tx.ExecContext(ctx, updateQuery, loaded.Deleted, loaded.UpdatedAt, fileID); execErr != nil {
			return execErr
		}
		file = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (r *FileRepo) insertFile(ctx context.Context, file *domain.File) error {
	query := r.shard.Rebind(`
		INSERT INTO files (organization_id, file_id, resource_id, name, path, mime_type, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	return r.commit(ctx, "insert_file", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			file.OrganizationID, file.FileID, file.ResourceID, file.Name,
			file.Path, file.MimeType, file.UserID, file.CreatedAt)
		return err
	})
}
