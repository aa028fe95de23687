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

const defaultMeetingStatus = "pending"

// MeetingRepo owns the meetings shard: meetings, their participants and
// their recordings. Meeting transcriptions and recording transcriptions are
// two independent writes; a failure between them leaves one attached and the
// other not, and callers retry the one that failed.
type MeetingRepo struct {
	base
}

// NewMeetingRepo binds a meeting repository to the meetings shard.
func NewMeetingRepo(provider *database.Provider, logger *slog.Logger) (*MeetingRepo, error) {
	shard, err := provider.Shard(database.FamilyMeetings)
	if err != nil {
		return nil, err
	}
	return &MeetingRepo{base: newBase(shard, logger)}, nil
}

const meetingColumns = `organization_id, meeting_id, resource_id, provider_meeting_id, provider_meeting_password, provider_meeting_url, provider, status, status_updated_at, transcriptions, user_id, created_at, updated_at`

func scanMeeting(row rowScanner) (*domain.Meeting, error) {
	m := &domain.Meeting{}
	err := row.Scan(&m.OrganizationID, &m.MeetingID, &m.ResourceID,
		&m.ProviderMeetingID, &m.ProviderMeetingPassword, &m.ProviderMeetingURL,
		&m.Provider, &m.Status, &m.StatusUpdatedAt, &m.Transcriptions, &m.UserID,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

const recordingColumns = `organization_id, meeting_id, recording_id, participant_id, file_id, type, subtype, transcriptions, started_at, created_at, updated_at`

func scanRecording(row rowScanner) (*domain.MeetingRecording, error) {
	rec := &domain.MeetingRecording{}
	err := row.Scan(&rec.OrganizationID, &rec.MeetingID, &rec.RecordingID, &rec.ParticipantID,
		&rec.FileID, &rec.Type, &rec.Subtype, &rec.Transcriptions, &rec.StartedAt,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// CreateMeeting commits the concrete meeting entity for a resource, taking
// its identity from the resource's SourceEntityID.
func (r *MeetingRepo) CreateMeeting(ctx context.Context, org *domain.Organization, resource *domain.Resource, user *domain.User) (meeting *domain.Meeting, err error) {
	ctx, done := r.instrument(ctx, "create_meeting")
	defer func() { done(err) }()

	meeting = &domain.Meeting{
		OrganizationID:  org.OrganizationID,
		MeetingID:       resource.SourceEntityID,
		ResourceID:      resource.ResourceID,
		Provider:        placeholderValue,
		Status:          defaultMeetingStatus,
		StatusUpdatedAt: now(),
		UserID:          user.UserID,
		CreatedAt:       now(),
	}
	query := r.shard.Rebind(`
		INSERT INTO meetings (organization_id, meeting_id, resource_id, provider, status, status_updated_at, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	err = r.commit(ctx, "create_meeting", func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, query,
			meeting.OrganizationID, meeting.MeetingID, meeting.ResourceID,
			meeting.Provider, meeting.Status, meeting.StatusUpdatedAt,
			meeting.UserID, meeting.CreatedAt)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

// GetMeeting retrieves a meeting by id.
func (r *MeetingRepo) GetMeeting(ctx context.Context, meetingID uuid.UUID) (meeting *domain.Meeting, err error) {
	ctx, done := r.instrument(ctx, "get_meeting")
	defer func() { done(err) }()

	query := r.shard.Rebind(`SELECT ` + meetingColumns + ` FROM meetings WHERE meeting_id = ?`)
	meeting, err = scanMeeting(r.shard.DB().QueryRowContext(ctx, query, meetingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "meeting", ID: meetingID}
		}
		return nil, &domain.PersistenceError{Op: "get_meeting", Err: err}
	}
	return meeting, nil
}

// CreateMeetingMixedRecording commits the mixed-audio recording of a
// meeting. fileID is pre-allocated by the caller so the backing file can be
// created with the same identity in the files shard.
func (r *MeetingRepo) CreateMeetingMixedRecording(ctx context.Context, organizationID, meetingID, fileID uuid.UUID) (recording *domain.MeetingRecording, err error) {
	ctx, done := r.instrument(ctx, "create_meeting_mixed_recording")
	defer func() { done(err) }()

	recording = &domain.MeetingRecording{
		OrganizationID: organizationID,
		MeetingID:      meetingID,
		RecordingID:    uuid.New(),
		FileID:         fileID,
		Type:           domain.RecordingTypeAudio,
		Subtype:        domain.RecordingSubtypeMixed,
		CreatedAt:      now(),
	}
	query := r.shard.Rebind(`
		INSERT INTO meeting_recordings (organization_id, meeting_id, recording_id, participant_id, file_id, type, subtype, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	err = r.commit(ctx, "create_meeting_mixed_recording", func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, query,
			recording.OrganizationID, recording.MeetingID, recording.RecordingID,
			recording.ParticipantID, recording.FileID, recording.Type, recording.Subtype,
			recording.CreatedAt)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return recording, nil
}

// GetMeetingRecordingByMeetingID returns the first recording of a meeting.
func (r *MeetingRepo) GetMeetingRecordingByMeetingID(ctx context.Context, meetingID uuid.UUID) (recording *domain.MeetingRecording, err error) {
	ctx, done := r.instrument(ctx, "get_meeting_recording_by_meeting_id")
	defer func() { done(err) }()

	query := r.shard.Rebind(`SELECT ` + recordingColumns + ` FROM meeting_recordings WHERE meeting_id = ?`)
	recording, err = scanRecording(r.shard.DB().QueryRowContext(ctx, query, meetingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "meeting_recording", ID: meetingID}
		}
		return nil, &domain.PersistenceError{Op: "get_meeting_recording_by_meeting_id", Err: err}
	}
	return recording, nil
}

// UpdateMeetingTranscriptions attaches transcriptions to the meeting row.
func (r *MeetingRepo) UpdateMeetingTranscriptions(ctx context.Context, meetingID uuid.UUID, transcriptions string) (meeting *domain.Meeting, err error) {
	ctx, done := r.instrument(ctx, "update_meeting_transcriptions")
	defer func() { done(err) }()

	err = r.commit(ctx, "update_meeting_transcriptions", func(tx *sql.Tx) error {
		selectQuery := r.shard.Rebind(`SELECT ` + meetingColumns + ` FROM meetings WHERE meeting_id = ?`)
		loaded, scanErr := scanMeeting(tx.QueryRowContext(ctx, selectQuery, meetingID))
		if scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return &domain.NotFoundError{Entity: "meeting", ID: meetingID}
			}
			return scanErr
		}

		loaded.Transcriptions = sql.NullString{String: transcriptions, Valid: true}
		loaded.UpdatedAt = sql.NullTime{Time: now(), Valid: true}

		updateQuery := r.shard.Rebind(`UPDATE meetings SET transcriptions = ?, updated_at = ? WHERE meeting_id = ?`)
		if _, execErr := tx.ExecContext(ctx, updateQuery, loaded.Transcriptions, loaded.UpdatedAt, meetingID); execErr != nil {
			return execErr
		}
		meeting = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

// UpdateMeetingRecordingTranscriptions attaches transcriptions to the
// meeting's first recording. This write is independent of
// UpdateMeetingTranscriptions; the two are not a joint transaction.
func (r *MeetingRepo) UpdateMeetingRecordingTranscriptions(ctx context.Context, meetingID uuid.UUID, transcriptions string) (recording *domain.MeetingRecording, err error) {
	ctx, done := r.instrument(ctx, "update_meeting_recording_transcriptions")
	defer func() { done(err) }()

	err = r.commit(ctx, "update_meeting_recording_transcriptions", func(tx *sql.Tx) error {
		selectQuery := r.shard.Rebind(`SELECT ` + recordingColumns + ` FROM meeting_recordings WHERE meeting_id = ?`)
		loaded, scanErr := scanRecording(tx.QueryRowContext(ctx, selectQuery, meetingID))
		if scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return &domain.NotFoundError{Entity: "meeting_recording", ID: meetingID}
			}
			return scanErr
		}

		loaded.Transcriptions = sql.NullString{String: transcriptions, Valid: true}
		loaded.UpdatedAt = sql.NullTime{Time: now(), Valid: true}

		updateQuery := r.shard.Rebind(`
			UPDATE meeting_recordings SET transcriptions = ?, updated_at = ?
			WHERE meeting_id = ? AND recording_id = ?
		`)
		if _, execErr := tx.ExecContext(ctx, updateQuery,
			loaded.Transcriptions, loaded.UpdatedAt, meetingID, loaded.RecordingID); execErr != nil {
			return execErr
		}
		recording = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recording, nil
}

// CreateMeetingParticipant records a participant of a meeting. The
// participant identity comes from the meeting provider.
func (r *MeetingRepo) CreateMeetingParticipant(ctx context.Context, organizationID, meetingID, participantID uuid.UUID, name string) (participant *domain.MeetingParticipant, err error) {
	ctx, done := r.instrument(ctx, "create_meeting_participant")
	defer func() { done(err) }()

	participant = &domain.MeetingParticipant{
		OrganizationID: organizationID,
		MeetingID:      meetingID,
		ParticipantID:  participantID,
		Name:           name,
		CreatedAt:      now(),
	}
	query := r.shard.Rebind(`
		INSERT INTO meeting_participants (organization_id, meeting_id, participant_id, name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	err = r.commit(ctx, "create_meeting_participant", func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, query,
			participant.OrganizationID, participant.MeetingID, participant.ParticipantID,
			participant.Name, participant.CreatedAt)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return participant, nil
}

// GetMeetingParticipants returns all participants of a meeting, unordered.
func (r *MeetingRepo) GetMeetingParticipants(ctx context.Context, meetingID uuid.UUID) (participants []domain.MeetingParticipant, err error) {
	ctx, done := r.instrument(ctx, "get_meeting_participants")
	defer func() { done(err) }()

	query := r.shard.Rebind(`
		SELECT organization_id, meeting_id, participant_id, name, joined_at, left_at, created_at, updated_at
		FROM meeting_participants
		WHERE meeting_id = ?
	`)
	rows, err := r.shard.DB().QueryContext(ctx, query, meetingID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get_meeting_participants", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.MeetingParticipant
		if err = rows.Scan(&p.OrganizationID, &p.MeetingID, &p.ParticipantID, &p.Name,
			&p.JoinedAt, &p.LeftAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, &domain.PersistenceError{Op: "get_meeting_participants", Err: err}
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "get_meeting_participants", Err: err}
	}
	return participants, nil
}
