package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/zumu-ai/knowledgedb/domain"
)

func TestCreateMeetingBinding(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)
	ctx := context.Background()

	org, user := mustDefaultOrgAndUser(t, repos)
	res, err := repos.resources.CreateResource(ctx, org.OrganizationID, domain.ResourceTypeMeeting, uuid.New())
	if err != nil {
		t.Fatalf("create resource failed: %v", err)
	}

	meeting, err := repos.meetings.CreateMeeting(ctx, org, res, user)
	if err != nil {
		t.Fatalf("create meeting failed: %v", err)
	}
	if meeting.MeetingID != res.SourceEntityID {
		t.Fatalf("expected meeting id %s, got %s", res.SourceEntityID, meeting.MeetingID)
	}
	if meeting.ResourceID != res.ResourceID {
		t.Fatalf("expected resource back-reference %s, got %s", res.ResourceID, meeting.ResourceID)
	}
	if meeting.Status != "pending" {
		t.Fatalf("expected pending status, got %q", meeting.Status)
	}

	loaded, err := repos.meetings.GetMeeting(ctx, meeting.MeetingID)
	if err != nil {
		t.Fatalf("get meeting failed: %v", err)
	}
	if loaded.UserID != user.UserID {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestMeetingAndRecordingTranscriptionsAreIndependent(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)
	ctx := context.Background()

	org, user := mustDefaultOrgAndUser(t, repos)
	res, err := repos.resources.CreateResource(ctx, org.OrganizationID, domain.ResourceTypeMeeting, uuid.New())
	if err != nil {
		t.Fatalf("create resource failed: %v", err)
	}
	meeting, err := repos.meetings.CreateMeeting(ctx, org, res, user)
	if err != nil {
		t.Fatalf("create meeting failed: %v", err)
	}

	recording, err := repos.meetings.CreateMeetingMixedRecording(ctx, org.OrganizationID, meeting.MeetingID, uuid.New())
	if err != nil {
		t.Fatalf("create recording failed: %v", err)
	}
	if recording.Type != domain.RecordingTypeAudio || recording.Subtype != domain.RecordingSubtypeMixed {
		t.Fatalf("unexpected recording kind: %s/%s", recording.Type, recording.Subtype)
	}

	// Attach a transcription to the meeting only; the recording stays bare.
	if _, err := repos.meetings.UpdateMeetingTranscriptions(ctx, meeting.MeetingID, "hello world"); err != nil {
		t.Fatalf("update meeting transcriptions failed: %v", err)
	}
	loadedRec, err := repos.meetings.GetMeetingRecordingByMeetingID(ctx, meeting.MeetingID)
	if err != nil {
		t.Fatalf("get recording failed: %v", err)
	}
	if loadedRec.Transcriptions.Valid {
		t.Fatalf("recording transcription set unexpectedly: %+v", loadedRec.Transcriptions)
	}

	updatedRec, err := repos.meetings.UpdateMeetingRecordingTranscriptions(ctx, meeting.MeetingID, "hello world, per track")
	if err != nil {
		t.Fatalf("update recording transcriptions failed: %v", err)
	}
	if updatedRec.Transcriptions.String != "hello world, per track" {
		t.Fatalf("unexpected recording transcription: %q", updatedRec.Transcriptions.String)
	}

	loadedMeeting, err := repos.meetings.GetMeeting(ctx, meeting.MeetingID)
	if err != nil {
		t.Fatalf("get meeting failed: %v", err)
	}
	if loadedMeeting.Transcriptions.String != "hello world" {
		t.Fatalf("meeting transcription changed: %q", loadedMeeting.Transcriptions.String)
	}
}

func TestUpdateMeetingTranscriptionsNotFound(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)

	_, err := repos.meetings.UpdateMeetingTranscriptions(context.Background(), uuid.New(), "orphan")
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMeetingParticipants(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)
	ctx := context.Background()

	orgID := uuid.New()
	meetingID := uuid.New()

	alice := uuid.New()
	bob := uuid.New()
	if _, err := repos.meetings.CreateMeetingParticipant(ctx, orgID, meetingID, alice, "Alice"); err != nil {
		t.Fatalf("create participant failed: %v", err)
	}
	if _, err := repos.meetings.CreateMeetingParticipant(ctx, orgID, meetingID, bob, "Bob"); err != nil {
		t.Fatalf("create participant failed: %v", err)
	}

	participants, err := repos.meetings.GetMeetingParticipants(ctx, meetingID)
	if err != nil {
		t.Fatalf("get participants failed: %v", err)
	}
	if len(participants) != 2 {
		t.Fatalf("expected two participants, got %d", len(participants))
	}
	names := map[uuid.UUID]string{}
	for _, p := range participants {
		names[p.ParticipantID] = p.Name
	}
	if names[alice] != "Alice" || names[bob] != "Bob" {
		t.Fatalf("unexpected participants: %v", names)
	}
}
