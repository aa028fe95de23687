package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/zumu-ai/knowledgedb/domain"
)

func TestCreateFileForResourceBinding(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)
	ctx := context.Background()

	org, user := mustDefaultOrgAndUser(t, repos)

	sourceID := uuid.New()
	res, err := repos.resources.CreateResource(ctx, org.OrganizationID, domain.ResourceTypeFile, sourceID)
	if err != nil {
		t.Fatalf("create resource failed: %v", err)
	}

	file, err := repos.files.CreateFileForResource(ctx, org, res, "notes.pdf", "application/pdf", user)
	if err != nil {
		t.Fatalf("create file failed: %v", err)
	}
	if file.FileID != res.SourceEntityID {
		t.Fatalf("expected file id %s, got %s", res.SourceEntityID, file.FileID)
	}
	if file.ResourceID != res.ResourceID {
		t.Fatalf("expected resource back-reference %s, got %s", res.ResourceID, file.ResourceID)
	}
	if file.Path != "files/"+sourceID.String() {
		t.Fatalf("unexpected path %q", file.Path)
	}

	loaded, err := repos.files.GetFile(ctx, file.FileID)
	if err != nil {
		t.Fatalf("get file failed: %v", err)
	}
	if loaded.MimeType != "application/pdf" || loaded.UserID != user.UserID {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestCreateFileForMeetingRecording(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)
	ctx := context.Background()

	org, user := mustDefaultOrgAndUser(t, repos)

	fileID := uuid.New()
	recording, err := repos.meetings.CreateMeetingMixedRecording(ctx, org.OrganizationID, uuid.New(), fileID)
	if err != nil {
		t.Fatalf("create recording failed: %v", err)
	}

	file, err := repos.files.CreateFileForMeetingRecording(ctx, org, recording, "audio.m4a", "audio/mp4", user)
	if err != nil {
		t.Fatalf("create file failed: %v", err)
	}
	if file.FileID != fileID {
		t.Fatalf("expected file id %s, got %s", fileID, file.FileID)
	}
	if file.Path != "meetings/"+fileID.String() {
		t.Fatalf("unexpected path %q", file.Path)
	}
}

func TestMarkFileDeleted(t *testing.T) {
	provider := newTestProvider(t)
	repos := newTestRepos(t, provider)
	ctx := context.Background()

	org, user := mustDefaultOrgAndUser(t, repos)
	res, err := repos.resources.CreateResource(ctx, org.OrganizationID, domain.ResourceTypeFile, uuid.New())
	if err != nil {
		t.Fatalf("create resource failed: %v", err)
	}
	file, err := repos.files.CreateFileForResource(ctx, org, res, "old.txt", "text/plain", user)
	if err != nil {
		t.Fatalf("create file failed: %v", err)
	}
	if file.Deleted.Valid {
		t.Fatalf("expected deleted flag unset on creation")
	}

	marked, err := repos.files.MarkFileDeleted(ctx, file.FileID)
	if err != nil {
		t.Fatalf("mark deleted failed: %v", err)
	}
	if !marked.Deleted.Valid || !marked.Deleted.Bool {
		t.Fatalf("expected deleted flag set, got %+v", marked.Deleted)
	}

	// Soft delete: the row is still there.
	loaded, err := repos.files.GetFile(ctx, file.FileID)
	if err != nil {
		t.Fatalf("get file failed: %v", err)
	}
	if !loaded.Deleted.Valid || !loaded.Deleted.Bool {
		t.Fatalf("expected persisted deleted flag, got %+v", loaded.Deleted)
	}
}
