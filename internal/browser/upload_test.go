package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/imgix/contentful/internal/imgix"
	"github.com/imgix/contentful/internal/models"
)

type fakeModerator struct {
	decision *models.ModerationDecision
	err      error
	calls    int
}

func (f *fakeModerator) ScreenUpload(ctx context.Context, imageBytes []byte) (*models.ModerationDecision, error) {
	f.calls++
	return f.decision, f.err
}

func uploadReadyController(t *testing.T, client *fakeClient, moderator Moderator) *Controller {
	t.Helper()
	c := newTestController(client, Options{Verified: true, Moderator: moderator})
	c.Start(context.Background())
	if !c.SelectSource(context.Background(), "src-s3") {
		t.Fatal("SelectSource(src-s3) failed")
	}
	return c
}

func TestOpenUpload_Validation(t *testing.T) {
	client := &fakeClient{sources: []models.Source{s3Source, webFolderSource}}
	c := newTestController(client, Options{Verified: true})
	c.Start(context.Background())

	if err := c.OpenUpload([]byte("png"), "dog.png", ""); err == nil {
		t.Error("OpenUpload() should fail with no source selected")
	}

	c.SelectSource(context.Background(), "src-wf")
	if err := c.OpenUpload([]byte("png"), "dog.png", ""); !errors.Is(err, ErrWebFolderUpload) {
		t.Errorf("OpenUpload() on web folder = %v, want ErrWebFolderUpload", err)
	}

	c.SelectSource(context.Background(), "src-s3")
	if err := c.OpenUpload(nil, "dog.png", ""); err == nil {
		t.Error("OpenUpload() should fail with no file bytes")
	}
	if err := c.OpenUpload([]byte("png"), "", ""); err == nil {
		t.Error("OpenUpload() should fail with no filename")
	}

	if err := c.OpenUpload([]byte("png"), "dog.png", "blob:preview"); err != nil {
		t.Fatalf("OpenUpload() = %v", err)
	}
	snap := c.Snapshot()
	if snap.UploadForm == nil {
		t.Fatal("UploadForm missing after open")
	}
	if snap.UploadForm.Filename != "dog.png" || snap.UploadForm.Source.ID != "src-s3" {
		t.Errorf("UploadForm = %+v", snap.UploadForm)
	}
	if snap.State != StateUploading {
		t.Errorf("State = %s, want %s", snap.State, StateUploading)
	}
}

func TestUploadFormEdits(t *testing.T) {
	client := &fakeClient{sources: []models.Source{s3Source, webFolderSource}}
	c := uploadReadyController(t, client, nil)

	if err := c.SetUploadDestination("pets/"); !errors.Is(err, ErrUploadNotOpen) {
		t.Errorf("SetUploadDestination() before open = %v, want ErrUploadNotOpen", err)
	}

	if err := c.OpenUpload([]byte("png"), "dog.png", ""); err != nil {
		t.Fatalf("OpenUpload() = %v", err)
	}

	if err := c.SetUploadSource("src-wf"); !errors.Is(err, ErrWebFolderUpload) {
		t.Errorf("SetUploadSource(web folder) = %v, want ErrWebFolderUpload", err)
	}
	if err := c.SetUploadSource("nope"); err == nil {
		t.Error("SetUploadSource(unknown) should fail")
	}
	if err := c.SetUploadDestination("pets/"); err != nil {
		t.Errorf("SetUploadDestination() = %v", err)
	}
	if err := c.SetUploadFilename("renamed.png"); err != nil {
		t.Errorf("SetUploadFilename() = %v", err)
	}

	snap := c.Snapshot()
	if snap.UploadForm.Destination != "pets/" || snap.UploadForm.Filename != "renamed.png" {
		t.Errorf("UploadForm = %+v", snap.UploadForm)
	}

	c.CancelUpload()
	if snap := c.Snapshot(); snap.UploadForm != nil {
		t.Errorf("UploadForm after cancel = %+v, want nil", snap.UploadForm)
	}
}

func TestConfirmUpload_Success(t *testing.T) {
	client := &fakeClient{
		sources: []models.Source{s3Source},
		pages: map[string]imgix.AssetPage{
			pageKey("src-s3", imgix.ListQuery(0)): onePage(models.Asset{Src: "/dog.png"}),
		},
	}
	c := uploadReadyController(t, client, nil)
	if err := c.OpenUpload([]byte("png"), "dog.png", ""); err != nil {
		t.Fatalf("OpenUpload() = %v", err)
	}
	c.SetUploadDestination("/pets/")

	if err := c.ConfirmUpload(context.Background()); err != nil {
		t.Fatalf("ConfirmUpload() = %v", err)
	}

	client.mu.Lock()
	uploads := append([]fetchCall(nil), client.uploadCalls...)
	invalidated := append([]string(nil), client.invalidated...)
	client.mu.Unlock()

	if len(uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(uploads))
	}
	if uploads[0].sourceID != "src-s3" || uploads[0].query != "pets/dog.png" {
		t.Errorf("upload call = %+v, want src-s3 pets/dog.png", uploads[0])
	}
	if len(invalidated) != 1 || invalidated[0] != pageKey("src-s3", imgix.ListQuery(0)) {
		t.Errorf("invalidated = %v, want the current page", invalidated)
	}

	snap := c.Snapshot()
	if snap.UploadForm != nil {
		t.Error("modal should close on success")
	}
	if len(snap.Notifications) != 1 || snap.Notifications[0].Level != models.NotificationSuccess {
		t.Errorf("Notifications = %+v, want one success toast", snap.Notifications)
	}
	if snap.State != StatePopulated {
		t.Errorf("State = %s, want %s after the refetch", snap.State, StatePopulated)
	}
}

func TestConfirmUpload_FailureKeepsModalOpen(t *testing.T) {
	client := &fakeClient{
		sources: []models.Source{s3Source},
		uploadErr: &imgix.APIError{
			StatusCode: 413,
			Errors:     []imgix.APIErrorEntry{{Detail: "File exceeds the plan's upload limit"}},
		},
	}
	c := uploadReadyController(t, client, nil)
	if err := c.OpenUpload([]byte("png"), "dog.png", ""); err != nil {
		t.Fatalf("OpenUpload() = %v", err)
	}

	if err := c.ConfirmUpload(context.Background()); err != nil {
		t.Fatalf("ConfirmUpload() = %v", err)
	}

	snap := c.Snapshot()
	if snap.UploadForm == nil {
		t.Fatal("modal must stay open after a failed upload")
	}
	if len(snap.Notifications) != 1 {
		t.Fatalf("Notifications = %+v, want one", snap.Notifications)
	}
	note := snap.Notifications[0]
	if note.Level != models.NotificationError {
		t.Errorf("Level = %s, want error", note.Level)
	}
	if note.Message != "Upload failed: File exceeds the plan's upload limit" {
		t.Errorf("Message = %q", note.Message)
	}
	if snap.Error != nil {
		t.Error("upload failures must not touch the error queue")
	}
}

func TestConfirmUpload_ModerationGate(t *testing.T) {
	tests := []struct {
		name        string
		moderator   *fakeModerator
		wantUpload  bool
		wantMessage string
	}{
		{
			name: "approved",
			moderator: &fakeModerator{
				decision: &models.ModerationDecision{Status: models.ModerationApproved},
			},
			wantUpload:  true,
			wantMessage: "File successfully uploaded to imgix Source.",
		},
		{
			name: "rejected",
			moderator: &fakeModerator{
				decision: &models.ModerationDecision{
					Status: models.ModerationRejected,
					Reason: "detected Explicit Nudity (98% confidence)",
				},
			},
			wantUpload:  false,
			wantMessage: "Upload failed: detected Explicit Nudity (98% confidence).",
		},
		{
			name:        "screening unavailable",
			moderator:   &fakeModerator{err: errors.New("throttled")},
			wantUpload:  false,
			wantMessage: "Upload failed: content screening is unavailable right now.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{sources: []models.Source{s3Source}}
			c := uploadReadyController(t, client, tt.moderator)
			if err := c.OpenUpload([]byte("png"), "dog.png", ""); err != nil {
				t.Fatalf("OpenUpload() = %v", err)
			}

			if err := c.ConfirmUpload(context.Background()); err != nil {
				t.Fatalf("ConfirmUpload() = %v", err)
			}

			if tt.moderator.calls != 1 {
				t.Errorf("ScreenUpload calls = %d, want 1", tt.moderator.calls)
			}
			client.mu.Lock()
			uploads := len(client.uploadCalls)
			client.mu.Unlock()
			if got := uploads > 0; got != tt.wantUpload {
				t.Errorf("upload issued = %v, want %v", got, tt.wantUpload)
			}

			snap := c.Snapshot()
			if len(snap.Notifications) != 1 || snap.Notifications[0].Message != tt.wantMessage {
				t.Errorf("Notifications = %+v, want message %q", snap.Notifications, tt.wantMessage)
			}
		})
	}
}

func TestSnapshot_DrainsNotifications(t *testing.T) {
	client := &fakeClient{sources: []models.Source{s3Source}, uploadErr: errors.New("boom")}
	c := uploadReadyController(t, client, nil)
	if err := c.OpenUpload([]byte("png"), "dog.png", ""); err != nil {
		t.Fatalf("OpenUpload() = %v", err)
	}
	c.ConfirmUpload(context.Background())

	if snap := c.Snapshot(); len(snap.Notifications) != 1 {
		t.Fatalf("first snapshot Notifications = %+v, want one", snap.Notifications)
	}
	if snap := c.Snapshot(); len(snap.Notifications) != 0 {
		t.Errorf("second snapshot Notifications = %+v, want drained", snap.Notifications)
	}
}
