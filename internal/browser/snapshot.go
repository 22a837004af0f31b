package browser

import (
	"github.com/imgix/contentful/internal/ixerror"
	"github.com/imgix/contentful/internal/models"
)

// ErrorView is the head of the error queue with its message pre-parsed into
// text and link runs for rendering.
type ErrorView struct {
	Name        string                `json:"name"`
	Message     string                `json:"message"`
	Severity    ixerror.Severity      `json:"type"`
	Dismissable bool                  `json:"dismissable"`
	Parts       []ixerror.MessagePart `json:"parts"`
}

// UploadFormView is the upload form without the file bytes.
type UploadFormView struct {
	Filename      string         `json:"filename"`
	Source        *models.Source `json:"source,omitempty"`
	Destination   string         `json:"destination"`
	PreviewSource string         `json:"previewSource,omitempty"`
}

// Snapshot is a read-only view of the dialog for the HTTP layer. Taking a
// snapshot drains pending one-shot notifications.
type Snapshot struct {
	State          State                 `json:"state"`
	Sources        []models.Source       `json:"sources"`
	SelectedSource *models.Source        `json:"selectedSource,omitempty"`
	Page           models.PageInfo       `json:"page"`
	SearchTerm     string                `json:"searchTerm"`
	IsSearching    bool                  `json:"isSearching"`
	IsUploading    bool                  `json:"isUploading"`
	Loading        bool                  `json:"loading"`
	Assets         []models.Asset        `json:"assets"`
	Error          *ErrorView            `json:"error,omitempty"`
	ErrorCount     int                   `json:"errorCount"`
	UploadForm     *UploadFormView       `json:"uploadForm,omitempty"`
	Notifications  []models.Notification `json:"notifications,omitempty"`
}

// Snapshot returns the current dialog state. Only the head of the error
// queue is exposed; dismissing it reveals the next entry.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:       c.stateLocked(),
		Sources:     append([]models.Source(nil), c.sources...),
		Page:        c.page,
		SearchTerm:  c.searchTerm,
		IsSearching: c.isSearching,
		IsUploading: c.isUploading,
		Loading:     c.loading,
		Assets:      append([]models.Asset(nil), c.assets...),
		ErrorCount:  len(c.errors),
	}

	if c.selectedSource != nil {
		source := *c.selectedSource
		snap.SelectedSource = &source
	}

	if len(c.errors) > 0 {
		head := c.errors[0]
		snap.Error = &ErrorView{
			Name:        head.Name,
			Message:     head.Message,
			Severity:    head.Severity,
			Dismissable: head.Dismissable,
			Parts:       ixerror.ParseMessage(head.Message),
		}
	}

	if c.uploadForm != nil {
		snap.UploadForm = &UploadFormView{
			Filename:      c.uploadForm.Filename,
			Source:        c.uploadForm.Source,
			Destination:   c.uploadForm.Destination,
			PreviewSource: c.uploadForm.PreviewSource,
		}
	}

	if len(c.notifications) > 0 {
		snap.Notifications = c.notifications
		c.notifications = nil
	}

	return snap
}

// stateLocked derives the observable state from the underlying fields.
// Callers must hold the mutex.
func (c *Controller) stateLocked() State {
	switch {
	case !c.verified:
		return StateNoAPIKey
	case c.loadingSources:
		return StateLoadingSources
	case c.showUpload:
		return StateUploading
	case c.loading:
		return StateLoading
	case c.selectedSource == nil:
		return StateSourceSelection
	case len(c.assets) > 0:
		return StatePopulated
	default:
		return StateEmpty
	}
}
