package browser

import (
	"context"
	"errors"

	"github.com/imgix/contentful/internal/imgix"
	"github.com/imgix/contentful/internal/logging"
	"github.com/imgix/contentful/internal/models"
)

// ErrUploadNotOpen is returned when an upload action arrives with no upload
// modal open.
var ErrUploadNotOpen = errors.New("no upload in progress")

// ErrWebFolderUpload is returned when an upload targets a web folder source,
// which has no writable backing storage.
var ErrWebFolderUpload = errors.New("cannot upload to a web folder source")

// OpenUpload seeds the upload form with the picked file and the currently
// selected source, and opens the modal.
func (c *Controller) OpenUpload(data []byte, filename, previewSource string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selectedSource == nil {
		return errors.New("no source selected")
	}
	if c.selectedSource.Type == models.SourceTypeWebFolder {
		return ErrWebFolderUpload
	}
	if len(data) == 0 || filename == "" {
		return errors.New("upload needs file bytes and a filename")
	}

	source := *c.selectedSource
	c.uploadForm = &models.UploadForm{
		Filename:      filename,
		Source:        &source,
		PreviewSource: previewSource,
		Data:          data,
	}
	c.showUpload = true
	return nil
}

// SetUploadSource redirects the pending upload to a different eligible
// source. Web folders are rejected; the form fields are read-only while an
// upload is in flight.
func (c *Controller) SetUploadSource(sourceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uploadForm == nil {
		return ErrUploadNotOpen
	}
	if c.isUploading {
		return errors.New("upload in flight")
	}
	for i := range c.sources {
		if c.sources[i].ID != sourceID {
			continue
		}
		if c.sources[i].Type == models.SourceTypeWebFolder {
			return ErrWebFolderUpload
		}
		source := c.sources[i]
		c.uploadForm.Source = &source
		return nil
	}
	return errors.New("unknown source")
}

// SetUploadDestination updates the destination directory of the pending
// upload.
func (c *Controller) SetUploadDestination(destination string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uploadForm == nil {
		return ErrUploadNotOpen
	}
	if c.isUploading {
		return errors.New("upload in flight")
	}
	c.uploadForm.Destination = destination
	return nil
}

// SetUploadFilename renames the file before upload.
func (c *Controller) SetUploadFilename(filename string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uploadForm == nil {
		return ErrUploadNotOpen
	}
	if c.isUploading {
		return errors.New("upload in flight")
	}
	c.uploadForm.Filename = filename
	return nil
}

// CancelUpload discards the form and closes the modal. Ignored while an
// upload is in flight, mirroring the disabled close control.
func (c *Controller) CancelUpload() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isUploading {
		return
	}
	c.uploadForm = nil
	c.showUpload = false
}

// ConfirmUpload pushes the pending file to its source. Success emits a
// notification, invalidates and refetches the current page so the new asset
// appears, and closes the modal. Failure emits a notification carrying the
// API's detail message when it has one and keeps the modal open so the user
// can adjust and retry. Neither outcome touches the persistent error queue.
func (c *Controller) ConfirmUpload(ctx context.Context) error {
	c.mu.Lock()
	if c.uploadForm == nil {
		c.mu.Unlock()
		return ErrUploadNotOpen
	}
	if c.isUploading {
		c.mu.Unlock()
		return errors.New("upload in flight")
	}
	form := *c.uploadForm
	c.isUploading = true
	c.mu.Unlock()

	if c.moderator != nil {
		decision, err := c.moderator.ScreenUpload(ctx, form.Data)
		if err != nil {
			// Screening being unavailable blocks the upload rather than
			// waving it through.
			c.finishUpload(false, "Upload failed: content screening is unavailable right now.")
			return nil
		}
		if decision.Status == models.ModerationRejected {
			c.finishUpload(false, "Upload failed: "+decision.Reason+".")
			return nil
		}
	}

	path := imgix.UploadPath(form.Destination, form.Filename)
	err := c.client.Upload(ctx, form.Source.ID, path, form.Data)
	if err != nil {
		message := "Upload failed: something went wrong. Please try again."
		var apiErr *imgix.APIError
		if errors.As(err, &apiErr) && apiErr.Detail() != "" {
			message = "Upload failed: " + apiErr.Detail()
		}
		if c.logger != nil {
			c.logger.Error("upload failed", logging.WithField("source", form.Source.ID),
				logging.WithField("error", err.Error()))
		}
		c.finishUpload(false, message)
		return nil
	}

	c.finishUpload(true, "File successfully uploaded to imgix Source.")

	// Refetch the current page so the new asset shows up.
	c.mu.Lock()
	index := c.page.CurrentIndex
	selected := c.selectedSource
	if selected != nil {
		c.client.InvalidateAssetPage(selected.ID, imgix.ListQuery(index))
	}
	c.mu.Unlock()

	if selected != nil {
		c.refresh(ctx, imgix.ListQuery(index), false)
	}
	return nil
}

// finishUpload records the outcome notification and either closes the modal
// (success) or leaves it open for a retry (failure).
func (c *Controller) finishUpload(succeeded bool, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.isUploading = false
	level := models.NotificationError
	if succeeded {
		level = models.NotificationSuccess
		c.uploadForm = nil
		c.showUpload = false
	}
	c.notifications = append(c.notifications, models.Notification{
		Level:   level,
		Message: message,
	})
}
