package imgix

import (
	"bytes"
	"context"
	"net/http"
	"strings"
)

// UploadPath joins an optional destination directory and a filename into the
// path segment of the upload endpoint. Leading and trailing slashes on the
// destination are stripped, so "/marketing/" and "marketing" upload to the
// same place; an empty destination uploads to the Source root.
func UploadPath(destination, filename string) string {
	destination = strings.TrimPrefix(destination, "/")
	destination = strings.TrimSuffix(destination, "/")
	if destination == "" {
		return filename
	}
	return destination + "/" + filename
}

// Upload pushes raw asset bytes to a Source at the given path. Failures are
// either *APIError (the API rejected the upload and said why) or plain
// transport errors; callers surface the APIError detail to the user.
func (c *Client) Upload(ctx context.Context, sourceID, path string, data []byte) error {
	_, err := c.request(ctx, http.MethodPost, "sources/"+sourceID+"/upload/"+path, bytes.NewReader(data))
	if err != nil {
		c.logError("upload failed", err)
		return err
	}
	return nil
}
