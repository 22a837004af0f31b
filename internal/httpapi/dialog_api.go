package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/imgix/contentful/internal/browser"
	"github.com/imgix/contentful/internal/logging"
	"github.com/imgix/contentful/internal/models"
	"github.com/imgix/contentful/internal/session"
)

// maxUploadSize caps the multipart upload body.
const maxUploadSize = 25 * 1024 * 1024

// DialogFactory builds a fresh controller for one dialog opening. The
// invocation carries the previously selected asset, when the field had one.
type DialogFactory func(invocation *models.SelectedAsset) *browser.Controller

// DialogAPI handles the asset-selection dialog's HTTP surface. Every route
// except the opening one resolves a session token to its live controller.
type DialogAPI struct {
	sessions  *session.Manager
	newDialog DialogFactory
	logger    *logging.Logger
}

// NewDialogAPI creates a new dialog API handler.
func NewDialogAPI(sessions *session.Manager, newDialog DialogFactory, logger *logging.Logger) *DialogAPI {
	return &DialogAPI{
		sessions:  sessions,
		newDialog: newDialog,
		logger:    logger,
	}
}

// RegisterRoutes registers dialog routes on the given mux.
func (api *DialogAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/dialog", corsMiddleware(api.handleOpen))
	mux.HandleFunc("/api/dialog/state", corsMiddleware(api.handleState))
	mux.HandleFunc("/api/dialog/source", corsMiddleware(api.handleSource))
	mux.HandleFunc("/api/dialog/page", corsMiddleware(api.handlePage))
	mux.HandleFunc("/api/dialog/search", corsMiddleware(api.handleSearch))
	mux.HandleFunc("/api/dialog/errors/dismiss", corsMiddleware(api.handleDismissErrors))
	mux.HandleFunc("/api/dialog/upload", corsMiddleware(api.handleUpload))
	mux.HandleFunc("/api/dialog/submit", corsMiddleware(api.handleSubmit))
}

// handleOpen creates a session around a fresh controller and starts it.
func (api *DialogAPI) handleOpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		SelectedImage *models.SelectedAsset `json:"selectedImage"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
			return
		}
	}

	controller := api.newDialog(body.SelectedImage)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	controller.Start(ctx)

	id, token, err := api.sessions.Open(controller)
	if err != nil {
		api.logger.Error("Failed to open dialog session", logging.WithField("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to open dialog"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": id,
		"token":     token,
		"state":     controller.Snapshot(),
	})
}

func (api *DialogAPI) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	controller, ok := api.resolve(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, controller.Snapshot())
}

func (api *DialogAPI) handleSource(w http.ResponseWriter, r *http.Request) {
	controller, ok := api.resolvePost(w, r)
	if !ok {
		return
	}

	var body struct {
		SourceID string `json:"sourceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SourceID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sourceId is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if !controller.SelectSource(ctx, body.SourceID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Unknown source"})
		return
	}
	writeJSON(w, http.StatusOK, controller.Snapshot())
}

func (api *DialogAPI) handlePage(w http.ResponseWriter, r *http.Request) {
	controller, ok := api.resolvePost(w, r)
	if !ok {
		return
	}

	var body struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	controller.ChangePage(ctx, body.Index)
	writeJSON(w, http.StatusOK, controller.Snapshot())
}

func (api *DialogAPI) handleSearch(w http.ResponseWriter, r *http.Request) {
	controller, ok := api.resolvePost(w, r)
	if !ok {
		return
	}

	var body struct {
		Term string `json:"term"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	controller.Search(ctx, body.Term)
	writeJSON(w, http.StatusOK, controller.Snapshot())
}

func (api *DialogAPI) handleDismissErrors(w http.ResponseWriter, r *http.Request) {
	controller, ok := api.resolvePost(w, r)
	if !ok {
		return
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	controller.DismissErrors(body.Count)
	writeJSON(w, http.StatusOK, controller.Snapshot())
}

// handleUpload accepts a multipart form (image, filename, destination,
// sourceId) and runs the whole upload flow in one request: open the form,
// apply the overrides, confirm. The outcome lands in the snapshot's
// notifications either way.
func (api *DialogAPI) handleUpload(w http.ResponseWriter, r *http.Request) {
	controller, ok := api.resolvePost(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid upload payload"})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Image file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read image"})
		return
	}

	filename := strings.TrimSpace(r.FormValue("filename"))
	if filename == "" {
		filename = header.Filename
	}

	if err := controller.OpenUpload(data, filename, ""); err != nil {
		writeJSON(w, uploadErrorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if sourceID := strings.TrimSpace(r.FormValue("sourceId")); sourceID != "" {
		if err := controller.SetUploadSource(sourceID); err != nil {
			controller.CancelUpload()
			writeJSON(w, uploadErrorStatus(err), map[string]string{"error": err.Error()})
			return
		}
	}
	if destination := strings.TrimSpace(r.FormValue("destination")); destination != "" {
		if err := controller.SetUploadDestination(destination); err != nil {
			controller.CancelUpload()
			writeJSON(w, uploadErrorStatus(err), map[string]string{"error": err.Error()})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	if err := controller.ConfirmUpload(ctx); err != nil {
		writeJSON(w, uploadErrorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, controller.Snapshot())
}

// handleSubmit resolves the dialog with the chosen asset URL and ends the
// session.
func (api *DialogAPI) handleSubmit(w http.ResponseWriter, r *http.Request) {
	controller, ok := api.resolvePost(w, r)
	if !ok {
		return
	}

	var body struct {
		Src string `json:"src"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Src == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "src is required"})
		return
	}

	selected, found := controller.Submit(body.Src)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No loaded asset matches src"})
		return
	}

	api.sessions.Close(extractToken(r))
	writeJSON(w, http.StatusOK, selected)
}

func (api *DialogAPI) resolvePost(w http.ResponseWriter, r *http.Request) (*browser.Controller, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	return api.resolve(w, r)
}

func (api *DialogAPI) resolve(w http.ResponseWriter, r *http.Request) (*browser.Controller, bool) {
	token := extractToken(r)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authorization required"})
		return nil, false
	}

	controller, err := api.sessions.Resolve(token)
	if err != nil {
		var sessErr *session.Error
		message := "invalid or expired token"
		if errors.As(err, &sessErr) {
			message = sessErr.Message
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": message})
		return nil, false
	}
	return controller, true
}

func uploadErrorStatus(err error) int {
	switch {
	case errors.Is(err, browser.ErrWebFolderUpload):
		return http.StatusBadRequest
	case errors.Is(err, browser.ErrUploadNotOpen):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// extractToken pulls the session token from the Authorization header or the
// token query parameter.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	return ""
}
