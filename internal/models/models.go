// Package models defines the shared domain types for the imgix asset
// browser: Sources, Assets, pagination state, and the upload form.
package models

import "github.com/imgix/contentful/internal/params"

// SourceType is the deployment type of an imgix Source.
type SourceType string

const (
	SourceTypeAzure     SourceType = "azure"
	SourceTypeGCS       SourceType = "gcs"
	SourceTypeS3        SourceType = "s3"
	SourceTypeWebFolder SourceType = "webfolder"
	SourceTypeWebProxy  SourceType = "webproxy"
)

// Source is one configured imgix origin. Only enabled, non-webproxy sources
// are eligible for selection; listing code filters before constructing these.
type Source struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Type   SourceType `json:"type"`
	Domain string     `json:"domain"`
}

// Asset is a single media object in a Source. Src starts as an
// origin-relative path and is rewritten to a fully-qualified rendering URL
// once the Source's subdomain is known. ImgixParams is a derived cache of
// Src's query string; the URL stays the source of truth.
type Asset struct {
	Src         string                  `json:"src"`
	Attributes  map[string]interface{}  `json:"attributes"`
	ImgixParams map[string]params.Value `json:"imgixParams,omitempty"`
}

// SelectedAsset is the value persisted into the content-entry field: the
// chosen asset plus the Source it came from, so the dialog can pre-select it
// next time.
type SelectedAsset struct {
	Asset
	SelectedSourceID string `json:"selectedSourceId"`
}

// PageSize is the fixed number of assets per gallery page.
const PageSize = 18

// PageInfo tracks gallery pagination. CurrentIndex is 0-based;
// TotalPageCount is ceil(totalRecords / PageSize).
type PageInfo struct {
	CurrentIndex   int `json:"currentIndex"`
	TotalPageCount int `json:"totalPageCount"`
}

// UploadForm is the transient state of the upload modal, discarded on cancel
// or success.
type UploadForm struct {
	Filename      string  `json:"filename,omitempty"`
	Source        *Source `json:"source,omitempty"`
	Destination   string  `json:"destination,omitempty"`
	PreviewSource string  `json:"previewSource,omitempty"`
	Data          []byte  `json:"-"`
}

// NotificationLevel distinguishes transient success and failure toasts.
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification is a one-shot message surfaced to the user outside the
// persistent error queue (used by the upload workflow).
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}

// ModerationStatus is the outcome of screening an upload.
type ModerationStatus string

const (
	ModerationApproved ModerationStatus = "APPROVED"
	ModerationRejected ModerationStatus = "REJECTED"
)

// ModerationLabel is one content label detected on an image.
type ModerationLabel struct {
	Name       string  `json:"name"`
	ParentName string  `json:"parentName,omitempty"`
	Confidence float64 `json:"confidence"`
}

// ModerationDecision is the aggregate screening result for an upload.
type ModerationDecision struct {
	Status        ModerationStatus  `json:"status"`
	Reason        string            `json:"reason"`
	Labels        []ModerationLabel `json:"labels,omitempty"`
	MaxConfidence float64           `json:"maxConfidence"`
}
