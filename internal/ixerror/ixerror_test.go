package ixerror

import (
	"reflect"
	"strings"
	"testing"
)

func TestNew_Catalog(t *testing.T) {
	tests := []struct {
		name            string
		kind            Kind
		wantName        string
		wantSeverity    Severity
		wantDismissable bool
	}{
		{
			name:            "invalid api key",
			kind:            InvalidAPIKey,
			wantName:        "Invalid API Key",
			wantSeverity:    SeverityNegative,
			wantDismissable: false,
		},
		{
			name:            "no sources",
			kind:            NoSources,
			wantName:        "You have no imgix Sources",
			wantSeverity:    SeverityWarning,
			wantDismissable: false,
		},
		{
			name:            "no origin assets",
			kind:            NoOriginAssets,
			wantName:        "This Source has no Origin assets",
			wantSeverity:    SeverityWarning,
			wantDismissable: false,
		},
		{
			name:            "no origin assets in a web folder",
			kind:            NoOriginAssetsWebFolder,
			wantName:        "This Web Folder Source has no Origin Assets",
			wantSeverity:    SeverityWarning,
			wantDismissable: false,
		},
		{
			name:            "no search results",
			kind:            NoSearchResults,
			wantName:        "No results found",
			wantSeverity:    SeverityWarning,
			wantDismissable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.kind)
			if err.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", err.Name, tt.wantName)
			}
			if err.Severity != tt.wantSeverity {
				t.Errorf("Severity = %q, want %q", err.Severity, tt.wantSeverity)
			}
			if err.Dismissable != tt.wantDismissable {
				t.Errorf("Dismissable = %v, want %v", err.Dismissable, tt.wantDismissable)
			}
			if err.Message == "" {
				t.Error("Message is empty, want the catalog default")
			}
		})
	}
}

func TestNewWithMessage_Override(t *testing.T) {
	err := NewWithMessage(NoSearchResults, "Nothing matched your filters.")
	if err.Message != "Nothing matched your filters." {
		t.Errorf("Message = %q, want the override", err.Message)
	}
	if err.Name != "No results found" {
		t.Errorf("Name = %q, want catalog name", err.Name)
	}

	var asError error = err
	if !strings.Contains(asError.Error(), "Nothing matched") {
		t.Errorf("Error() = %q, want it to include the message", asError.Error())
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []MessagePart
	}{
		{
			name:    "single link with url as title",
			message: "Go to $https://dashboard.imgix.com/sources$ to add a Source.",
			want: []MessagePart{
				{Text: "Go to "},
				{Link: &Link{URL: "https://dashboard.imgix.com/sources", Title: "https://dashboard.imgix.com/sources"}},
				{Text: " to add a Source."},
			},
		},
		{
			name:    "link with explicit title",
			message: "Visit our $https://docs.imgix.com|documentation$ for details.",
			want: []MessagePart{
				{Text: "Visit our "},
				{Link: &Link{URL: "https://docs.imgix.com", Title: "documentation"}},
				{Text: " for details."},
			},
		},
		{
			name:    "two links in one message",
			message: "See $https://a.example|first$ or $https://b.example|second$ now.",
			want: []MessagePart{
				{Text: "See "},
				{Link: &Link{URL: "https://a.example", Title: "first"}},
				{Text: " or "},
				{Link: &Link{URL: "https://b.example", Title: "second"}},
				{Text: " now."},
			},
		},
		{
			name:    "no links",
			message: "Consider trying to search for something else.",
			want: []MessagePart{
				{Text: "Consider trying to search for something else."},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMessage(tt.message)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseMessage() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMessage_WebFolderCatalogEntry(t *testing.T) {
	parts := ParseMessage(New(NoOriginAssetsWebFolder).Message)

	links := 0
	for _, part := range parts {
		if part.Link != nil {
			links++
		}
	}
	if links != 2 {
		t.Errorf("web folder message has %d links, want 2", links)
	}
}
