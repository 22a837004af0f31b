// Package ixerror defines the closed catalog of user-facing error conditions
// raised while browsing an imgix Source, and the metadata the presentation
// layer needs to render each one.
package ixerror

// Severity classifies how an error is rendered.
type Severity string

const (
	SeverityPrimary  Severity = "primary"
	SeverityPositive Severity = "positive"
	SeverityNegative Severity = "negative"
	SeverityWarning  Severity = "warning"
)

// Kind identifies one condition in the catalog. Using an int enum (rather
// than a free-form string) makes an unknown kind unrepresentable.
type Kind int

const (
	InvalidAPIKey Kind = iota
	NoSources
	NoOriginAssets
	NoOriginAssetsWebFolder
	NoSearchResults
)

const (
	dashboardURL              = "https://dashboard.imgix.com"
	webFolderDocumentationURL = "https://docs.imgix.com/setup/serving-assets#web-folder"
	supportURL                = "https://imgix.com/contact"
)

// Messages may embed hyperlink fragments delimited as $url|title$. When the
// title is omitted the URL doubles as the display text. ParseMessage splits
// these back out for the presentation layer.
type catalogEntry struct {
	name        string
	message     string
	severity    Severity
	dismissable bool
}

var catalog = map[Kind]catalogEntry{
	InvalidAPIKey: {
		name: "Invalid API Key",
		message: "Return to the Configuration Page to enter a valid API Key " +
			"or contact your system administrator.",
		severity:    SeverityNegative,
		dismissable: false,
	},
	NoSources: {
		name:        "You have no imgix Sources",
		message:     "Go to $" + dashboardURL + "/sources$ to add an imgix Source.",
		severity:    SeverityWarning,
		dismissable: false,
	},
	NoOriginAssets: {
		name: "This Source has no Origin assets",
		message: "To upload images to this Source, select the Upload button " +
			"located in the top-right-hand corner of the modal.",
		severity:    SeverityWarning,
		dismissable: false,
	},
	NoOriginAssetsWebFolder: {
		name: "This Web Folder Source has no Origin Assets",
		message: "imgix couldn't find any Origin Assets in this Web Folder. " +
			"Please check back later, visit our $" + webFolderDocumentationURL +
			"|documentation,$ or $" + supportURL + "| contact Support.$",
		severity:    SeverityWarning,
		dismissable: false,
	},
	NoSearchResults: {
		name:        "No results found",
		message:     "Consider trying to search for something else.",
		severity:    SeverityWarning,
		dismissable: true,
	},
}

// Error is a user-facing error condition. It is never thrown across an async
// boundary; callers append it to the dialog controller's error queue.
type Error struct {
	Kind        Kind     `json:"-"`
	Name        string   `json:"name"`
	Message     string   `json:"message"`
	Severity    Severity `json:"type"`
	Dismissable bool     `json:"dismissable"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Name + ": " + e.Message
}

// New builds an Error for the given kind with the catalog's default message.
func New(kind Kind) *Error {
	return NewWithMessage(kind, "")
}

// NewWithMessage builds an Error for the given kind, overriding the default
// message when message is non-empty.
func NewWithMessage(kind Kind, message string) *Error {
	entry := catalog[kind]
	if message == "" {
		message = entry.message
	}
	return &Error{
		Kind:        kind,
		Name:        entry.name,
		Message:     message,
		Severity:    entry.severity,
		Dismissable: entry.dismissable,
	}
}
