package ixerror

import "strings"

// Link is one hyperlink embedded in a catalog message.
type Link struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// MessagePart is one rendered run of a parsed message: either plain text or
// a hyperlink.
type MessagePart struct {
	Text string `json:"text,omitempty"`
	Link *Link  `json:"link,omitempty"`
}

// ParseMessage splits a catalog message into its text and link runs. The
// message is split on "$"; even segments are plain text and odd segments are
// link fragments, themselves split on "|" into a URL and an optional display
// title. When the title is omitted the URL doubles as the title.
func ParseMessage(message string) []MessagePart {
	segments := strings.Split(message, "$")
	parts := make([]MessagePart, 0, len(segments))

	for i, segment := range segments {
		if i%2 == 0 {
			if segment != "" {
				parts = append(parts, MessagePart{Text: segment})
			}
			continue
		}

		url, title, found := strings.Cut(segment, "|")
		if !found || title == "" {
			title = url
		}
		parts = append(parts, MessagePart{Link: &Link{URL: url, Title: title}})
	}

	return parts
}
