package source

import "fmt"

// SourceRecord is the raw shape returned by the CMS. It is discarded
// after normalization.
type SourceRecord struct {
	ID          string
	Slug        string
	Name        string
	Content     map[string]any
	TagList     []string
	CreatedAt   string
	PublishedAt string
	UpdatedAt   string
}

// UpstreamError is a non-success, non-redirect response from the CMS.
// It is fatal for the whole run.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// TooManyRedirectsError is returned when a redirect chain exceeds the
// configured hop limit.
type TooManyRedirectsError struct {
	URL  string
	Hops int
}

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("too many redirects fetching %s (limit %d)", e.URL, e.Hops)
}

// API response types (match the CMS stories endpoint JSON shape)

type apiResponse struct {
	Stories []apiStory `json:"stories"`
	Total   int        `json:"total"`
}

type apiStory struct {
	ID          int64          `json:"id"`
	UUID        string         `json:"uuid"`
	Slug        string         `json:"slug"`
	Name        string         `json:"name"`
	Content     map[string]any `json:"content"`
	TagList     []string       `json:"tag_list"`
	CreatedAt   string         `json:"created_at"`
	PublishedAt string         `json:"published_at"`
	UpdatedAt   string         `json:"updated_at"`
}
