package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client fetches place records from the CMS stories endpoint, one page
// at a time. It follows HTTP redirects manually up to a bounded hop
// count and treats any other non-2xx response as fatal.
//
// There is deliberately no retry with backoff: a single failed request
// aborts the whole run so downstream consumers never see partial output.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	contentType string
	version     string
	pageSize    int
	maxHops     int
	userAgent   string
}

func NewClient(baseURL, token, contentType, version string, pageSize, maxHops int, userAgent string) *Client {
	return &Client{
		// Redirects are followed manually so the hop limit is enforced.
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL:     baseURL,
		token:       token,
		contentType: contentType,
		version:     version,
		pageSize:    pageSize,
		maxHops:     maxHops,
		userAgent:   userAgent,
	}
}

// FetchAll accumulates records across pages until the server-reported
// total is reached or, when the server reports no total, until a page
// returns fewer records than the page size.
func (c *Client) FetchAll(ctx context.Context) ([]SourceRecord, error) {
	var records []SourceRecord
	total := -1

	for page := 1; ; page++ {
		resp, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}

		for _, story := range resp.Stories {
			records = append(records, SourceRecord{
				ID:          strconv.FormatInt(story.ID, 10),
				Slug:        story.Slug,
				Name:        story.Name,
				Content:     story.Content,
				TagList:     story.TagList,
				CreatedAt:   story.CreatedAt,
				PublishedAt: story.PublishedAt,
				UpdatedAt:   story.UpdatedAt,
			})
		}

		if resp.Total > 0 {
			total = resp.Total
		}

		slog.Debug("Fetched page", "page", page, "records", len(resp.Stories), "cumulative", len(records), "total", total)

		if total >= 0 && len(records) >= total {
			break
		}
		if len(resp.Stories) < c.pageSize {
			break
		}
	}

	slog.Info("Fetch complete", "records", len(records))

	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (*apiResponse, error) {
	query := url.Values{}
	query.Set("token", c.token)
	query.Set("version", c.version)
	query.Set("content_type", c.contentType)
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(c.pageSize))

	requestURL := c.baseURL + "/stories?" + query.Encode()

	data, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var resp apiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response for page %d: %w", page, err)
	}

	return &resp, nil
}

// get performs a GET request, following redirects up to the hop limit.
func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	hops := c.maxHops
	current := requestURL

	for {
		req, err := http.NewRequestWithContext(ctx, "GET", current, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", current, err)
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			location := resp.Header.Get("Location")
			resp.Body.Close()

			if location == "" {
				return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: "redirect without Location header"}
			}
			if hops == 0 {
				return nil, &TooManyRedirectsError{URL: requestURL, Hops: c.maxHops}
			}
			hops--

			next, err := req.URL.Parse(location)
			if err != nil {
				return nil, fmt.Errorf("invalid redirect location %q: %w", location, err)
			}
			current = next.String()

			slog.Debug("Following redirect", "location", current, "hops_left", hops)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		return data, nil
	}
}
