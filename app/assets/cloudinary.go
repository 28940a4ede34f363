package assets

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultCloudinaryURL is the production Cloudinary API endpoint.
const DefaultCloudinaryURL = "https://api.cloudinary.com"

// CDN is a minimal Cloudinary REST client covering the three calls the
// resolver needs: existence check by public id, signed upload, and the
// full asset listing used to rebuild the cache.
type CDN struct {
	httpClient *http.Client
	baseURL    string
	cloud      string
	apiKey     string
	apiSecret  string
	userAgent  string

	// now is swappable in tests; upload signatures include a timestamp.
	now func() time.Time
}

func NewCDN(baseURL, cloud, apiKey, apiSecret, userAgent string) *CDN {
	return &CDN{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		cloud:      cloud,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		userAgent:  userAgent,
		now:        time.Now,
	}
}

type cdnResource struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

type cdnListResponse struct {
	Resources  []cdnResource `json:"resources"`
	NextCursor string        `json:"next_cursor"`
}

// Exists checks whether an asset with the given public id is already
// hosted, returning its secure URL when it is.
func (c *CDN) Exists(ctx context.Context, publicID string) (string, bool, error) {
	requestURL := fmt.Sprintf("%s/v1_1/%s/resources/image/upload/%s", c.baseURL, c.cloud, url.PathEscape(publicID))

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	c.prepare(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("failed to check asset %s: %w", publicID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", false, fmt.Errorf("asset check for %s returned status %d: %s", publicID, resp.StatusCode, body)
	}

	var resource cdnResource
	if err := json.NewDecoder(resp.Body).Decode(&resource); err != nil {
		return "", false, fmt.Errorf("failed to decode asset check response: %w", err)
	}

	return resource.SecureURL, true, nil
}

// Upload pushes image data under a deterministic public id and returns
// the hosted URL.
func (c *CDN) Upload(ctx context.Context, publicID string, data []byte) (string, error) {
	timestamp := strconv.FormatInt(c.now().Unix(), 10)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", publicID)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}

	fields := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
		"api_key":   c.apiKey,
		"signature": c.sign(publicID, timestamp),
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return "", fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}

	requestURL := fmt.Sprintf("%s/v1_1/%s/image/upload", c.baseURL, c.cloud)

	req, err := http.NewRequestWithContext(ctx, "POST", requestURL, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", publicID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload of %s returned status %d: %s", publicID, resp.StatusCode, respBody)
	}

	var resource cdnResource
	if err := json.NewDecoder(resp.Body).Decode(&resource); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}

	return resource.SecureURL, nil
}

// List pages through the full asset listing, used to rebuild the cache
// wholesale when the persisted file is missing or corrupt.
func (c *CDN) List(ctx context.Context) (map[string]string, error) {
	entries := make(map[string]string)
	cursor := ""

	for {
		query := url.Values{}
		query.Set("max_results", "500")
		if cursor != "" {
			query.Set("next_cursor", cursor)
		}

		requestURL := fmt.Sprintf("%s/v1_1/%s/resources/image?%s", c.baseURL, c.cloud, query.Encode())

		req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		c.prepare(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to list assets: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("asset listing returned status %d: %s", resp.StatusCode, body)
		}

		var page cdnListResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode asset listing: %w", err)
		}

		for _, resource := range page.Resources {
			entries[resource.PublicID] = resource.SecureURL
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return entries, nil
}

func (c *CDN) prepare(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.SetBasicAuth(c.apiKey, c.apiSecret)
}

// sign produces the Cloudinary request signature: SHA-1 over the
// alphabetically ordered signed params plus the API secret.
func (c *CDN) sign(publicID, timestamp string) string {
	payload := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, c.apiSecret)
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}
