package mapillary

// Thin client for the Mapillary Graph API. The only field this package ever
// asks for is thumb_original_url; everything else in the API response is
// ignored.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// DefaultEndpoint is the production Mapillary Graph API endpoint.
const DefaultEndpoint string = "https://graph.mapillary.com"

// Client provides methods for resolving and retrieving the original
// (equirectangular) image associated with a Mapillary image ID.
type Client struct {
	endpoint    string
	token       string
	http_client *http.Client
}

// ClientOption is a function for assigning optional properties to a Client.
type ClientOption func(*Client)

// WithEndpoint overrides the API endpoint queried by a Client.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient overrides the net/http Client used to perform requests.
func WithHTTPClient(http_client *http.Client) ClientOption {
	return func(c *Client) {
		if http_client != nil {
			c.http_client = http_client
		}
	}
}

// NewClient returns a Client authorized with 'token'. The token is injected
// here, once, rather than read from the environment at call time.
func NewClient(token string, opts ...ClientOption) (*Client, error) {

	if token == "" {
		return nil, errors.New("Missing access token")
	}

	c := &Client{
		endpoint:    DefaultEndpoint,
		token:       token,
		http_client: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// ThumbURL resolves the download URL for the original-resolution thumbnail
// associated with 'image_id'.
func (c *Client) ThumbURL(ctx context.Context, image_id string) (string, error) {

	uri := fmt.Sprintf("%s/%s?fields=thumb_original_url", c.endpoint, image_id)

	req, err := http.NewRequestWithContext(ctx, "GET", uri, nil)

	if err != nil {
		return "", fmt.Errorf("Failed to create request for %s, %w", image_id, err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("OAuth %s", c.token))

	rsp, err := c.http_client.Do(req)

	if err != nil {
		return "", fmt.Errorf("Failed to retrieve metadata for %s, %w", image_id, err)
	}

	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Metadata request for %s failed with status %d", image_id, rsp.StatusCode)
	}

	body, err := io.ReadAll(rsp.Body)

	if err != nil {
		return "", fmt.Errorf("Failed to read metadata response for %s, %w", image_id, err)
	}

	url_rsp := gjson.GetBytes(body, "thumb_original_url")

	if !url_rsp.Exists() {
		return "", fmt.Errorf("Metadata response for %s is missing thumb_original_url", image_id)
	}

	return url_rsp.String(), nil
}

// Download performs a plain GET of 'uri' and streams the response body in to
// 'wr', returning the number of bytes copied.
func (c *Client) Download(ctx context.Context, uri string, wr io.Writer) (int64, error) {

	req, err := http.NewRequestWithContext(ctx, "GET", uri, nil)

	if err != nil {
		return 0, fmt.Errorf("Failed to create request for %s, %w", uri, err)
	}

	rsp, err := c.http_client.Do(req)

	if err != nil {
		return 0, fmt.Errorf("Failed to retrieve %s, %w", uri, err)
	}

	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("Request for %s failed with status %d", uri, rsp.StatusCode)
	}

	n, err := io.Copy(wr, rsp.Body)

	if err != nil {
		return n, fmt.Errorf("Failed to copy body of %s, %w", uri, err)
	}

	return n, nil
}
