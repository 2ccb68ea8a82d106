package hue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetch failure classes. Callers match with errors.Is; the client never
// retries - retry policy belongs to the caller.
var (
	ErrUnauthorized = fmt.Errorf("bridge rejected credential")
	ErrUnreachable  = fmt.Errorf("bridge unreachable")
	ErrMalformed    = fmt.Errorf("bridge returned malformed body")
)

// DefaultTimeout is the connect/read timeout for bridge requests.
const DefaultTimeout = 5 * time.Second

// Client issues authenticated read requests against one bridge's v1 API.
type Client struct {
	address    string
	token      string
	httpClient *http.Client
}

// NewClient creates a read-only client for a single bridge.
func NewClient(address, token string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		address: address,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Address returns the bridge address.
func (c *Client) Address() string {
	return c.address
}

func (c *Client) url(path string) string {
	if path == "" {
		return fmt.Sprintf("http://%s/api/%s", c.address, c.token)
	}
	return fmt.Sprintf("http://%s/api/%s/%s", c.address, c.token, path)
}

// get performs one GET and classifies failures. An empty body or the
// bridge's literal "unauthorized user" error marker means the credential
// was rejected; any transport failure or timeout means unreachable.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Contains(body, []byte("unauthorized user")) {
		return nil, ErrUnauthorized
	}

	return body, nil
}

// FetchDump issues the single bulk-state GET for this bridge and decodes
// the full asset dump. A body that decodes but is not the expected shape
// is reported as ErrMalformed, which callers treat like unreachable.
func (c *Client) FetchDump(ctx context.Context) (*RawDump, error) {
	body, err := c.get(ctx, "")
	if err != nil {
		return nil, err
	}

	var dump RawDump
	if err := json.Unmarshal(body, &dump); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dump.Lights == nil && dump.Sensors == nil && dump.Groups == nil {
		return nil, fmt.Errorf("%w: body is not a bulk state dump", ErrMalformed)
	}

	return &dump, nil
}
