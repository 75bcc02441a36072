package device

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kwal/kwalctl/internal/logging"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// PreviewTimeout bounds speculative preview requests; previews are
	// superseded quickly, so waiting the full default timeout is pointless
	PreviewTimeout = 2 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed reads
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second
)

// Client is an HTTP client for the controller's local API.
//
// Reads (list fetches, health) are retried with exponential backoff.
// Durable writes (select, save, delete) are attempted once so a failure
// can surface to the user with local state unchanged. Previews are
// fire-and-forget.
type Client struct {
	// BaseURL is the base URL for the device (e.g. "http://192.168.1.40")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// previewClient uses a short timeout; see PreviewTimeout
	previewClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed reads
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool
}

// NewClient creates a new device client.
// host: device IP address or hostname (e.g. "192.168.1.40")
// port: device HTTP port (typically 80)
func NewClient(host string, port int) *Client {
	return NewClientWithURL(fmt.Sprintf("http://%s:%d", host, port))
}

// NewClientWithURL creates a new client with a full base URL
// baseURL: Full base URL (e.g. "http://192.168.1.40:80")
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:               strings.TrimRight(baseURL, "/"),
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		previewClient:         &http.Client{Timeout: PreviewTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior for reads
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// EventsURL returns the websocket URL of the push event channel.
func (c *Client) EventsURL() string {
	u := c.BaseURL + "/api/events"
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return u
}

// HealthURL returns the liveness probe URL used by the reconnect poller.
func (c *Client) HealthURL() string {
	return c.BaseURL + "/api/health"
}

// Ping performs a lightweight liveness check against /api/health.
// Returns nil if the device is reachable and responding.
func (c *Client) Ping() error {
	resp, err := c.HTTPClient.Get(c.HealthURL())
	if err != nil {
		return NewNetworkError("device unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}
	return nil
}

// Health retrieves the device health snapshot.
func (c *Client) Health() (*HealthInfo, error) {
	var info HealthInfo
	if err := c.getJSON("/api/health", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Patterns retrieves the full pattern list plus the active pattern id.
func (c *Client) Patterns() (*PatternList, error) {
	var list PatternList
	if err := c.getJSON("/api/patterns", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Colors retrieves the full color list plus the active color id.
func (c *Client) Colors() (*ColorList, error) {
	var list ColorList
	if err := c.getJSON("/api/colors", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// SelectPattern makes the given pattern active on the device.
func (c *Client) SelectPattern(id string) error {
	return c.postJSON("/api/patterns/select", idPayload{ID: id}, nil)
}

// SelectColor makes the given color set active on the device.
func (c *Client) SelectColor(id string) error {
	return c.postJSON("/api/colors/select", idPayload{ID: id}, nil)
}

// SavePattern persists a pattern. A payload with an ID updates that entry
// in place; without one the device creates a new entry.
func (c *Client) SavePattern(save PatternSave) error {
	if save.Label == "" {
		return NewValidationError("pattern label must not be empty")
	}
	return c.postJSON("/api/patterns", save, nil)
}

// SaveColors persists a color set. Same id semantics as SavePattern.
func (c *Client) SaveColors(save ColorSave) error {
	if save.Label == "" {
		return NewValidationError("color label must not be empty")
	}
	return c.postJSON("/api/colors", save, nil)
}

// DeletePattern removes a pattern. The response carries the updated list
// so the caller can replace its cache without a second round trip.
func (c *Client) DeletePattern(id string) (*PatternList, error) {
	var list PatternList
	if err := c.postJSON("/api/patterns/delete", idPayload{ID: id}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteColor removes a color set and returns the updated list.
func (c *Client) DeleteColor(id string) (*ColorList, error) {
	var list ColorList
	if err := c.postJSON("/api/colors/delete", idPayload{ID: id}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// NextPattern advances the active pattern. The resulting selection arrives
// via the push channel, not the response.
func (c *Client) NextPattern() error { return c.postEmpty("/api/patterns/next") }

// PrevPattern steps the active pattern backwards.
func (c *Client) PrevPattern() error { return c.postEmpty("/api/patterns/prev") }

// NextColor advances the active color set.
func (c *Client) NextColor() error { return c.postEmpty("/api/colors/next") }

// PrevColor steps the active color set backwards.
func (c *Client) PrevColor() error { return c.postEmpty("/api/colors/prev") }

// PreviewPattern sends a speculative parameter preview. Fire-and-forget:
// failures are logged at debug level and swallowed, because a later
// preview or push event corrects any drift.
func (c *Client) PreviewPattern(params map[string]float64) {
	c.firePreview("/api/patterns/preview", PatternPreview{Params: params})
}

// PreviewColors sends a speculative color preview. Fire-and-forget.
func (c *Client) PreviewColors(aHex, bHex string) {
	c.firePreview("/api/colors/preview", ColorPreview{ColorAHex: aHex, ColorBHex: bHex})
}

// SetBrightness sets the brightness slider position (0-100).
func (c *Client) SetBrightness(pct int) error {
	return c.postForm("/setBrightness?value=" + url.QueryEscape(fmt.Sprint(pct)))
}

// SetAudioLevel sets the web audio level slider position (0-100).
func (c *Client) SetAudioLevel(pct int) error {
	return c.postForm("/setWebAudioLevel?value=" + url.QueryEscape(fmt.Sprint(pct)))
}

// Vote adjusts the current fragment's score by delta. Fire-and-forget in
// the panel; callers that care can still inspect the error.
func (c *Client) Vote(delta int) error {
	return c.postForm("/vote?delta=" + url.QueryEscape(fmt.Sprint(delta)))
}

// NextFragment asks the device to play the next audio fragment.
func (c *Client) NextFragment() error { return c.postEmpty("/api/audio/next") }

// PlayFragment replays a fragment. file < 0 plays a random fragment from dir.
func (c *Client) PlayFragment(dir, file int) error {
	u := fmt.Sprintf("%s/api/audio/play?dir=%d", c.BaseURL, dir)
	if file >= 0 {
		u += fmt.Sprintf("&file=%d", file)
	}
	resp, err := c.HTTPClient.Get(u)
	if err != nil {
		return NewNetworkError("play request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("play failed with status %d", resp.StatusCode))
	}
	return nil
}

// Restart reboots the device. The push connection will drop and the
// stream client's poll-then-reload recovery takes over.
func (c *Client) Restart() error { return c.postEmpty("/api/restart") }

type idPayload struct {
	ID string `json:"id"`
}

// getJSON performs a GET with retry/backoff and decodes the JSON response.
func (c *Client) getJSON(path string, out any) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(currentDelay)
			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		err := c.getJSONAttempt(path, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

func (c *Client) getJSONAttempt(path string, out any) error {
	resp, err := c.HTTPClient.Get(c.BaseURL + path)
	if err != nil {
		return NewNetworkError("GET request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewNetworkError("failed to read response body", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return NewParseError("failed to parse JSON response", err)
	}
	return nil
}

// postJSON performs a single-attempt POST with a JSON body. If out is
// non-nil the response body is decoded into it.
func (c *Client) postJSON(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return NewValidationError(fmt.Sprintf("failed to encode request: %v", err))
	}

	resp, err := c.HTTPClient.Post(c.BaseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return NewNetworkError("POST request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		msg, _ := io.ReadAll(resp.Body)
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("request failed with status %d: %s", resp.StatusCode, string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return NewParseError("failed to parse response", err)
		}
	}
	return nil
}

// postEmpty performs a POST without a body.
func (c *Client) postEmpty(path string) error {
	resp, err := c.HTTPClient.Post(c.BaseURL+path, "application/json", nil)
	if err != nil {
		return NewNetworkError("POST request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("request failed with status %d", resp.StatusCode))
	}
	return nil
}

// postForm performs a legacy query-string POST (the slider endpoints
// predate the JSON API).
func (c *Client) postForm(pathAndQuery string) error {
	resp, err := c.HTTPClient.Post(c.BaseURL+pathAndQuery, "application/x-www-form-urlencoded", nil)
	if err != nil {
		return NewNetworkError("POST request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("request failed with status %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) firePreview(path string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Debug("Preview encode failed", zap.Error(err))
		return
	}
	resp, err := c.previewClient.Post(c.BaseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		logging.Debug("Preview request failed", zap.String("path", path), zap.Error(err))
		return
	}
	_ = resp.Body.Close()
}
