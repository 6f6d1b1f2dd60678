package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"eventwatch/pkg/logx"
)

// ErrSessionExpired marks a fetch rejected by the portal: the session
// cookie no longer authenticates (401/403, or any other non-2xx class).
// Transport-level failures are plain errors and must not be confused
// with expiry.
var ErrSessionExpired = errors.New("session expired")

const defaultUserAgent = "eventwatch/1.0"

// Maximum response body we are willing to parse. The portal returns a
// single page; anything bigger than this is a broken response.
const maxBodyBytes = 4 << 20

type Config struct {
	URL       string
	Cookie    string
	UserAgent string
	Timeout   time.Duration
}

// Client fetches the authenticated activity list.
//
// The cookie can be swapped at runtime (config hot-reload) without
// recreating the client.
type Client struct {
	log  logx.Logger
	http *http.Client

	url       string
	userAgent string

	mu     sync.Mutex
	cookie string
}

func NewClient(cfg Config, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("feed url is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{
		log:       log,
		http:      &http.Client{Timeout: timeout},
		url:       cfg.URL,
		userAgent: ua,
		cookie:    cfg.Cookie,
	}, nil
}

// SetCookie swaps the session credential. Safe to call concurrently
// with FetchRecords.
func (c *Client) SetCookie(cookie string) {
	c.mu.Lock()
	c.cookie = cookie
	c.mu.Unlock()
}

// FetchRecords performs one authenticated GET against the activity list.
//
// Error taxonomy:
//   - non-2xx response  -> error wrapping ErrSessionExpired
//   - network failure   -> plain transport error
//   - unparseable body  -> plain error (treated like a transport blip)
func (c *Client) FetchRecords(ctx context.Context) ([]RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	cookie := c.cookie
	c.mu.Unlock()
	req.Header.Set("Cookie", cookie)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch activity list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		// 401/403 is the usual shape, but the portal answers other
		// non-2xx codes for a dead session too.
		return nil, fmt.Errorf("fetch activity list: status %d: %w", resp.StatusCode, ErrSessionExpired)
	}

	var body struct {
		Resources []RawRecord `json:"resources"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode activity list: %w", err)
	}
	return body.Resources, nil
}

// SessionState classifies one fetch outcome.
type SessionState int

const (
	SessionValid SessionState = iota
	SessionExpired
	FeedUnreachable
)

// ClassifySession maps a FetchRecords error to a session state.
func ClassifySession(err error) SessionState {
	switch {
	case err == nil:
		return SessionValid
	case errors.Is(err, ErrSessionExpired):
		return SessionExpired
	default:
		return FeedUnreachable
	}
}
