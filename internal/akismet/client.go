// Package akismet is a minimal client for the Akismet comment-check API.
//
// The client never retries. Each Check is a single attempt bounded by the configured
// timeout and routed through a circuit breaker.
package akismet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/headless-comments-api/internal/models"
	"github.com/rs/zerolog"
)

const (
	defaultEndpoint = "https://%s.rest.akismet.com/1.1/comment-check"
	userAgent       = "headless-comments-api/1.1 | Akismet"
	maxBodyBytes    = 1024
)

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = errors.New("akismet: circuit open")

// Config holds client settings
type Config struct {
	APIKey string
	// Endpoint overrides the comment-check URL; %s, if present, is replaced by the key
	Endpoint string
	Timeout  time.Duration
}

// Client calls the Akismet comment-check endpoint
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker[models.SpamVerdict]
	log        zerolog.Logger
}

// NewClient creates a new Client. A client without an API key reports itself unconfigured.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if strings.Contains(endpoint, "%s") {
		endpoint = fmt.Sprintf(endpoint, cfg.APIKey)
	}

	log = log.With().Str("component", "akismet").Logger()

	breaker := circuitbreaker.NewBuilder[models.SpamVerdict]().
		WithFailureThresholdRatio(5, 10).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			log.Warn().
				Str("from_state", stateName(event.OldState)).
				Str("to_state", stateName(event.NewState)).
				Msg("Akismet circuit breaker state change")
		}).
		Build()

	return &Client{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		log:        log,
	}
}

// Configured reports whether the client has a credential
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Check submits a comment for classification. Any answer other than a literal
// "true" or "false" body is returned as an error.
func (c *Client) Check(ctx context.Context, req *models.SpamCheckRequest) (models.SpamVerdict, error) {
	verdict, err := failsafe.With(c.breaker).WithContext(ctx).Get(func() (models.SpamVerdict, error) {
		return c.check(ctx, req)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		c.log.Debug().Msg("Akismet circuit open, skipping check")
		return "", ErrCircuitOpen
	}
	return verdict, err
}

func (c *Client) check(ctx context.Context, req *models.SpamCheckRequest) (models.SpamVerdict, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(Encode(c.apiKey, req).Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset="+charsetOrDefault(req.BlogCharset))
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	switch strings.TrimSpace(string(body)) {
	case "true":
		return models.VerdictSpam, nil
	case "false":
		return models.VerdictHam, nil
	default:
		// Akismet explains invalid requests in this header
		if debug := resp.Header.Get("X-akismet-debug-help"); debug != "" {
			return "", fmt.Errorf("unexpected response %q: %s", strings.TrimSpace(string(body)), debug)
		}
		return "", fmt.Errorf("unexpected response %q", strings.TrimSpace(string(body)))
	}
}

// Encode builds the comment-check form body
func Encode(apiKey string, req *models.SpamCheckRequest) url.Values {
	data := url.Values{}
	data.Set("api_key", apiKey)
	data.Set("blog", req.Blog)
	data.Set("user_ip", req.UserIP)
	data.Set("user_agent", req.UserAgent)
	data.Set("referrer", req.Referrer)
	data.Set("permalink", req.Permalink)
	data.Set("comment_type", req.CommentType)
	data.Set("comment_author", req.AuthorName)
	data.Set("comment_author_email", req.AuthorEmail)
	data.Set("comment_author_url", req.AuthorURL)
	data.Set("comment_content", req.Content)
	data.Set("blog_lang", req.BlogLang)
	data.Set("blog_charset", req.BlogCharset)
	if req.ParentID > 0 {
		data.Set("comment_parent", strconv.FormatInt(req.ParentID, 10))
	}
	return data
}

func charsetOrDefault(charset string) string {
	if charset == "" {
		return "UTF-8"
	}
	return charset
}

func stateName(state circuitbreaker.State) string {
	switch state {
	case circuitbreaker.OpenState:
		return "open"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	default:
		return "closed"
	}
}
