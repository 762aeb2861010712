// Package quote fetches motivational quotes through a CORS relay and
// rate-limits how often that happens.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultRelayURL  = "https://api.allorigins.win/get?url="
	DefaultSourceURL = "https://zenquotes.io/api/random"
)

type Quote struct {
	Text   string
	Author string
}

// Source is anything that can produce one quote per call.
type Source interface {
	Fetch(ctx context.Context) (Quote, error)
}

// Client asks the relay for the source URL. The relay answers with
// {"contents": "<body as a string>"}, and the body is [{"q": ..., "a": ...}].
type Client struct {
	relayURL   string
	sourceURL  string
	httpClient *http.Client
}

func NewClient(relayURL, sourceURL string, timeout time.Duration) *Client {
	if relayURL == "" {
		relayURL = DefaultRelayURL
	}
	if sourceURL == "" {
		sourceURL = DefaultSourceURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		relayURL:   relayURL,
		sourceURL:  sourceURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type relayEnvelope struct {
	Contents *string `json:"contents"`
}

type zenQuote struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// RequestURL is the relay URL with the source appended as an escaped query
// value.
func (c *Client) RequestURL() string {
	return c.relayURL + url.QueryEscape(c.sourceURL)
}

func (c *Client) Fetch(ctx context.Context) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RequestURL(), nil)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Quote{}, fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Quote{}, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	return decodeEnvelope(body)
}

func decodeEnvelope(body []byte) (Quote, error) {
	var env relayEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Quote{}, fmt.Errorf("%w: envelope: %v", ErrMalformedResponse, err)
	}
	if env.Contents == nil {
		return Quote{}, fmt.Errorf("%w: missing contents", ErrMalformedResponse)
	}
	var quotes []zenQuote
	if err := json.Unmarshal([]byte(*env.Contents), &quotes); err != nil {
		return Quote{}, fmt.Errorf("%w: contents: %v", ErrMalformedResponse, err)
	}
	if len(quotes) == 0 || strings.TrimSpace(quotes[0].Q) == "" {
		return Quote{}, fmt.Errorf("%w: no quote in contents", ErrMalformedResponse)
	}
	return Quote{
		Text:   strings.TrimSpace(quotes[0].Q),
		Author: strings.TrimSpace(quotes[0].A),
	}, nil
}
