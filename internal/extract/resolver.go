package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"teralink/internal/config"
	"teralink/internal/httputil"
	"teralink/internal/link"
	"teralink/internal/media"
)

// Resolver validates share links and queries mirror endpoints in order until
// one answers. It holds only read-only configuration and is safe for
// concurrent use.
type Resolver struct {
	client    *http.Client
	validator *link.Validator
	endpoints []Endpoint
	headers   map[string]string
	timeout   time.Duration
	quality   string
	log       zerolog.Logger
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithClient sets the HTTP client used for endpoint requests.
func WithClient(client *http.Client) Option {
	return func(r *Resolver) { r.client = client }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// New creates a Resolver from the resolver configuration.
func New(cfg config.ResolverConfig, opts ...Option) (*Resolver, error) {
	endpoints, err := EndpointsFromConfig(cfg.Endpoints)
	if err != nil {
		return nil, err
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints configured")
	}

	r := &Resolver{
		client:    httputil.NewClient(),
		validator: link.NewValidator(cfg.SupportedHosts, cfg.CanonicalHost),
		endpoints: endpoints,
		headers:   maps.Clone(cfg.Headers),
		timeout:   cfg.Timeout,
		quality:   cfg.Quality,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve validates shareURL, queries the endpoints and normalizes the first
// answer. An empty quality selects the configured default.
func (r *Resolver) Resolve(ctx context.Context, shareURL string, quality string) (*media.Result, error) {
	if quality == "" {
		quality = r.quality
	}

	target, err := r.validator.Validate(shareURL)
	if err != nil {
		return nil, err
	}

	log := r.log.With().Str("share_id", link.ShareID(target)).Logger()

	payload, err := r.query(ctx, log, target)
	if err != nil {
		return nil, err
	}

	result, err := normalize(payload, quality)
	if err != nil {
		log.Debug().Err(err).Str("quality", quality).Msg("endpoint response had no usable link")
		return nil, err
	}
	return result, nil
}

// query tries each endpoint in order and returns the first structurally
// valid payload. Later endpoints are never contacted once one answers.
func (r *Resolver) query(ctx context.Context, log zerolog.Logger, target string) (map[string]json.RawMessage, error) {
	for i, ep := range r.endpoints {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolution aborted: %w", err)
		}

		start := time.Now()
		payload, err := r.attempt(ctx, ep, target)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("resolution aborted: %w", ctxErr)
			}
			log.Debug().
				Int("attempt", i+1).
				Str("endpoint", ep.String()).
				Dur("elapsed", time.Since(start)).
				Err(err).
				Msg("endpoint miss")
			continue
		}

		log.Info().
			Int("attempt", i+1).
			Str("endpoint", ep.String()).
			Dur("elapsed", time.Since(start)).
			Msg("endpoint hit")
		return payload, nil
	}

	return nil, ErrNoEndpointAvailable
}

// attempt performs a single bounded request against ep.
func (r *Resolver) attempt(ctx context.Context, ep Endpoint, target string) (map[string]json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := ep.newRequest(ctx, target, r.headers)
	if err != nil {
		return nil, err
	}

	body, err := httputil.Fetch(r.client, req)
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w%s", err, describeBody(body))
	}
	if len(payload) == 0 {
		return nil, errors.New("empty response object")
	}
	return payload, nil
}

// describeBody names the page when a mirror answers with HTML, which is what
// captcha and interstitial pages look like.
func describeBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
	if err != nil {
		return " (HTML page)"
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return " (HTML page)"
	}
	return fmt.Sprintf(" (HTML page %q)", title)
}
