package scraper

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/michaelzhang78901-alt/freight-tracker/internal/model"
)

const (
	defaultBaseURL   = "https://fbx.freightos.com/freight-index"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	defaultTimeout = 15 * time.Second
)

// Route identifies one FBX lane and its page slug on the source site.
type Route struct {
	Code string
	Slug string
	Name string
}

// Routes is the fixed pair of tracked lanes.
var Routes = []Route{
	{Code: model.RouteFBX01, Slug: "FBX01", Name: "China/East Asia - North America West Coast"},
	{Code: model.RouteFBX11, Slug: "FBX11", Name: "China/East Asia - North Europe"},
}

// RouteFetcher retrieves a single route's current reading.
type RouteFetcher interface {
	FetchRoute(ctx context.Context, route Route) (model.RateReading, error)
	Pace(ctx context.Context)
}

// Options parameterise the page fetcher.
type Options struct {
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration
	PacingDelay time.Duration
}

// Fetcher downloads route pages and extracts their current rates.
type Fetcher struct {
	opts    Options
	client  *resty.Client
	baseURL string
	logger  zerolog.Logger
}

// NewFetcher constructs a page fetcher.
func NewFetcher(opts Options, logger zerolog.Logger) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := resty.New()
	client.SetTimeout(timeout)

	return &Fetcher{
		opts:    opts,
		client:  client,
		baseURL: baseURL,
		logger:  logger.With().Str("component", "scraper").Logger(),
	}
}

// FetchRoute performs one GET against the route page with a browser-like
// header set and feeds the body to the extractor. Every failure mode maps to
// ErrRateNotFound so a bad cycle degrades to an absent reading upstream.
func (f *Fetcher) FetchRoute(ctx context.Context, route Route) (model.RateReading, error) {
	url := f.baseURL + "/" + route.Slug

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", f.userAgent()).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		Get(url)
	if err != nil {
		f.logger.Warn().Err(err).Str("route", route.Code).Str("url", url).Msg("route page request failed")
		return model.RateReading{}, ErrRateNotFound
	}

	if resp.StatusCode() != http.StatusOK {
		f.logger.Warn().Int("status", resp.StatusCode()).Str("route", route.Code).Str("url", url).Msg("route page returned unexpected status")
		return model.RateReading{}, ErrRateNotFound
	}

	rate, err := ExtractRate(string(resp.Body()))
	if err != nil {
		f.logger.Warn().Err(err).Str("route", route.Code).Msg("rate extraction failed")
		return model.RateReading{}, ErrRateNotFound
	}

	f.logger.Debug().Str("route", route.Code).Str("rate", rate.String()).Msg("route rate extracted")
	return model.NewRateReading(route.Code, rate), nil
}

// Pace waits the configured delay between page requests so back-to-back
// scrapes do not trip anti-bot defenses on the source site.
func (f *Fetcher) Pace(ctx context.Context) {
	delay := f.opts.PacingDelay
	if delay <= 0 {
		return
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (f *Fetcher) userAgent() string {
	if ua := strings.TrimSpace(f.opts.UserAgent); ua != "" {
		return ua
	}
	return defaultUserAgent
}

var _ RouteFetcher = (*Fetcher)(nil)
