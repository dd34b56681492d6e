// Package analytics implements the Google Analytics 4 Data API adapter. It is
// read only: campaign and conversion operations report platform.ErrUnsupported.
package analytics

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eimribar/ads-command-center/pkg/auth"
	"github.com/eimribar/ads-command-center/pkg/clients"
	"github.com/eimribar/ads-command-center/pkg/config"
	"github.com/eimribar/ads-command-center/pkg/daterange"
	"github.com/eimribar/ads-command-center/pkg/logging"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/platform"
)

const (
	DefaultBaseURL = "https://analyticsdata.googleapis.com/v1beta"

	EnvPropertyID   = "GA_PROPERTY_ID"
	EnvAccessToken  = "GA_ACCESS_TOKEN"
	EnvClientID     = "GA_CLIENT_ID"
	EnvClientSecret = "GA_CLIENT_SECRET"
	EnvRefreshToken = "GA_REFRESH_TOKEN"
)

// ConversionEvents are the GA4 event names counted as conversions.
var ConversionEvents = []string{"purchase", "add_to_cart", "generate_lead", "sign_up", "begin_checkout"}

type Client struct {
	env       config.Lookup
	baseURL   string
	tokenURL  string
	requester *clients.Requester
	logger    logging.Logger
	now       func() time.Time

	mu        sync.Mutex
	tokens    auth.TokenProvider
	tokensKey string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithTokenURL(tokenURL string) Option {
	return func(c *Client) { c.tokenURL = tokenURL }
}

func WithRequester(r *clients.Requester) Option {
	return func(c *Client) {
		if r != nil {
			c.requester = r
		}
	}
}

func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func NewClient(env config.Lookup, opts ...Option) *Client {
	c := &Client{
		env:      env,
		baseURL:  DefaultBaseURL,
		tokenURL: auth.GoogleTokenURL,
		logger:   logging.NewDiscardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.requester == nil {
		c.requester = clients.NewRequester(c.Name(), clients.WithLogger(c.logger))
	}
	return c
}

func (c *Client) ID() models.PlatformID { return models.PlatformAnalytics }
func (c *Client) Name() string          { return models.PlatformAnalytics.DisplayName() }

// IsConfigured needs the property and either a static access token or refresh credentials.
func (c *Client) IsConfigured() bool {
	if !c.env.Has(EnvPropertyID) {
		return false
	}
	return c.env.Has(EnvAccessToken) || c.env.Has(EnvRefreshToken, EnvClientID)
}

func (c *Client) tokenProvider() auth.TokenProvider {
	if token := c.env(EnvAccessToken); token != "" {
		return auth.StaticToken(token)
	}
	creds := auth.RefreshCredentials{
		ClientID:     c.env(EnvClientID),
		ClientSecret: c.env(EnvClientSecret),
		RefreshToken: c.env(EnvRefreshToken),
		TokenURL:     c.tokenURL,
	}
	key := creds.ClientID + "|" + creds.ClientSecret + "|" + creds.RefreshToken

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil || c.tokensKey != key {
		c.tokens = auth.NewRefreshTokenSource(creds, auth.WithClock(c.now))
		c.tokensKey = key
	}
	return c.tokens
}

type dimension struct {
	Name string `json:"name"`
}

type metric struct {
	Name string `json:"name"`
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type reportRequest struct {
	DateRanges      []dateRange `json:"dateRanges"`
	Dimensions      []dimension `json:"dimensions,omitempty"`
	Metrics         []metric    `json:"metrics"`
	DimensionFilter any         `json:"dimensionFilter,omitempty"`
	OrderBys        any         `json:"orderBys,omitempty"`
	Limit           int         `json:"limit,omitempty"`
}

type reportValue struct {
	Value string `json:"value"`
}

type reportRow struct {
	DimensionValues []reportValue `json:"dimensionValues"`
	MetricValues    []reportValue `json:"metricValues"`
}

func (r reportRow) dim(i int) string {
	if i < len(r.DimensionValues) {
		return r.DimensionValues[i].Value
	}
	return ""
}

func (r reportRow) number(i int) float64 {
	if i < len(r.MetricValues) {
		return models.ParseAmount(r.MetricValues[i].Value)
	}
	return 0
}

func (r reportRow) count(i int) int64 {
	return int64(r.number(i))
}

// runReport posts one runReport request. A 401 invalidates a refreshed token
// and the request is retried once.
func (c *Client) runReport(ctx context.Context, operation string, req reportRequest) ([]reportRow, error) {
	if !c.IsConfigured() {
		return nil, platform.ErrNotConfigured
	}
	endpoint := fmt.Sprintf("%s/properties/%s:runReport", c.baseURL, c.env(EnvPropertyID))
	tokens := c.tokenProvider()

	attempt := func() ([]reportRow, error) {
		token, err := tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		build, err := clients.JSONRequest(http.MethodPost, endpoint, req, clients.BearerAuth(token))
		if err != nil {
			return nil, err
		}
		var resp struct {
			Rows []reportRow `json:"rows"`
		}
		if err := c.requester.DoJSON(ctx, operation, false, build, &resp); err != nil {
			return nil, err
		}
		return resp.Rows, nil
	}

	rows, err := attempt()
	if clients.IsAuthError(err) {
		if _, static := tokens.(auth.StaticToken); !static {
			tokens.Invalidate()
			rows, err = attempt()
		}
	}
	return rows, err
}

func ranges(r daterange.Range) []dateRange {
	return []dateRange{{StartDate: r.StartDate, EndDate: r.EndDate}}
}

// TrafficOverview returns site wide traffic totals for the range.
func (c *Client) TrafficOverview(ctx context.Context, r daterange.Range) (models.TrafficStats, error) {
	rows, err := c.runReport(ctx, "traffic_overview", reportRequest{
		DateRanges: ranges(r),
		Metrics: []metric{
			{Name: "totalUsers"},
			{Name: "newUsers"},
			{Name: "sessions"},
			{Name: "bounceRate"},
			{Name: "averageSessionDuration"},
			{Name: "screenPageViews"},
		},
	})
	if err != nil || len(rows) == 0 {
		return models.TrafficStats{}, err
	}
	row := rows[0]
	return models.TrafficStats{
		Users:              row.count(0),
		NewUsers:           row.count(1),
		Sessions:           row.count(2),
		BounceRate:         row.number(3),
		AvgSessionDuration: row.number(4),
		PageViews:          row.count(5),
	}, nil
}

// EventTotal is the count and value of one GA4 event name.
type EventTotal struct {
	Name  string  `json:"name"`
	Count int64   `json:"count"`
	Value float64 `json:"value"`
}

// Conversions returns totals for the ConversionEvents that occurred in the range.
func (c *Client) Conversions(ctx context.Context, r daterange.Range) ([]EventTotal, error) {
	rows, err := c.runReport(ctx, "conversions", reportRequest{
		DateRanges: ranges(r),
		Dimensions: []dimension{{Name: "eventName"}},
		Metrics:    []metric{{Name: "conversions"}, {Name: "eventValue"}},
		DimensionFilter: map[string]any{
			"filter": map[string]any{
				"fieldName":    "eventName",
				"inListFilter": map[string]any{"values": ConversionEvents},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return eventTotals(rows), nil
}

// Events returns counts and values for every event name.
func (c *Client) Events(ctx context.Context, r daterange.Range) ([]EventTotal, error) {
	rows, err := c.runReport(ctx, "events", reportRequest{
		DateRanges: ranges(r),
		Dimensions: []dimension{{Name: "eventName"}},
		Metrics:    []metric{{Name: "eventCount"}, {Name: "eventValue"}},
	})
	if err != nil {
		return nil, err
	}
	return eventTotals(rows), nil
}

func eventTotals(rows []reportRow) []EventTotal {
	out := make([]EventTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, EventTotal{Name: row.dim(0), Count: row.count(0), Value: row.number(1)})
	}
	return out
}

// SourceTraffic is one session source/medium pair.
type SourceTraffic struct {
	Source      string `json:"source"`
	Medium      string `json:"medium"`
	Sessions    int64  `json:"sessions"`
	Users       int64  `json:"users"`
	Conversions int64  `json:"conversions"`
}

// TrafficBySource returns the top sources by sessions.
func (c *Client) TrafficBySource(ctx context.Context, r daterange.Range, limit int) ([]SourceTraffic, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := c.runReport(ctx, "traffic_sources", reportRequest{
		DateRanges: ranges(r),
		Dimensions: []dimension{{Name: "sessionSource"}, {Name: "sessionMedium"}},
		Metrics:    []metric{{Name: "sessions"}, {Name: "totalUsers"}, {Name: "conversions"}},
		OrderBys: []map[string]any{{
			"metric": map[string]string{"metricName": "sessions"},
			"desc":   true,
		}},
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]SourceTraffic, 0, len(rows))
	for _, row := range rows {
		out = append(out, SourceTraffic{
			Source:      row.dim(0),
			Medium:      row.dim(1),
			Sessions:    row.count(0),
			Users:       row.count(1),
			Conversions: row.count(2),
		})
	}
	return out, nil
}

// TrafficReport bundles everything the traffic command shows.
type TrafficReport struct {
	Range       daterange.Range     `json:"range"`
	Overview    models.TrafficStats `json:"overview"`
	Sources     []SourceTraffic     `json:"sources"`
	Conversions []EventTotal        `json:"conversions"`
}

// Traffic runs the overview, source and conversion reports concurrently.
func (c *Client) Traffic(ctx context.Context, r daterange.Range, sourceLimit int) (TrafficReport, error) {
	if err := r.Validate(); err != nil {
		return TrafficReport{}, err
	}
	report := TrafficReport{Range: r}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report.Overview, err = c.TrafficOverview(gctx, r)
		return err
	})
	g.Go(func() error {
		var err error
		report.Sources, err = c.TrafficBySource(gctx, r, sourceLimit)
		return err
	})
	g.Go(func() error {
		var err error
		report.Conversions, err = c.Conversions(gctx, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return TrafficReport{}, err
	}
	return report, nil
}

// Insights maps site analytics onto a record: spend is nil, impressions are
// page views, clicks are sessions and conversions are the summed conversion events.
func (c *Client) Insights(ctx context.Context, r daterange.Range) (models.PlatformRecord, error) {
	if err := r.Validate(); err != nil {
		return models.PlatformRecord{}, err
	}

	var traffic models.TrafficStats
	var conversions []EventTotal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		traffic, err = c.TrafficOverview(gctx, r)
		return err
	})
	g.Go(func() error {
		var err error
		conversions, err = c.Conversions(gctx, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.PlatformRecord{}, err
	}

	var count int64
	var value float64
	for _, e := range conversions {
		count += e.Count
		value += e.Value
	}
	return models.PlatformRecord{
		Platform:        models.PlatformAnalytics,
		Impressions:     models.Int64(traffic.PageViews),
		Clicks:          models.Int64(traffic.Sessions),
		Conversions:     models.Float64(float64(count)),
		ConversionValue: models.Float64(value),
		Traffic:         &traffic,
	}, nil
}

func (c *Client) Campaigns(context.Context, models.CampaignFilter) ([]models.Campaign, error) {
	return nil, platform.ErrUnsupported
}

func (c *Client) UpdateCampaign(context.Context, string, models.CampaignUpdate) (models.UpdateResult, error) {
	return models.UpdateResult{}, platform.ErrUnsupported
}

func (c *Client) SendConversion(context.Context, models.ConversionEvent) (models.ConversionResult, error) {
	return models.ConversionResult{}, platform.ErrUnsupported
}

// Probe runs a one day overview to confirm access to the property.
func (c *Client) Probe(ctx context.Context) (string, error) {
	today := c.now().Format(daterange.Layout)
	if _, err := c.TrafficOverview(ctx, daterange.Range{StartDate: today, EndDate: today}); err != nil {
		return "", err
	}
	return "property " + c.env(EnvPropertyID), nil
}
