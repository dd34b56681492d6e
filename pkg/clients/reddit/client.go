// Package reddit implements the Reddit Ads API v3 adapter.
package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eimribar/ads-command-center/pkg/clients"
	"github.com/eimribar/ads-command-center/pkg/config"
	"github.com/eimribar/ads-command-center/pkg/daterange"
	"github.com/eimribar/ads-command-center/pkg/logging"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/pii"
	"github.com/eimribar/ads-command-center/pkg/platform"
)

const (
	DefaultBaseURL = "https://ads-api.reddit.com/api/v3"

	EnvAccessToken = "REDDIT_ACCESS_TOKEN"
	EnvAdAccountID = "REDDIT_AD_ACCOUNT_ID"
	EnvPixelID     = "REDDIT_PIXEL_ID"
)

type Client struct {
	env       config.Lookup
	baseURL   string
	requester *clients.Requester
	logger    logging.Logger
	now       func() time.Time
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
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
		env:     env,
		baseURL: DefaultBaseURL,
		logger:  logging.NewDiscardLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.requester == nil {
		c.requester = clients.NewRequester(c.Name(), clients.WithLogger(c.logger))
	}
	return c
}

func (c *Client) ID() models.PlatformID { return models.PlatformReddit }
func (c *Client) Name() string          { return models.PlatformReddit.DisplayName() }

func (c *Client) IsConfigured() bool {
	return c.env.Has(EnvAccessToken, EnvAdAccountID)
}

func (c *Client) call(ctx context.Context, operation, method, path string, query url.Values, payload, out any) error {
	if !c.IsConfigured() {
		return platform.ErrNotConfigured
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	build, err := clients.JSONRequest(method, endpoint, payload, clients.BearerAuth(c.env(EnvAccessToken)))
	if err != nil {
		return err
	}
	return c.requester.DoJSON(ctx, operation, method != http.MethodGet, build, out)
}

func (c *Client) accountPath(suffix string) string {
	return "/ad_accounts/" + url.PathEscape(c.env(EnvAdAccountID)) + suffix
}

type campaignList struct {
	Data []struct {
		ID                string         `json:"id"`
		Name              string         `json:"name"`
		EffectiveStatus   string         `json:"effective_status"`
		ConfiguredStatus  string         `json:"configured_status"`
		Objective         string         `json:"objective"`
		BudgetTotalMicros clients.Number `json:"budget_total_amount_micros"`
	} `json:"data"`
}

// Campaigns lists the account's campaigns. Reddit has no server side status
// filter here, so the filter is applied to the normalized status.
func (c *Client) Campaigns(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, error) {
	var resp campaignList
	if err := c.call(ctx, "campaigns", http.MethodGet, c.accountPath("/campaigns"), nil, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Campaign, 0, len(resp.Data))
	for _, raw := range resp.Data {
		status := raw.EffectiveStatus
		if status == "" {
			status = raw.ConfiguredStatus
		}
		camp := models.Campaign{
			Platform:  models.PlatformReddit,
			ID:        raw.ID,
			Name:      raw.Name,
			Status:    models.ParseCampaignStatus(status),
			Objective: raw.Objective,
		}
		if raw.BudgetTotalMicros > 0 {
			camp.Budget = models.Float64(models.FromMicros(raw.BudgetTotalMicros.Int()))
		}
		if filter.Matches(camp) {
			out = append(out, camp)
		}
	}
	return out, nil
}

type reportResponse struct {
	Data []struct {
		SpendMicros clients.Number `json:"spend_micros"`
		Impressions clients.Number `json:"impressions"`
		Clicks      clients.Number `json:"clicks"`
		Conversions clients.Number `json:"conversions"`
	} `json:"data"`
}

// Insights reads the ungrouped account report. Reddit reports no ROAS.
func (c *Client) Insights(ctx context.Context, r daterange.Range) (models.PlatformRecord, error) {
	if err := r.Validate(); err != nil {
		return models.PlatformRecord{}, err
	}
	query := url.Values{}
	query.Set("starts_at", r.StartDate)
	query.Set("ends_at", r.EndDate)
	query.Set("time_zone", "UTC")
	query.Set("group_by", "none")

	var resp reportResponse
	if err := c.call(ctx, "insights", http.MethodGet, c.accountPath("/reports"), query, nil, &resp); err != nil {
		return models.PlatformRecord{}, err
	}

	rec := models.PlatformRecord{
		Platform:    models.PlatformReddit,
		Spend:       models.Float64(0),
		Impressions: models.Int64(0),
		Clicks:      models.Int64(0),
		Conversions: models.Float64(0),
	}
	if len(resp.Data) > 0 {
		row := resp.Data[0]
		rec.Spend = models.Float64(models.FromMicros(row.SpendMicros.Int()))
		rec.Impressions = models.Int64(row.Impressions.Int())
		rec.Clicks = models.Int64(row.Clicks.Int())
		rec.Conversions = models.Float64(row.Conversions.Float())
	}
	rec.Normalize()
	return rec, nil
}

// UpdateCampaign patches configured_status and the budget in micros.
func (c *Client) UpdateCampaign(ctx context.Context, id string, update models.CampaignUpdate) (models.UpdateResult, error) {
	body := map[string]any{}
	if update.Status != nil {
		if *update.Status == models.CampaignActive {
			body["configured_status"] = "ACTIVE"
		} else {
			body["configured_status"] = "PAUSED"
		}
	}
	if update.DailyBudget != nil {
		body["budget_total_amount_micros"] = models.ToMicros(*update.DailyBudget)
	}
	payload := map[string]any{"data": body}
	if err := c.call(ctx, "update_campaign", http.MethodPatch, "/campaigns/"+url.PathEscape(id), nil, payload, nil); err != nil {
		return models.UpdateResult{}, err
	}
	return models.UpdateResult{Success: true, Message: "Campaign updated"}, nil
}

type conversionUser struct {
	Email      string `json:"email,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
}

type conversionMetadata struct {
	ConversionID string  `json:"conversion_id"`
	ItemCount    int     `json:"item_count"`
	Currency     string  `json:"currency"`
	ValueDecimal float64 `json:"value_decimal"`
}

type conversionEvent struct {
	EventAt       string             `json:"event_at"`
	EventType     map[string]string  `json:"event_type"`
	ClickID       string             `json:"click_id,omitempty"`
	User          *conversionUser    `json:"user,omitempty"`
	EventMetadata conversionMetadata `json:"event_metadata"`
}

// SendConversion posts the event to the conversions endpoint of the pixel,
// which defaults to the ad account.
func (c *Client) SendConversion(ctx context.Context, event models.ConversionEvent) (models.ConversionResult, error) {
	pixel := c.env.Get(EnvPixelID, c.env(EnvAdAccountID))
	payload := map[string]any{"events": []conversionEvent{c.buildEvent(event)}}

	path := "/ad_accounts/" + url.PathEscape(pixel) + "/conversions"
	if err := c.call(ctx, "conversion", http.MethodPost, path, nil, payload, nil); err != nil {
		return models.ConversionResult{}, err
	}
	return models.ConversionResult{Success: true, EventID: event.SharedEventID, Message: "Conversion sent"}, nil
}

func (c *Client) buildEvent(event models.ConversionEvent) conversionEvent {
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = c.now()
	}
	out := conversionEvent{
		EventAt:   occurred.UTC().Format(time.RFC3339),
		EventType: map[string]string{"tracking_type": string(event.EventType)},
		ClickID:   event.User.ClickID,
		EventMetadata: conversionMetadata{
			ConversionID: event.SharedEventID,
			ItemCount:    1,
			Currency:     event.Custom.Currency,
		},
	}
	if event.Custom.Value != nil {
		out.EventMetadata.ValueDecimal = *event.Custom.Value
	}
	user := conversionUser{
		Email:      pii.Hash(event.User.Email),
		ExternalID: pii.Hash(event.User.ExternalID),
		IPAddress:  event.User.IP,
		UserAgent:  event.User.UserAgent,
	}
	if user != (conversionUser{}) {
		out.User = &user
	}
	return out
}

// Probe reads the ad account to confirm the bearer token.
func (c *Client) Probe(ctx context.Context) (string, error) {
	var resp struct {
		Data struct {
			Name     string `json:"name"`
			Currency string `json:"currency"`
		} `json:"data"`
	}
	if err := c.call(ctx, "probe", http.MethodGet, c.accountPath(""), nil, nil, &resp); err != nil {
		return "", err
	}
	if resp.Data.Name == "" {
		return c.env(EnvAdAccountID), nil
	}
	return fmt.Sprintf("%s %s", resp.Data.Name, resp.Data.Currency), nil
}
