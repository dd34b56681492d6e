// Package tiktok implements the TikTok Marketing API and Events API adapter.
package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eimribar/ads-command-center/pkg/clients"
	"github.com/eimribar/ads-command-center/pkg/config"
	"github.com/eimribar/ads-command-center/pkg/daterange"
	"github.com/eimribar/ads-command-center/pkg/logging"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/pagination"
	"github.com/eimribar/ads-command-center/pkg/pii"
	"github.com/eimribar/ads-command-center/pkg/platform"
)

const (
	DefaultBaseURL = "https://business-api.tiktok.com/open_api/v1.3"

	EnvAccessToken  = "TIKTOK_ACCESS_TOKEN"
	EnvAdvertiserID = "TIKTOK_ADVERTISER_ID"
	EnvPixelID      = "TIKTOK_PIXEL_ID"
)

var eventNames = map[models.EventType]string{
	models.EventPurchase:  "CompletePayment",
	models.EventLead:      "SubmitForm",
	models.EventPageVisit: "PageView",
	models.EventSignUp:    "Registration",
}

var reportMetrics = []string{
	"spend", "impressions", "clicks", "ctr",
	"conversion", "cost_per_conversion", "total_complete_payment_value",
}

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

func (c *Client) ID() models.PlatformID { return models.PlatformTikTok }
func (c *Client) Name() string          { return models.PlatformTikTok.DisplayName() }

func (c *Client) IsConfigured() bool {
	return c.env.Has(EnvAccessToken, EnvAdvertiserID)
}

type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// call performs the request and unwraps TikTok's envelope. A non-zero code is
// an error even on HTTP 200.
func (c *Client) call(ctx context.Context, operation, method, path string, query url.Values, payload, out any) error {
	if !c.IsConfigured() {
		return platform.ErrNotConfigured
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	token := c.env(EnvAccessToken)
	build, err := clients.JSONRequest(method, endpoint, payload, func(req *http.Request) error {
		req.Header.Set("Access-Token", token)
		return nil
	})
	if err != nil {
		return err
	}

	var env envelope
	if err := c.requester.DoJSON(ctx, operation, method != http.MethodGet, build, &env); err != nil {
		return err
	}
	if env.Code != 0 {
		c.logger.WithFields(logging.Fields{
			"platform":   "tiktok",
			"code":       env.Code,
			"request_id": env.RequestID,
		}).Debug("vendor error")
		return clients.NewVendorError(c.Name(), env.Code, env.Message)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode TikTok %s data: %w", operation, err)
	}
	return nil
}

type campaignList struct {
	List []struct {
		CampaignID      string         `json:"campaign_id"`
		CampaignName    string         `json:"campaign_name"`
		OperationStatus string         `json:"operation_status"`
		Budget          clients.Number `json:"budget"`
		ObjectiveType   string         `json:"objective_type"`
	} `json:"list"`
	PageInfo struct {
		Page      int `json:"page"`
		TotalPage int `json:"total_page"`
	} `json:"page_info"`
}

func (c *Client) Campaigns(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, error) {
	query := url.Values{}
	query.Set("advertiser_id", c.env(EnvAdvertiserID))
	query.Set("page_size", "100")
	switch filter.Status {
	case models.CampaignActive:
		query.Set("filtering", `{"primary_status":"STATUS_ENABLE"}`)
	case models.CampaignPaused:
		query.Set("filtering", `{"primary_status":"STATUS_DISABLE"}`)
	}

	return pagination.Collect(ctx, pagination.MaxLimit, func(ctx context.Context, cursor string) (pagination.Page[models.Campaign], error) {
		page := pagination.PageNumber(cursor)
		query.Set("page", strconv.Itoa(page))
		var data campaignList
		if err := c.call(ctx, "campaigns", http.MethodGet, "/campaign/get/", query, nil, &data); err != nil {
			return pagination.Page[models.Campaign]{}, err
		}
		return pagination.Page[models.Campaign]{
			Items: mapCampaigns(data),
			Next:  pagination.NextPage(page, data.PageInfo.TotalPage),
		}, nil
	})
}

func mapCampaigns(data campaignList) []models.Campaign {
	out := make([]models.Campaign, 0, len(data.List))
	for _, raw := range data.List {
		camp := models.Campaign{
			Platform:  models.PlatformTikTok,
			ID:        raw.CampaignID,
			Name:      raw.CampaignName,
			Status:    models.ParseCampaignStatus(raw.OperationStatus),
			Objective: raw.ObjectiveType,
		}
		if raw.Budget > 0 {
			camp.Budget = models.Float64(raw.Budget.Float())
		}
		out = append(out, camp)
	}
	return out
}

type reportList struct {
	List []struct {
		Metrics struct {
			Spend        clients.Number `json:"spend"`
			Impressions  clients.Number `json:"impressions"`
			Clicks       clients.Number `json:"clicks"`
			Conversion   clients.Number `json:"conversion"`
			PaymentValue clients.Number `json:"total_complete_payment_value"`
		} `json:"metrics"`
	} `json:"list"`
}

// Insights sums the daily advertiser report rows over the range.
func (c *Client) Insights(ctx context.Context, r daterange.Range) (models.PlatformRecord, error) {
	if err := r.Validate(); err != nil {
		return models.PlatformRecord{}, err
	}
	metrics, _ := json.Marshal(reportMetrics)
	query := url.Values{}
	query.Set("advertiser_id", c.env(EnvAdvertiserID))
	query.Set("report_type", "BASIC")
	query.Set("data_level", "AUCTION_ADVERTISER")
	query.Set("dimensions", `["stat_time_day"]`)
	query.Set("metrics", string(metrics))
	query.Set("start_date", r.StartDate)
	query.Set("end_date", r.EndDate)
	query.Set("page_size", "1000")

	var data reportList
	if err := c.call(ctx, "insights", http.MethodGet, "/report/integrated/get/", query, nil, &data); err != nil {
		return models.PlatformRecord{}, err
	}

	var spend, conversions, value float64
	var impressions, clicks int64
	for _, row := range data.List {
		spend += row.Metrics.Spend.Float()
		impressions += row.Metrics.Impressions.Int()
		clicks += row.Metrics.Clicks.Int()
		conversions += row.Metrics.Conversion.Float()
		value += row.Metrics.PaymentValue.Float()
	}

	rec := models.PlatformRecord{
		Platform:        models.PlatformTikTok,
		Spend:           models.Float64(spend),
		Impressions:     models.Int64(impressions),
		Clicks:          models.Int64(clicks),
		Conversions:     models.Float64(conversions),
		ConversionValue: models.Float64(value),
	}
	if spend > 0 {
		rec.ROAS = models.Float64(value / spend)
	}
	rec.Normalize()
	return rec, nil
}

// UpdateCampaign uses the status endpoint for ENABLE/DISABLE and the campaign
// update endpoint for the budget, which TikTok takes in currency units. The two
// calls are not atomic: a budget failure after the status change is returned as
// a *platform.PartialUpdateError.
func (c *Client) UpdateCampaign(ctx context.Context, id string, update models.CampaignUpdate) (models.UpdateResult, error) {
	advertiserID := c.env(EnvAdvertiserID)
	var changed []string

	if update.Status != nil {
		status := "DISABLE"
		if *update.Status == models.CampaignActive {
			status = "ENABLE"
		}
		payload := map[string]any{
			"advertiser_id":    advertiserID,
			"campaign_ids":     []string{id},
			"operation_status": status,
		}
		if err := c.call(ctx, "update_campaign", http.MethodPost, "/campaign/update/status/", nil, payload, nil); err != nil {
			return models.UpdateResult{}, err
		}
		changed = append(changed, "status")
	}

	if update.DailyBudget != nil {
		payload := map[string]any{
			"advertiser_id": advertiserID,
			"campaign_id":   id,
			"budget":        models.RoundTo(*update.DailyBudget, 2),
		}
		if err := c.call(ctx, "update_budget", http.MethodPost, "/campaign/update/", nil, payload, nil); err != nil {
			if len(changed) > 0 {
				return models.UpdateResult{}, &platform.PartialUpdateError{Applied: changed, Failed: "budget", Err: err}
			}
			return models.UpdateResult{}, err
		}
		changed = append(changed, "budget")
	}

	return models.UpdateResult{Success: true, Message: "Updated " + strings.Join(changed, " and ")}, nil
}

type trackUser struct {
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone_number,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

type trackPage struct {
	URL string `json:"url"`
}

type trackAd struct {
	Callback string `json:"callback"`
}

type trackContext struct {
	User      trackUser  `json:"user"`
	Page      *trackPage `json:"page,omitempty"`
	Ad        *trackAd   `json:"ad,omitempty"`
	IP        string     `json:"ip,omitempty"`
	UserAgent string     `json:"user_agent,omitempty"`
}

type trackProperties struct {
	Value       *float64 `json:"value,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	ContentIDs  []string `json:"content_ids,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
	OrderID     string   `json:"order_id,omitempty"`
}

type trackEvent struct {
	PixelCode  string          `json:"pixel_code"`
	Event      string          `json:"event"`
	EventID    string          `json:"event_id"`
	Timestamp  string          `json:"timestamp"`
	Context    trackContext    `json:"context"`
	Properties trackProperties `json:"properties"`
}

// SendConversion posts the event to /pixel/track/. It needs TIKTOK_PIXEL_ID.
func (c *Client) SendConversion(ctx context.Context, event models.ConversionEvent) (models.ConversionResult, error) {
	if !c.IsConfigured() {
		return models.ConversionResult{}, platform.ErrNotConfigured
	}
	pixel := c.env(EnvPixelID)
	if pixel == "" {
		return models.ConversionResult{}, fmt.Errorf("%w: %s is not set", platform.ErrNotConfigured, EnvPixelID)
	}

	if err := c.call(ctx, "conversion", http.MethodPost, "/pixel/track/", nil, buildEvent(pixel, event, c.now()), nil); err != nil {
		return models.ConversionResult{}, err
	}
	return models.ConversionResult{Success: true, EventID: event.SharedEventID, Message: "Tracked"}, nil
}

func buildEvent(pixel string, event models.ConversionEvent, now time.Time) trackEvent {
	name, ok := eventNames[event.EventType]
	if !ok {
		name = string(event.EventType)
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}

	out := trackEvent{
		PixelCode: pixel,
		Event:     name,
		EventID:   event.SharedEventID,
		Timestamp: occurred.UTC().Format(time.RFC3339),
		Context: trackContext{
			User: trackUser{
				Email:      pii.Hash(event.User.Email),
				Phone:      pii.HashPhone(event.User.Phone),
				ExternalID: pii.Hash(event.User.ExternalID),
			},
			IP:        event.User.IP,
			UserAgent: event.User.UserAgent,
		},
		Properties: trackProperties{
			Value:       event.Custom.Value,
			ContentIDs:  event.Custom.ContentIDs,
			ContentType: event.Custom.ContentType,
			OrderID:     event.Custom.OrderID,
		},
	}
	if event.Custom.Value != nil {
		out.Properties.Currency = event.Custom.Currency
	}
	if event.Custom.URL != "" {
		out.Context.Page = &trackPage{URL: event.Custom.URL}
	}
	if event.User.ClickID != "" {
		out.Context.Ad = &trackAd{Callback: event.User.ClickID}
	}
	return out
}

// Probe fetches the advertiser record to confirm the access token.
func (c *Client) Probe(ctx context.Context) (string, error) {
	ids, _ := json.Marshal([]string{c.env(EnvAdvertiserID)})
	query := url.Values{"advertiser_ids": {string(ids)}}
	var data struct {
		List []struct {
			Name     string `json:"name"`
			Currency string `json:"currency"`
		} `json:"list"`
	}
	if err := c.call(ctx, "probe", http.MethodGet, "/advertiser/info/", query, nil, &data); err != nil {
		return "", err
	}
	if len(data.List) == 0 {
		return c.env(EnvAdvertiserID), nil
	}
	return strings.TrimSpace(data.List[0].Name + " " + data.List[0].Currency), nil
}
