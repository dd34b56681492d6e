// Package meta implements the Meta (Facebook) Marketing API and Conversions API adapter.
package meta

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
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v21.0"

	EnvAccessToken = "META_ACCESS_TOKEN"
	EnvAdAccountID = "META_AD_ACCOUNT_ID"
	EnvPixelID     = "META_PIXEL_ID"
	EnvAPIVersion  = "META_API_VERSION"

	campaignFields = "id,name,status,effective_status,objective,daily_budget,lifetime_budget,insights{spend,actions}"
	insightFields  = "spend,impressions,clicks,ctr,actions,cost_per_action_type,purchase_roas"
)

var eventNames = map[models.EventType]string{
	models.EventPageVisit: "PageView",
	models.EventSignUp:    "CompleteRegistration",
}

type Client struct {
	env       config.Lookup
	baseURL   string
	requester *clients.Requester
	logger    logging.Logger
	now       func() time.Time
}

type Option func(*Client)

// WithBaseURL points the client at a different Graph API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithRequester replaces the HTTP requester.
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

// WithClock replaces time.Now for event timestamps.
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

func (c *Client) ID() models.PlatformID { return models.PlatformMeta }
func (c *Client) Name() string          { return models.PlatformMeta.DisplayName() }

func (c *Client) IsConfigured() bool {
	return c.env.Has(EnvAccessToken, EnvAdAccountID)
}

type credentials struct {
	token     string
	accountID string
	pixelID   string
	version   string
}

func (c *Client) credentials() (credentials, error) {
	if !c.IsConfigured() {
		return credentials{}, platform.ErrNotConfigured
	}
	account := c.env(EnvAdAccountID)
	if !strings.HasPrefix(account, "act_") {
		account = "act_" + account
	}
	return credentials{
		token:     c.env(EnvAccessToken),
		accountID: account,
		pixelID:   c.env(EnvPixelID),
		version:   c.env.Get(EnvAPIVersion, DefaultAPIVersion),
	}, nil
}

func (c *Client) endpoint(creds credentials, path string, query url.Values) string {
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, creds.version, strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) get(ctx context.Context, creds credentials, operation, path string, query url.Values, out any) error {
	build, err := clients.JSONRequest(http.MethodGet, c.endpoint(creds, path, query), nil, clients.BearerAuth(creds.token))
	if err != nil {
		return err
	}
	return c.requester.DoJSON(ctx, operation, false, build, out)
}

type actionValue struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

func sumActions(actions []actionValue, types ...string) float64 {
	var total float64
	for _, a := range actions {
		for _, t := range types {
			if a.ActionType == t {
				total += models.ParseAmount(a.Value)
			}
		}
	}
	return total
}

func findAction(actions []actionValue, actionType string) (float64, bool) {
	for _, a := range actions {
		if a.ActionType == actionType {
			return models.ParseAmount(a.Value), true
		}
	}
	return 0, false
}

type campaignResponse struct {
	Data []struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		Status          string `json:"status"`
		EffectiveStatus string `json:"effective_status"`
		Objective       string `json:"objective"`
		DailyBudget     string `json:"daily_budget"`
		LifetimeBudget  string `json:"lifetime_budget"`
		Insights        struct {
			Data []struct {
				Spend   string        `json:"spend"`
				Actions []actionValue `json:"actions"`
			} `json:"data"`
		} `json:"insights"`
	} `json:"data"`
	Paging struct {
		Cursors struct {
			After string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next"`
	} `json:"paging"`
}

// Campaigns lists the ad account's campaigns, following "after" cursors up to
// pagination.MaxLimit. Budgets are converted from cents.
func (c *Client) Campaigns(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, error) {
	creds, err := c.credentials()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("fields", campaignFields)
	query.Set("limit", strconv.Itoa(pagination.DefaultLimit))
	switch filter.Status {
	case models.CampaignActive:
		query.Set("effective_status", `["ACTIVE"]`)
	case models.CampaignPaused:
		query.Set("effective_status", `["PAUSED","CAMPAIGN_PAUSED"]`)
	}

	return pagination.Collect(ctx, pagination.MaxLimit, func(ctx context.Context, cursor string) (pagination.Page[models.Campaign], error) {
		if cursor != "" {
			query.Set("after", cursor)
		}
		var resp campaignResponse
		if err := c.get(ctx, creds, "campaigns", creds.accountID+"/campaigns", query, &resp); err != nil {
			return pagination.Page[models.Campaign]{}, err
		}
		page := pagination.Page[models.Campaign]{Items: mapCampaigns(resp)}
		if resp.Paging.Next != "" {
			page.Next = resp.Paging.Cursors.After
		}
		return page, nil
	})
}

func mapCampaigns(resp campaignResponse) []models.Campaign {
	out := make([]models.Campaign, 0, len(resp.Data))
	for _, raw := range resp.Data {
		camp := models.Campaign{
			Platform:  models.PlatformMeta,
			ID:        raw.ID,
			Name:      raw.Name,
			Status:    models.ParseCampaignStatus(firstNonEmpty(raw.EffectiveStatus, raw.Status)),
			Objective: raw.Objective,
		}
		if cents := firstNonEmpty(raw.DailyBudget, raw.LifetimeBudget); cents != "" {
			if v, err := strconv.ParseInt(cents, 10, 64); err == nil {
				camp.Budget = models.Float64(models.FromMinorUnits(v))
			}
		}
		if len(raw.Insights.Data) > 0 {
			ins := raw.Insights.Data[0]
			camp.Spend = models.ParseAmount(ins.Spend)
			camp.Results = sumActions(ins.Actions, "purchase", "lead")
		}
		out = append(out, camp)
	}
	return out
}

type insightsResponse struct {
	Data []struct {
		Spend             string        `json:"spend"`
		Impressions       string        `json:"impressions"`
		Clicks            string        `json:"clicks"`
		CTR               string        `json:"ctr"`
		Actions           []actionValue `json:"actions"`
		CostPerActionType []actionValue `json:"cost_per_action_type"`
		PurchaseROAS      []actionValue `json:"purchase_roas"`
	} `json:"data"`
}

// Insights returns account level performance. Conversions are purchases plus leads;
// the vendor's purchase cost per action is kept as CPA when present.
func (c *Client) Insights(ctx context.Context, r daterange.Range) (models.PlatformRecord, error) {
	creds, err := c.credentials()
	if err != nil {
		return models.PlatformRecord{}, err
	}
	if err := r.Validate(); err != nil {
		return models.PlatformRecord{}, err
	}

	timeRange, _ := json.Marshal(map[string]string{"since": r.StartDate, "until": r.EndDate})
	query := url.Values{}
	query.Set("fields", insightFields)
	query.Set("time_range", string(timeRange))
	query.Set("level", "account")

	var resp insightsResponse
	if err := c.get(ctx, creds, "insights", creds.accountID+"/insights", query, &resp); err != nil {
		return models.PlatformRecord{}, err
	}

	rec := models.PlatformRecord{
		Platform:    models.PlatformMeta,
		Spend:       models.Float64(0),
		Impressions: models.Int64(0),
		Clicks:      models.Int64(0),
		Conversions: models.Float64(0),
	}
	if len(resp.Data) == 0 {
		return rec, nil
	}
	row := resp.Data[0]
	rec.Spend = models.Float64(models.ParseAmount(row.Spend))
	rec.Impressions = models.Int64(int64(models.ParseAmount(row.Impressions)))
	rec.Clicks = models.Int64(int64(models.ParseAmount(row.Clicks)))
	if row.CTR != "" {
		rec.CTR = models.Float64(models.ParseAmount(row.CTR))
	}
	rec.Conversions = models.Float64(sumActions(row.Actions, "purchase", "lead"))
	if cpa, ok := findAction(row.CostPerActionType, "purchase"); ok && cpa > 0 {
		rec.CPA = models.Float64(cpa)
	}
	if len(row.PurchaseROAS) > 0 {
		rec.ROAS = models.Float64(models.ParseAmount(row.PurchaseROAS[0].Value))
	}
	rec.Normalize()
	return rec, nil
}

// UpdateCampaign sets status (ACTIVE/PAUSED) and/or the daily budget in cents.
func (c *Client) UpdateCampaign(ctx context.Context, id string, update models.CampaignUpdate) (models.UpdateResult, error) {
	creds, err := c.credentials()
	if err != nil {
		return models.UpdateResult{}, err
	}

	form := url.Values{}
	if update.Status != nil {
		switch *update.Status {
		case models.CampaignActive:
			form.Set("status", "ACTIVE")
		case models.CampaignPaused:
			form.Set("status", "PAUSED")
		default:
			return models.UpdateResult{}, fmt.Errorf("unsupported status %q", *update.Status)
		}
	}
	if update.DailyBudget != nil {
		form.Set("daily_budget", strconv.FormatInt(models.ToMinorUnits(*update.DailyBudget), 10))
	}

	endpoint := c.endpoint(creds, url.PathEscape(id), nil)
	body := form.Encode()
	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+creds.token)
		return req, nil
	}

	var resp struct {
		Success *bool `json:"success"`
	}
	if err := c.requester.DoJSON(ctx, "update_campaign", true, build, &resp); err != nil {
		return models.UpdateResult{}, err
	}
	if resp.Success != nil && !*resp.Success {
		return models.UpdateResult{Success: false, Message: "Meta rejected the update"}, nil
	}
	return models.UpdateResult{Success: true, Message: "Campaign updated"}, nil
}

type capiUserData struct {
	Email      []string `json:"em,omitempty"`
	Phone      []string `json:"ph,omitempty"`
	FirstName  []string `json:"fn,omitempty"`
	LastName   []string `json:"ln,omitempty"`
	ExternalID []string `json:"external_id,omitempty"`
	IP         string   `json:"client_ip_address,omitempty"`
	UserAgent  string   `json:"client_user_agent,omitempty"`
	ClickID    string   `json:"fbc,omitempty"`
}

type capiCustomData struct {
	Currency    string   `json:"currency,omitempty"`
	Value       *float64 `json:"value,omitempty"`
	OrderID     string   `json:"order_id,omitempty"`
	ContentIDs  []string `json:"content_ids,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
}

type capiEvent struct {
	EventName      string          `json:"event_name"`
	EventTime      int64           `json:"event_time"`
	EventID        string          `json:"event_id"`
	EventSourceURL string          `json:"event_source_url,omitempty"`
	ActionSource   string          `json:"action_source"`
	UserData       capiUserData    `json:"user_data"`
	CustomData     *capiCustomData `json:"custom_data,omitempty"`
}

// SendConversion posts the event to the Conversions API. It needs META_PIXEL_ID.
func (c *Client) SendConversion(ctx context.Context, event models.ConversionEvent) (models.ConversionResult, error) {
	creds, err := c.credentials()
	if err != nil {
		return models.ConversionResult{}, err
	}
	if creds.pixelID == "" {
		return models.ConversionResult{}, fmt.Errorf("%w: %s is not set", platform.ErrNotConfigured, EnvPixelID)
	}

	payload := struct {
		Data []capiEvent `json:"data"`
	}{Data: []capiEvent{buildEvent(event, c.now())}}

	build, err := clients.JSONRequest(http.MethodPost, c.endpoint(creds, creds.pixelID+"/events", nil), payload, clients.BearerAuth(creds.token))
	if err != nil {
		return models.ConversionResult{}, err
	}

	var resp struct {
		EventsReceived int    `json:"events_received"`
		FBTraceID      string `json:"fbtrace_id"`
	}
	if err := c.requester.DoJSON(ctx, "conversion", true, build, &resp); err != nil {
		return models.ConversionResult{}, err
	}
	c.logger.WithFields(logging.Fields{
		"platform": "meta",
		"event_id": event.SharedEventID,
		"received": resp.EventsReceived,
	}).Debug("conversion sent")

	return models.ConversionResult{
		Success: resp.EventsReceived == 1,
		EventID: event.SharedEventID,
		Message: fmt.Sprintf("Received: %d", resp.EventsReceived),
	}, nil
}

func buildEvent(event models.ConversionEvent, now time.Time) capiEvent {
	name, ok := eventNames[event.EventType]
	if !ok {
		name = string(event.EventType)
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}

	user := capiUserData{
		IP:        event.User.IP,
		UserAgent: event.User.UserAgent,
		ClickID:   event.User.ClickID,
	}
	if h := pii.Hash(event.User.Email); h != "" {
		user.Email = []string{h}
	}
	if h := pii.HashPhone(event.User.Phone); h != "" {
		user.Phone = []string{h}
	}
	if h := pii.Hash(event.User.FirstName); h != "" {
		user.FirstName = []string{h}
	}
	if h := pii.Hash(event.User.LastName); h != "" {
		user.LastName = []string{h}
	}
	if h := pii.Hash(event.User.ExternalID); h != "" {
		user.ExternalID = []string{h}
	}

	out := capiEvent{
		EventName:      name,
		EventTime:      occurred.Unix(),
		EventID:        event.SharedEventID,
		EventSourceURL: event.Custom.URL,
		ActionSource:   "website",
		UserData:       user,
	}
	if event.Custom.Value != nil || event.Custom.OrderID != "" || len(event.Custom.ContentIDs) > 0 {
		out.CustomData = &capiCustomData{
			Currency:    event.Custom.Currency,
			Value:       event.Custom.Value,
			OrderID:     event.Custom.OrderID,
			ContentIDs:  event.Custom.ContentIDs,
			ContentType: event.Custom.ContentType,
		}
	}
	return out
}

// PixelEventCount is one row of pixel statistics.
type PixelEventCount struct {
	Event string `json:"event"`
	Count int64  `json:"count"`
}

// PixelStats returns recent per-event counts for the configured pixel.
func (c *Client) PixelStats(ctx context.Context) ([]PixelEventCount, error) {
	creds, err := c.credentials()
	if err != nil {
		return nil, err
	}
	if creds.pixelID == "" {
		return nil, fmt.Errorf("%w: %s is not set", platform.ErrNotConfigured, EnvPixelID)
	}

	var resp struct {
		Data []struct {
			Data []struct {
				Value string `json:"value"`
				Count int64  `json:"count"`
			} `json:"data"`
		} `json:"data"`
	}
	query := url.Values{"aggregation": {"event"}}
	if err := c.get(ctx, creds, "pixel_stats", creds.pixelID+"/stats", query, &resp); err != nil {
		return nil, err
	}

	totals := map[string]int64{}
	var order []string
	for _, bucket := range resp.Data {
		for _, row := range bucket.Data {
			if _, seen := totals[row.Value]; !seen {
				order = append(order, row.Value)
			}
			totals[row.Value] += row.Count
		}
	}
	out := make([]PixelEventCount, 0, len(order))
	for _, name := range order {
		out = append(out, PixelEventCount{Event: name, Count: totals[name]})
	}
	return out, nil
}

// Probe fetches the ad account name to confirm the token works.
func (c *Client) Probe(ctx context.Context) (string, error) {
	creds, err := c.credentials()
	if err != nil {
		return "", err
	}
	var resp struct {
		Name     string `json:"name"`
		Currency string `json:"currency"`
	}
	if err := c.get(ctx, creds, "probe", creds.accountID, url.Values{"fields": {"name,currency"}}, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Name + " " + resp.Currency), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
