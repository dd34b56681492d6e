// Package googleads implements the Google Ads REST adapter.
package googleads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eimribar/ads-command-center/pkg/auth"
	"github.com/eimribar/ads-command-center/pkg/clients"
	"github.com/eimribar/ads-command-center/pkg/config"
	"github.com/eimribar/ads-command-center/pkg/daterange"
	"github.com/eimribar/ads-command-center/pkg/logging"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/platform"
	"github.com/eimribar/ads-command-center/pkg/validation"
)

const (
	DefaultBaseURL = "https://googleads.googleapis.com"
	APIVersion     = "v18"

	EnvDeveloperToken     = "GOOGLE_ADS_DEVELOPER_TOKEN"
	EnvClientID           = "GOOGLE_ADS_CLIENT_ID"
	EnvClientSecret       = "GOOGLE_ADS_CLIENT_SECRET"
	EnvRefreshToken       = "GOOGLE_ADS_REFRESH_TOKEN"
	EnvCustomerID         = "GOOGLE_ADS_CUSTOMER_ID"
	EnvLoginCustomerID    = "GOOGLE_ADS_LOGIN_CUSTOMER_ID"
	EnvConversionActionID = "GOOGLE_ADS_CONVERSION_ACTION_ID"

	conversionTimeLayout = "2006-01-02 15:04:05-07:00"
)

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
	override  auth.TokenProvider
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTokenURL points refresh exchanges at a different OAuth endpoint.
func WithTokenURL(tokenURL string) Option {
	return func(c *Client) { c.tokenURL = tokenURL }
}

// WithTokenProvider bypasses the refresh token exchange.
func WithTokenProvider(p auth.TokenProvider) Option {
	return func(c *Client) { c.override = p }
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

func (c *Client) ID() models.PlatformID { return models.PlatformGoogle }
func (c *Client) Name() string          { return models.PlatformGoogle.DisplayName() }

func (c *Client) IsConfigured() bool {
	return c.env.Has(EnvDeveloperToken, EnvClientID, EnvRefreshToken, EnvCustomerID)
}

type credentials struct {
	developerToken  string
	customerID      string
	loginCustomerID string
}

func (c *Client) credentials() (credentials, error) {
	if !c.IsConfigured() {
		return credentials{}, platform.ErrNotConfigured
	}
	return credentials{
		developerToken:  c.env(EnvDeveloperToken),
		customerID:      strings.ReplaceAll(c.env(EnvCustomerID), "-", ""),
		loginCustomerID: strings.ReplaceAll(c.env(EnvLoginCustomerID), "-", ""),
	}, nil
}

// tokenProvider returns a refresh token source, rebuilt only when the OAuth
// credentials in the environment change.
func (c *Client) tokenProvider() auth.TokenProvider {
	if c.override != nil {
		return c.override
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

func (c *Client) customerURL(creds credentials, suffix string) string {
	return fmt.Sprintf("%s/%s/customers/%s%s", c.baseURL, APIVersion, creds.customerID, suffix)
}

// call sends payload to url with Google Ads headers. A 401 invalidates the
// cached access token and a read is tried once more with a fresh one.
func (c *Client) call(ctx context.Context, creds credentials, operation string, mutation bool, url string, payload, out any) error {
	tokens := c.tokenProvider()
	attempt := func() error {
		token, err := tokens.Token(ctx)
		if err != nil {
			return err
		}
		build, err := clients.JSONRequest(http.MethodPost, url, payload, func(req *http.Request) error {
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("developer-token", creds.developerToken)
			if creds.loginCustomerID != "" {
				req.Header.Set("login-customer-id", creds.loginCustomerID)
			}
			return nil
		})
		if err != nil {
			return err
		}
		return c.requester.DoJSON(ctx, operation, mutation, build, out)
	}

	err := attempt()
	if clients.IsAuthError(err) {
		tokens.Invalidate()
		if !mutation {
			c.logger.WithField("platform", "google").Debug("access token rejected, refreshing")
			err = attempt()
		}
	}
	return err
}

type searchRow struct {
	Customer struct {
		DescriptiveName string `json:"descriptiveName"`
		CurrencyCode    string `json:"currencyCode"`
	} `json:"customer"`
	Campaign struct {
		ID                     string `json:"id"`
		Name                   string `json:"name"`
		Status                 string `json:"status"`
		AdvertisingChannelType string `json:"advertisingChannelType"`
		CampaignBudget         string `json:"campaignBudget"`
	} `json:"campaign"`
	CampaignBudget struct {
		AmountMicros clients.Number `json:"amountMicros"`
	} `json:"campaignBudget"`
	Metrics struct {
		Impressions      clients.Number `json:"impressions"`
		Clicks           clients.Number `json:"clicks"`
		CostMicros       clients.Number `json:"costMicros"`
		Conversions      clients.Number `json:"conversions"`
		ConversionsValue clients.Number `json:"conversionsValue"`
	} `json:"metrics"`
}

type streamChunk struct {
	Results []searchRow `json:"results"`
}

// search runs a GAQL query through searchStream and flattens the chunks.
func (c *Client) search(ctx context.Context, creds credentials, operation, query string) ([]searchRow, error) {
	var chunks []streamChunk
	payload := map[string]string{"query": query}
	if err := c.call(ctx, creds, operation, false, c.customerURL(creds, "/googleAds:searchStream"), payload, &chunks); err != nil {
		return nil, err
	}
	var rows []searchRow
	for _, chunk := range chunks {
		rows = append(rows, chunk.Results...)
	}
	return rows, nil
}

func (c *Client) Campaigns(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, error) {
	creds, err := c.credentials()
	if err != nil {
		return nil, err
	}

	query := "SELECT campaign.id, campaign.name, campaign.status, campaign.advertising_channel_type, " +
		"campaign_budget.amount_micros, metrics.cost_micros, metrics.conversions FROM campaign"
	switch filter.Status {
	case models.CampaignActive:
		query += " WHERE campaign.status = 'ENABLED'"
	case models.CampaignPaused:
		query += " WHERE campaign.status = 'PAUSED'"
	default:
		query += " WHERE campaign.status != 'REMOVED'"
	}
	query += " ORDER BY campaign.name"

	rows, err := c.search(ctx, creds, "campaigns", query)
	if err != nil {
		return nil, err
	}

	out := make([]models.Campaign, 0, len(rows))
	for _, row := range rows {
		camp := models.Campaign{
			Platform:  models.PlatformGoogle,
			ID:        row.Campaign.ID,
			Name:      row.Campaign.Name,
			Status:    models.ParseCampaignStatus(row.Campaign.Status),
			Objective: row.Campaign.AdvertisingChannelType,
			Spend:     models.FromMicros(row.Metrics.CostMicros.Int()),
			Results:   row.Metrics.Conversions.Float(),
		}
		if row.CampaignBudget.AmountMicros > 0 {
			camp.Budget = models.Float64(models.FromMicros(row.CampaignBudget.AmountMicros.Int()))
		}
		out = append(out, camp)
	}
	return out, nil
}

// Insights sums customer level metrics over the range. Dates are validated
// before they are interpolated into the query.
func (c *Client) Insights(ctx context.Context, r daterange.Range) (models.PlatformRecord, error) {
	creds, err := c.credentials()
	if err != nil {
		return models.PlatformRecord{}, err
	}
	if err := r.Validate(); err != nil {
		return models.PlatformRecord{}, err
	}

	query := fmt.Sprintf("SELECT metrics.impressions, metrics.clicks, metrics.cost_micros, metrics.conversions, "+
		"metrics.conversions_value FROM customer WHERE segments.date BETWEEN '%s' AND '%s'", r.StartDate, r.EndDate)
	rows, err := c.search(ctx, creds, "insights", query)
	if err != nil {
		return models.PlatformRecord{}, err
	}

	var impressions, clicks, costMicros int64
	var conversions, value float64
	for _, row := range rows {
		impressions += row.Metrics.Impressions.Int()
		clicks += row.Metrics.Clicks.Int()
		costMicros += row.Metrics.CostMicros.Int()
		conversions += row.Metrics.Conversions.Float()
		value += row.Metrics.ConversionsValue.Float()
	}

	spend := models.FromMicros(costMicros)
	rec := models.PlatformRecord{
		Platform:        models.PlatformGoogle,
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

type mutateResponse struct {
	MutateOperationResponses []map[string]any `json:"mutateOperationResponses"`
}

// UpdateCampaign changes campaign status and/or the amount of its budget
// resource. The budget resource is looked up first; both changes then go out
// in one googleAds:mutate request, which Google applies atomically.
func (c *Client) UpdateCampaign(ctx context.Context, id string, update models.CampaignUpdate) (models.UpdateResult, error) {
	creds, err := c.credentials()
	if err != nil {
		return models.UpdateResult{}, err
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return models.UpdateResult{}, validation.Errorf("id", "Google Ads campaign ids are numeric, got %q", id)
	}

	var (
		operations []map[string]any
		changed    []string
	)
	if update.Status != nil {
		status := "PAUSED"
		if *update.Status == models.CampaignActive {
			status = "ENABLED"
		}
		operations = append(operations, map[string]any{
			"campaignOperation": map[string]any{
				"update": map[string]any{
					"resourceName": fmt.Sprintf("customers/%s/campaigns/%s", creds.customerID, id),
					"status":       status,
				},
				"updateMask": "status",
			},
		})
		changed = append(changed, "status")
	}

	if update.DailyBudget != nil {
		rows, err := c.search(ctx, creds, "campaign_budget",
			"SELECT campaign.campaign_budget FROM campaign WHERE campaign.id = "+id)
		if err != nil {
			return models.UpdateResult{}, err
		}
		if len(rows) == 0 || rows[0].Campaign.CampaignBudget == "" {
			return models.UpdateResult{Success: false, Message: "campaign budget not found"}, nil
		}
		operations = append(operations, map[string]any{
			"campaignBudgetOperation": map[string]any{
				"update": map[string]any{
					"resourceName": rows[0].Campaign.CampaignBudget,
					"amountMicros": strconv.FormatInt(models.ToMicros(*update.DailyBudget), 10),
				},
				"updateMask": "amount_micros",
			},
		})
		changed = append(changed, "budget")
	}

	if len(operations) == 0 {
		return models.UpdateResult{}, validation.Errorf("update", "nothing to change")
	}
	payload := map[string]any{"mutateOperations": operations}
	var resp mutateResponse
	if err := c.call(ctx, creds, "update_campaign", true, c.customerURL(creds, "/googleAds:mutate"), payload, &resp); err != nil {
		return models.UpdateResult{}, err
	}
	return models.UpdateResult{Success: true, Message: "Updated " + strings.Join(changed, " and ")}, nil
}

// SendConversion uploads an offline click conversion. It needs the GCLID of the
// ad click and a conversion action.
func (c *Client) SendConversion(ctx context.Context, event models.ConversionEvent) (models.ConversionResult, error) {
	creds, err := c.credentials()
	if err != nil {
		return models.ConversionResult{}, err
	}
	if event.Custom.GCLID == "" {
		return models.ConversionResult{}, validation.Errorf("gclid", "GCLID required for Google Ads conversions")
	}
	actionID := event.Custom.ConversionActionID
	if actionID == "" {
		actionID = c.env(EnvConversionActionID)
	}
	if actionID == "" {
		return models.ConversionResult{}, validation.Errorf("conversion_action_id",
			"conversion action required; pass --conversion-action or set %s", EnvConversionActionID)
	}

	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = c.now()
	}
	conversion := map[string]any{
		"gclid":              event.Custom.GCLID,
		"conversionAction":   fmt.Sprintf("customers/%s/conversionActions/%s", creds.customerID, actionID),
		"conversionDateTime": occurred.UTC().Format(conversionTimeLayout),
	}
	if event.Custom.Value != nil {
		conversion["conversionValue"] = *event.Custom.Value
		conversion["currencyCode"] = event.Custom.Currency
	}
	if event.Custom.OrderID != "" {
		conversion["orderId"] = event.Custom.OrderID
	}
	payload := map[string]any{
		"conversions":    []map[string]any{conversion},
		"partialFailure": true,
	}

	var resp struct {
		Results             []map[string]any `json:"results"`
		PartialFailureError *struct {
			Message string `json:"message"`
		} `json:"partialFailureError"`
	}
	if err := c.call(ctx, creds, "conversion", true, c.customerURL(creds, ":uploadClickConversions"), payload, &resp); err != nil {
		return models.ConversionResult{}, err
	}
	if resp.PartialFailureError != nil && resp.PartialFailureError.Message != "" {
		return models.ConversionResult{Success: false, EventID: event.SharedEventID, Message: resp.PartialFailureError.Message}, nil
	}
	return models.ConversionResult{
		Success: true,
		EventID: event.SharedEventID,
		Message: fmt.Sprintf("Uploaded: %d", len(resp.Results)),
	}, nil
}

// Probe reads the customer name to confirm the OAuth and developer credentials.
func (c *Client) Probe(ctx context.Context) (string, error) {
	creds, err := c.credentials()
	if err != nil {
		return "", err
	}
	rows, err := c.search(ctx, creds, "probe",
		"SELECT customer.descriptive_name, customer.currency_code FROM customer LIMIT 1")
	if err != nil {
		if errors.Is(err, auth.ErrNoRefreshToken) {
			return "", fmt.Errorf("%w: %v", platform.ErrNotConfigured, err)
		}
		return "", err
	}
	if len(rows) == 0 {
		return creds.customerID, nil
	}
	return strings.TrimSpace(rows[0].Customer.DescriptiveName + " " + rows[0].Customer.CurrencyCode), nil
}
