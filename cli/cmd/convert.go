package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/eimribar/ads-command-center/pkg/aggregate"
	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/pii"
)

type convertOptions struct {
	email            string
	phone            string
	firstName        string
	lastName         string
	externalID       string
	ip               string
	userAgent        string
	clickID          string
	gclid            string
	conversionAction string
	value            float64
	order            string
	currency         string
	url              string
}

func newConvertCmd(opts *rootOptions) *cobra.Command {
	var o convertOptions
	events := make([]string, 0, len(models.SupportedEvents))
	for _, e := range models.SupportedEvents {
		events = append(events, string(e))
	}
	cmd := &cobra.Command{
		Use:   "convert <event>",
		Short: "Send one conversion event to every configured ad platform",
		Long: "Send one conversion event to every configured ad platform with a shared event id for deduplication.\n" +
			"Events: " + strings.Join(events, ", "),
		Example: `  ads convert Purchase --email jane@example.com --value 49.99 --order ord_123
  ads convert Lead --email jane@example.com --gclid Cj0KCQ...`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: events,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := opts.app
			event := o.event(app, args[0], cmd.Flags().Changed("value"))
			return runConvert(cmd, app, event)
		},
	}
	cmd.Flags().StringVar(&o.email, "email", "", "customer email (hashed before sending)")
	cmd.Flags().StringVar(&o.phone, "phone", "", "customer phone (normalized to E.164 and hashed)")
	cmd.Flags().StringVar(&o.firstName, "first-name", "", "customer first name (hashed)")
	cmd.Flags().StringVar(&o.lastName, "last-name", "", "customer last name (hashed)")
	cmd.Flags().StringVar(&o.externalID, "external-id", "", "your own customer id (hashed)")
	cmd.Flags().StringVar(&o.ip, "ip", "", "client IP address")
	cmd.Flags().StringVar(&o.userAgent, "user-agent", "", "client user agent")
	cmd.Flags().StringVar(&o.clickID, "click-id", "", "platform click id (fbclid, ttclid, rdt_cid)")
	cmd.Flags().StringVar(&o.gclid, "gclid", "", "Google click id (required for Google Ads)")
	cmd.Flags().StringVar(&o.conversionAction, "conversion-action", "", "Google Ads conversion action id (default GOOGLE_ADS_CONVERSION_ACTION_ID)")
	cmd.Flags().Float64Var(&o.value, "value", 0, "conversion value")
	cmd.Flags().StringVar(&o.order, "order", "", "order id")
	cmd.Flags().StringVar(&o.currency, "currency", "", "ISO currency code (default from config)")
	cmd.Flags().StringVar(&o.url, "url", "", "event source URL (default from config)")
	return cmd
}

func (o convertOptions) event(app *App, name string, hasValue bool) models.ConversionEvent {
	eventType, ok := models.ParseEventType(name)
	if !ok {
		eventType = models.EventType(name)
	}
	now := app.Now()
	event := models.ConversionEvent{
		EventType: eventType,
		User: models.UserData{
			Email:      strings.TrimSpace(o.email),
			Phone:      o.phone,
			FirstName:  o.firstName,
			LastName:   o.lastName,
			ExternalID: o.externalID,
			IP:         o.ip,
			UserAgent:  o.userAgent,
			ClickID:    o.clickID,
		},
		Custom: models.CustomData{
			Currency:           strings.ToUpper(firstSet(o.currency, app.Settings.Currency)),
			OrderID:            o.order,
			URL:                firstSet(o.url, app.Settings.EventSourceURL),
			GCLID:              o.gclid,
			ConversionActionID: o.conversionAction,
		},
		SharedEventID: models.NewEventID(now),
		OccurredAt:    now,
	}
	if hasValue {
		value := o.value
		event.Custom.Value = &value
	}
	return event
}

func runConvert(cmd *cobra.Command, app *App, event models.ConversionEvent) error {
	if err := app.Validator.ValidateEvent(event); err != nil {
		return err
	}
	adapters := app.Registry.AdPlatforms()
	if len(adapters) == 0 {
		return aggregate.ErrNoPlatforms
	}

	out := app.Render
	if !out.JSON() {
		out.Blank()
		out.Title("📤 Sending %s conversion", event.EventType)
		out.Line("  Event ID: %s", event.SharedEventID)
		if event.User.Email != "" {
			out.Line("  Email:    %s", pii.MaskEmail(event.User.Email))
		}
		if event.Custom.Value != nil {
			out.Line("  Value:    %s %s", models.FormatMoney(*event.Custom.Value), event.Custom.Currency)
		}
		if event.Custom.OrderID != "" {
			out.Line("  Order:    %s", event.Custom.OrderID)
		}
		out.Blank()
	}

	results, failures := aggregate.SendConversion(cmd.Context(), adapters, event, app.fanOutOptions("conversion"))

	if out.JSON() {
		return out.WriteJSON(map[string]any{
			"event_id": event.SharedEventID,
			"results":  results,
			"failures": failures,
		})
	}

	attempted, succeeded := 0, 0
	for _, r := range results {
		switch {
		case r.Skipped:
			out.Dim("  - %s: skipped (%s)", r.Name, r.Error)
			continue
		case r.Error != "":
			out.Fail("%s: %s", r.Name, r.Error)
		case r.Result.Success:
			succeeded++
			out.Success("%s: %s", r.Name, firstSet(r.Result.Message, "accepted"))
		default:
			out.Fail("%s: %s", r.Name, firstSet(r.Result.Message, "rejected"))
		}
		attempted++
	}

	out.Blank()
	switch {
	case attempted > 0 && succeeded == attempted:
		out.Success("Conversion sent to all %d platforms", attempted)
	case succeeded > 0:
		out.Warn("Conversion sent to %d/%d platforms", succeeded, attempted)
	default:
		out.Fail("Failed to send conversion to any platform")
	}
	return nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
