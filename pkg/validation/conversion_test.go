package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/eimribar/ads-command-center/pkg/models"
)

func validEvent() models.ConversionEvent {
	return models.ConversionEvent{
		EventType:     models.EventPurchase,
		User:          models.UserData{Email: "buyer@example.com", IP: "203.0.113.7"},
		Custom:        models.CustomData{Value: models.Float64(49.99), Currency: "USD", URL: "https://www.example.com/checkout"},
		SharedEventID: "evt_1_abcdef0123456789",
		OccurredAt:    time.Now(),
	}
}

func TestValidateEvent_OK(t *testing.T) {
	v := NewConversionValidator()
	if err := v.ValidateEvent(validEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateEvent_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ConversionEvent)
		field  string
	}{
		{"unsupported event", func(e *models.ConversionEvent) { e.EventType = "Refund" }, "event_type"},
		{"bad email", func(e *models.ConversionEvent) { e.User.Email = "not-an-email" }, "email"},
		{"bad ip", func(e *models.ConversionEvent) { e.User.IP = "999.1.1.1" }, "ip"},
		{"bad url", func(e *models.ConversionEvent) { e.Custom.URL = "checkout" }, "url"},
		{"bad currency", func(e *models.ConversionEvent) { e.Custom.Currency = "US" }, "currency"},
		{"negative value", func(e *models.ConversionEvent) { e.Custom.Value = models.Float64(-1) }, "value"},
		{"missing event id", func(e *models.ConversionEvent) { e.SharedEventID = "" }, "event_id"},
	}
	v := NewConversionValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := validEvent()
			tt.mutate(&evt)
			err := v.ValidateEvent(evt)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !IsValidationError(err) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if vErr := err.(*Error); vErr.Field != tt.field {
				t.Fatalf("expected field %q, got %q (%v)", tt.field, vErr.Field, err)
			}
		})
	}
}

func TestValidateEvent_UnsupportedListsTaxonomy(t *testing.T) {
	evt := validEvent()
	evt.EventType = "Refund"
	err := NewConversionValidator().ValidateEvent(evt)
	if err == nil || !strings.Contains(err.Error(), "Purchase") {
		t.Fatalf("expected supported list in message, got %v", err)
	}
}

func TestValidateUpdate(t *testing.T) {
	v := NewConversionValidator()
	paused := models.CampaignPaused
	unknown := models.CampaignUnknown

	if err := v.ValidateUpdate("123", models.CampaignUpdate{Status: &paused}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.ValidateUpdate("", models.CampaignUpdate{Status: &paused}); err == nil {
		t.Fatal("expected error for missing id")
	}
	if err := v.ValidateUpdate("123", models.CampaignUpdate{}); err == nil {
		t.Fatal("expected error for empty update")
	}
	if err := v.ValidateUpdate("123", models.CampaignUpdate{Status: &unknown}); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if err := v.ValidateUpdate("123", models.CampaignUpdate{DailyBudget: models.Float64(0)}); err == nil {
		t.Fatal("expected error for zero budget")
	}
}
