package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType is one of the conversion events every ad platform understands.
type EventType string

const (
	EventPurchase    EventType = "Purchase"
	EventAddToCart   EventType = "AddToCart"
	EventLead        EventType = "Lead"
	EventViewContent EventType = "ViewContent"
	EventPageVisit   EventType = "PageVisit"
	EventSearch      EventType = "Search"
	EventSignUp      EventType = "SignUp"
)

// SupportedEvents lists the closed event taxonomy in display order.
var SupportedEvents = []EventType{
	EventPurchase,
	EventAddToCart,
	EventLead,
	EventViewContent,
	EventPageVisit,
	EventSearch,
	EventSignUp,
}

// ParseEventType matches name case-insensitively against SupportedEvents.
func ParseEventType(name string) (EventType, bool) {
	for _, e := range SupportedEvents {
		if strings.EqualFold(string(e), strings.TrimSpace(name)) {
			return e, true
		}
	}
	return "", false
}

// UserData holds the raw identifiers of the converting user. Adapters hash
// everything except IP and UserAgent before it leaves the process.
type UserData struct {
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string `json:"phone,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	IP         string `json:"ip,omitempty" validate:"omitempty,ip"`
	UserAgent  string `json:"user_agent,omitempty"`
	ClickID    string `json:"click_id,omitempty"`
}

// CustomData holds the commercial details of the event.
type CustomData struct {
	Value              *float64 `json:"value,omitempty" validate:"omitempty,gte=0"`
	Currency           string   `json:"currency" validate:"required,len=3,alpha"`
	OrderID            string   `json:"order_id,omitempty"`
	URL                string   `json:"url,omitempty" validate:"omitempty,url"`
	GCLID              string   `json:"gclid,omitempty"`
	ConversionActionID string   `json:"conversion_action_id,omitempty"`
	ContentIDs         []string `json:"content_ids,omitempty"`
	ContentType        string   `json:"content_type,omitempty"`
}

// ConversionEvent is one logical conversion fanned out to every ad platform.
// SharedEventID is reused by every submission so platforms can deduplicate.
type ConversionEvent struct {
	EventType     EventType  `json:"event_type" validate:"required"`
	User          UserData   `json:"user"`
	Custom        CustomData `json:"custom"`
	SharedEventID string     `json:"event_id" validate:"required"`
	OccurredAt    time.Time  `json:"occurred_at" validate:"required"`
}

// ConversionResult reports one platform's acceptance of a conversion event.
type ConversionResult struct {
	Success bool   `json:"success"`
	EventID string `json:"event_id"`
	Message string `json:"message,omitempty"`
}

// NewEventID returns an identifier of the form evt_<unix millis>_<16 hex chars>.
func NewEventID(now time.Time) string {
	id := uuid.New()
	return "evt_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + strings.ReplaceAll(id.String(), "-", "")[:16]
}
