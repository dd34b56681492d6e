package models

import "strings"

// CampaignStatus is the normalized delivery state of a campaign.
type CampaignStatus string

const (
	CampaignActive  CampaignStatus = "active"
	CampaignPaused  CampaignStatus = "paused"
	CampaignUnknown CampaignStatus = "unknown"
)

// ParseCampaignStatus maps a vendor status string onto the normalized set.
func ParseCampaignStatus(s string) CampaignStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACTIVE", "ENABLED", "ENABLE", "CAMPAIGN_STATUS_ENABLE", "STATUS_ENABLE":
		return CampaignActive
	case "PAUSED", "DISABLE", "DISABLED", "CAMPAIGN_STATUS_DISABLE", "STATUS_DISABLE":
		return CampaignPaused
	default:
		return CampaignUnknown
	}
}

// Campaign is a normalized campaign row. ID is only unique within Platform.
type Campaign struct {
	Platform  PlatformID     `json:"platform"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Status    CampaignStatus `json:"status"`
	Budget    *float64       `json:"budget"`
	Spend     float64        `json:"spend"`
	Results   float64        `json:"results"`
	Objective string         `json:"objective,omitempty"`
}

// Key returns the platform qualified campaign identifier.
func (c Campaign) Key() string {
	return string(c.Platform) + ":" + c.ID
}

// CampaignFilter narrows a campaign listing. An empty Status lists everything.
type CampaignFilter struct {
	Status CampaignStatus
}

// Matches reports whether c passes the filter.
func (f CampaignFilter) Matches(c Campaign) bool {
	return f.Status == "" || c.Status == f.Status
}

// CampaignUpdate is a partial change to a campaign. Nil fields are left untouched.
type CampaignUpdate struct {
	Status      *CampaignStatus `json:"status,omitempty" validate:"omitempty,oneof=active paused"`
	DailyBudget *float64        `json:"daily_budget,omitempty" validate:"omitempty,gt=0"`
}

// IsEmpty reports whether the update carries no change.
func (u CampaignUpdate) IsEmpty() bool {
	return u.Status == nil && u.DailyBudget == nil
}

// UpdateResult reports the outcome of a campaign mutation.
type UpdateResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
