package transport

import (
	"time"

	"github.com/google/uuid"
)

// Enum values
type LeadSource string

const (
	LeadSourceWebsite       LeadSource = "Website"
	LeadSourceReferral      LeadSource = "Referral"
	LeadSourceChatbot       LeadSource = "Chatbot"
	LeadSourceAdvertisement LeadSource = "Advertisement"
	LeadSourceSocialMedia   LeadSource = "Social Media"
)

type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "New"
	LeadStatusContacted   LeadStatus = "Contacted"
	LeadStatusQualified   LeadStatus = "Qualified"
	LeadStatusScheduled   LeadStatus = "Scheduled"
	LeadStatusInTreatment LeadStatus = "In Treatment"
	LeadStatusClosed      LeadStatus = "Closed"
)

// UTMParams carries campaign attribution captured at intake time.
type UTMParams struct {
	Source   string `json:"utmSource,omitempty"`
	Medium   string `json:"utmMedium,omitempty"`
	Campaign string `json:"utmCampaign,omitempty"`
	Term     string `json:"utmTerm,omitempty"`
	Content  string `json:"utmContent,omitempty"`
}

// Request DTOs
type CreateLeadRequest struct {
	Name   string     `json:"name" validate:"required,min=1,max=200"`
	Email  string     `json:"email" validate:"required,email"`
	Phone  string     `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Source LeadSource `json:"source" validate:"required"`
	UTM    *UTMParams `json:"utmParams,omitempty"`
}

type UpdateLeadStatusRequest struct {
	Status LeadStatus `json:"status" validate:"required,oneof=New Contacted Qualified Scheduled 'In Treatment' Closed"`
	UserID string     `json:"userId,omitempty"`
}

// Response DTOs
type LeadResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Status          string     `json:"status"`
	AIScore         int        `json:"aiScore"`
	AIExplanation   string     `json:"aiExplanation,omitempty"`
	AINextAction    string     `json:"aiNextAction,omitempty"`
	Source          string     `json:"source"`
	AssignedTo      string     `json:"assignedTo"`
	LastContactedAt time.Time  `json:"lastContactedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	UTM             *UTMParams `json:"utmParams,omitempty"`
}

type ActivityResponse struct {
	ID          uuid.UUID      `json:"id"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}
