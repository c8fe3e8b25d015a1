package transport

import "time"

// Call directions as reported by the PBX.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// CallEventRequest is the PBX webhook payload.
type CallEventRequest struct {
	From         string `json:"from" validate:"required,min=3,max=30"`
	To           string `json:"to" validate:"required,min=3,max=30"`
	Direction    string `json:"direction" validate:"required,oneof=inbound outbound"`
	Duration     int    `json:"duration" validate:"gte=0"`
	RecordingURL string `json:"recordingUrl" validate:"omitempty,url"`
}

// CallLogResponse is a call log as exposed over HTTP.
type CallLogResponse struct {
	ID              string    `json:"id"`
	LeadID          *string   `json:"leadId,omitempty"`
	PhoneNumber     string    `json:"phoneNumber"`
	Direction       string    `json:"direction"`
	DurationSeconds int       `json:"durationSeconds"`
	RecordingURL    *string   `json:"recordingUrl,omitempty"`
	AISummary       *string   `json:"aiSummary,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
