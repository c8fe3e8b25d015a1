package transport

import "time"

// Request DTOs
type AcquireLockRequest struct {
	UserID   string `json:"userId" validate:"required,min=1,max=100"`
	UserName string `json:"userName" validate:"required,min=1,max=200"`
}

type ReleaseLockRequest struct {
	UserID string `json:"userId" validate:"required,min=1,max=100"`
}

// LockStatusResponse mirrors the lock cell state. LockedAt is omitted when
// the record is unlocked.
type LockStatusResponse struct {
	Locked     bool       `json:"locked"`
	HolderID   string     `json:"holderId,omitempty"`
	HolderName string     `json:"holderName,omitempty"`
	LockedAt   *time.Time `json:"lockedAt,omitempty"`
	Message    string     `json:"message,omitempty"`
}
