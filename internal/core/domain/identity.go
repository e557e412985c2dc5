package domain

import (
	"strconv"

	apperrors "github.com/lorrc/insuredesk-backend/internal/core/errors"
)

// Identity is the authenticated principal attached to a live connection.
// It is produced by the auth layer before a connection is admitted to any
// room; connections without a valid identity are never admitted.
type Identity struct {
	UserID int64  `json:"userId"`
	Role   Role   `json:"role"`
	Name   string `json:"name"`

	// ContactID is the CRM contact record linked to a customer account.
	// Empty for staff.
	ContactID string `json:"contactId,omitempty"`
}

// Validate rejects identities with a missing user ID or an unknown role.
func (i Identity) Validate() error {
	if i.UserID <= 0 {
		return apperrors.ErrIdentityRequired
	}
	if !i.Role.Valid() {
		return apperrors.ErrInvalidRole
	}
	return nil
}

// UserKey returns the identity-room key for this user. Multiple
// connections (tabs, devices) of the same user share the key.
// Customers linked to a CRM contact are keyed by the contact ID, which
// is how claim pushes address them; everyone else gets the numeric ID.
func (i Identity) UserKey() string {
	if i.ContactID != "" {
		return i.ContactID
	}
	return strconv.FormatInt(i.UserID, 10)
}
