package entities

import "time"

// ClubMember is a natural person or entity eligible for share allocations.
// UserAccountID stays empty until the member has an active platform account.
type ClubMember struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	UserAccountID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
