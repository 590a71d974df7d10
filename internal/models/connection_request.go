package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Edge statuses.
const (
	StatusPendingInterested = "pending-interested"
	StatusPendingIgnored    = "pending-ignored"
	StatusAccepted          = "accepted"
	StatusRejected          = "rejected"
	StatusBlocked           = "blocked"
)

// Slot distinguishes the primary edge of a pair from the reciprocal edge
// written by a mutual special like.
const (
	SlotPrimary    = 0
	SlotReciprocal = 1
)

// ConnectionRequest is a directed edge from the liker to the liked user.
// PairKey+Slot is unique so only one primary edge can exist per unordered pair.
type ConnectionRequest struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LikerID          uuid.UUID `gorm:"type:uuid;not null;index" json:"likerId"`
	LikedID          uuid.UUID `gorm:"type:uuid;not null;index" json:"likedId"`
	PairKey          string    `gorm:"size:80;not null;uniqueIndex:idx_connection_requests_pair_slot" json:"-"`
	Slot             int       `gorm:"not null;default:0;uniqueIndex:idx_connection_requests_pair_slot" json:"-"`
	Status           string    `gorm:"size:30;not null;index" json:"status"`
	Saved            bool      `gorm:"not null;default:false" json:"saved"`
	ReminderSent     bool      `gorm:"not null;default:false" json:"reminderSent"`
	ReminderReviewed bool      `gorm:"not null;default:false" json:"reminderReviewed"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	Liker            *User     `gorm:"foreignKey:LikerID" json:"liker,omitempty"`
	Liked            *User     `gorm:"foreignKey:LikedID" json:"liked,omitempty"`
}

func (r *ConnectionRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// PairKey orders two ids so (a,b) and (b,a) produce the same key.
func PairKey(a, b uuid.UUID) string {
	as, bs := a.String(), b.String()
	if as > bs {
		as, bs = bs, as
	}
	return as + ":" + bs
}

// Counterpart returns the other side of the edge relative to userID.
func (r *ConnectionRequest) Counterpart(userID uuid.UUID) uuid.UUID {
	if r.LikerID == userID {
		return r.LikedID
	}
	return r.LikerID
}
