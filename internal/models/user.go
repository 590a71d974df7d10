package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is a dating profile plus the counters the matching engine maintains.
type User struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName        string                      `gorm:"size:100;not null" json:"firstName"`
	LastName         string                      `gorm:"size:100" json:"lastName"`
	Email            string                      `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password         string                      `gorm:"not null" json:"-"`
	Role             string                      `gorm:"size:20;default:'user'" json:"role"`
	Age              int                         `json:"age,omitempty"`
	Gender           string                      `gorm:"size:20" json:"gender,omitempty"`
	About            string                      `gorm:"size:1000" json:"about"`
	PhotoURL         string                      `gorm:"size:1024" json:"photoUrl"`
	Skills           datatypes.JSONSlice[string] `json:"skills"`
	DayLikesCount    int                         `gorm:"not null;default:0;index" json:"-"`
	SpecialLikeCount int                         `gorm:"not null;default:0" json:"-"`
	Verified         bool                        `gorm:"not null;default:false" json:"verified"`
	EmailVerified    bool                        `gorm:"not null;default:false" json:"emailVerified"`
	OTPHash          string                      `gorm:"size:100" json:"-"`
	OTPExpiresAt     *time.Time                  `json:"-"`
	CreatedAt        time.Time                   `json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
