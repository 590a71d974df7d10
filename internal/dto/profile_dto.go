package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
)

// PublicProfile is what one user may see about another.
type PublicProfile struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Age       int       `json:"age,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	About     string    `json:"about"`
	PhotoURL  string    `json:"photoUrl"`
	Skills    []string  `json:"skills"`
}

func NewPublicProfile(u *models.User) PublicProfile {
	skills := []string(u.Skills)
	if skills == nil {
		skills = []string{}
	}
	return PublicProfile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
		Gender:    u.Gender,
		About:     u.About,
		PhotoURL:  u.PhotoURL,
		Skills:    skills,
	}
}

// UpdateProfileRequest is decoded into a map so unknown keys can be rejected.
type UpdateProfileRequest map[string]interface{}

type FeedResponse struct {
	Users []PublicProfile `json:"users"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// RequestView is a connection request paired with the profile on the other side.
type RequestView struct {
	ID               uuid.UUID     `json:"id"`
	Status           string        `json:"status"`
	Saved            bool          `json:"saved"`
	ReminderSent     bool          `json:"reminderSent"`
	ReminderReviewed bool          `json:"reminderReviewed"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
	User             PublicProfile `json:"user"`
}

func NewRequestView(r *models.ConnectionRequest, other *models.User) RequestView {
	v := RequestView{
		ID:               r.ID,
		Status:           r.Status,
		Saved:            r.Saved,
		ReminderSent:     r.ReminderSent,
		ReminderReviewed: r.ReminderReviewed,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if other != nil {
		v.User = NewPublicProfile(other)
	}
	return v
}

type QuotaResponse struct {
	DailyLikesUsed        int `json:"dailyLikesUsed"`
	DailyLikesRemaining   int `json:"dailyLikesRemaining"`
	SpecialLikesUsed      int `json:"specialLikesUsed"`
	SpecialLikesRemaining int `json:"specialLikesRemaining"`
}
