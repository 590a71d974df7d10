package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/dto"
	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxSkills = 10

// profileFields maps accepted PATCH keys to their column names.
var profileFields = map[string]string{
	"firstName": "first_name",
	"lastName":  "last_name",
	"age":       "age",
	"gender":    "gender",
	"about":     "about",
	"skills":    "skills",
	"photoUrl":  "photo_url",
}

type ProfileService struct {
	db         *gorm.DB
	moderation *ModerationService
}

func NewProfileService(db *gorm.DB, moderation *ModerationService) *ProfileService {
	return &ProfileService{db: db, moderation: moderation}
}

func (s *ProfileService) GetProfile(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetPublicProfile returns another user's safe fields. A blocked pair looks
// like a missing user from either side.
func (s *ProfileService) GetPublicProfile(viewerID, userID uuid.UUID) (*dto.PublicProfile, error) {
	blocked, err := isBlockedPair(s.db, viewerID, userID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrUserNotFound
	}

	user, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	p := dto.NewPublicProfile(user)
	return &p, nil
}

// UpdateProfile applies an allow-listed partial update. Any unknown key
// rejects the whole request.
func (s *ProfileService) UpdateProfile(userID uuid.UUID, req dto.UpdateProfileRequest) (*models.User, error) {
	if len(req) == 0 {
		return nil, validationError("no fields to update")
	}

	updates := make(map[string]interface{}, len(req))
	for key, raw := range req {
		column, ok := profileFields[key]
		if !ok {
			return nil, validationError(fmt.Sprintf("field %q cannot be updated", key))
		}
		value, err := s.normalizeField(key, raw)
		if err != nil {
			return nil, err
		}
		updates[column] = value
	}

	result := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.GetProfile(userID)
}

func (s *ProfileService) normalizeField(key string, raw interface{}) (interface{}, error) {
	switch key {
	case "firstName", "lastName", "about", "photoUrl":
		str, ok := raw.(string)
		if !ok {
			return nil, validationError(key + " must be a string")
		}
		str = strings.TrimSpace(str)
		if key == "firstName" && str == "" {
			return nil, validationError("first name cannot be empty")
		}
		if (key == "firstName" || key == "lastName") && s.moderation.ContainsProfanity(str) {
			return nil, validationError("name contains inappropriate language")
		}
		if key == "about" {
			if len(str) > 1000 {
				return nil, validationError("about must be at most 1000 characters")
			}
			if err := s.moderation.CheckText(str); err != nil {
				return nil, err
			}
		}
		return str, nil

	case "age":
		f, ok := raw.(float64)
		if !ok || f != math.Trunc(f) {
			return nil, validationError("age must be a whole number")
		}
		if f < 18 || f > 120 {
			return nil, validationError("age must be between 18 and 120")
		}
		return int(f), nil

	case "gender":
		g, ok := raw.(string)
		if !ok || !allowedGenders[g] {
			return nil, validationError("gender must be male, female or others")
		}
		return g, nil

	case "skills":
		list, ok := raw.([]interface{})
		if !ok {
			return nil, validationError("skills must be a list")
		}
		if len(list) > maxSkills {
			return nil, validationError(fmt.Sprintf("at most %d skills are allowed", maxSkills))
		}
		skills := make([]string, 0, len(list))
		for _, item := range list {
			str, ok := item.(string)
			if !ok || strings.TrimSpace(str) == "" {
				return nil, validationError("skills must be non-empty strings")
			}
			skills = append(skills, strings.TrimSpace(str))
		}
		return datatypes.JSONSlice[string](skills), nil
	}
	return nil, validationError(fmt.Sprintf("field %q cannot be updated", key))
}
