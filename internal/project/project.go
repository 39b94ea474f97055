package project

import (
	"encoding/json"
	"strings"
	"time"

	"taeu.kr/kirosumi/internal/platform/apperr"
	"taeu.kr/kirosumi/internal/richtext"
)

const DefaultName = "My First Project"

type Project struct {
	ID          int64           `json:"id"`
	PublicID    string          `json:"publicId"`
	SpaceID     int64           `json:"spaceId"`
	UserID      int64           `json:"userId"`
	Name        string          `json:"name"`
	Description json.RawMessage `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt"`
	DeletedAt   *time.Time      `json:"deletedAt"`
}

type CreateRequest struct {
	SpacePublicID string          `json:"spacePublicId"`
	Name          string          `json:"name"`
	Description   json.RawMessage `json:"description,omitempty"`
}

func (req *CreateRequest) Validate() error {
	req.SpacePublicID = strings.TrimSpace(req.SpacePublicID)
	if req.SpacePublicID == "" {
		return apperr.Invalid("spacePublicId is required")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validateName(req.Name); err != nil {
		return err
	}
	return richtext.Validate(req.Description)
}

type UpdateRequest struct {
	PublicID    string          `json:"publicId"`
	Name        *string         `json:"name,omitempty"`
	Description json.RawMessage `json:"description,omitempty"`
}

func (req *UpdateRequest) Validate() error {
	req.PublicID = strings.TrimSpace(req.PublicID)
	if req.PublicID == "" {
		return apperr.Invalid("publicId is required")
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if err := validateName(trimmed); err != nil {
			return err
		}
		req.Name = &trimmed
	}
	return richtext.Validate(req.Description)
}

func validateName(name string) error {
	if name == "" {
		return apperr.Invalid("name is required")
	}
	if len([]rune(name)) > 255 {
		return apperr.Invalid("name must be at most 255 characters")
	}
	return nil
}
