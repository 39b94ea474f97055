package capture

import (
	"encoding/json"
	"strings"
	"time"

	"taeu.kr/kirosumi/internal/platform/apperr"
	"taeu.kr/kirosumi/internal/richtext"
)

type Capture struct {
	ID          int64           `json:"id"`
	PublicID    string          `json:"publicId"`
	CreatedBy   int64           `json:"createdBy"`
	Title       string          `json:"title"`
	Description json.RawMessage `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt"`
	DeletedAt   *time.Time      `json:"deletedAt"`
}

type CreateRequest struct {
	Title       string          `json:"title"`
	Description json.RawMessage `json:"description,omitempty"`
}

func (req *CreateRequest) Validate() error {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateTitle(req.Title); err != nil {
		return err
	}
	return richtext.Validate(req.Description)
}

type UpdateRequest struct {
	PublicID    string          `json:"publicId"`
	Title       *string         `json:"title,omitempty"`
	Description json.RawMessage `json:"description,omitempty"`
}

func (req *UpdateRequest) Validate() error {
	req.PublicID = strings.TrimSpace(req.PublicID)
	if req.PublicID == "" {
		return apperr.Invalid("publicId is required")
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if err := validateTitle(trimmed); err != nil {
			return err
		}
		req.Title = &trimmed
	}
	return richtext.Validate(req.Description)
}

// ConvertRequest는 capture를 task로 바꿀 때의 배치 대상입니다.
// space를 생략하면 project의 space, project도 없으면 기본 space를 쓰고
// status를 생략하면 그 space의 첫 Backlog status.
type ConvertRequest struct {
	PublicID        string `json:"publicId"`
	SpacePublicID   string `json:"spacePublicId,omitempty"`
	ProjectPublicID string `json:"projectPublicId,omitempty"`
	StatusPublicID  string `json:"statusPublicId,omitempty"`
	Priority        *int   `json:"priority,omitempty"`
}

func (req *ConvertRequest) Validate() error {
	req.PublicID = strings.TrimSpace(req.PublicID)
	if req.PublicID == "" {
		return apperr.Invalid("publicId is required")
	}
	req.SpacePublicID = strings.TrimSpace(req.SpacePublicID)
	req.ProjectPublicID = strings.TrimSpace(req.ProjectPublicID)
	req.StatusPublicID = strings.TrimSpace(req.StatusPublicID)
	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return apperr.Invalid("title is required")
	}
	if len([]rune(title)) > 255 {
		return apperr.Invalid("title must be at most 255 characters")
	}
	return nil
}
