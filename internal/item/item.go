package item

import (
	"encoding/json"
	"strings"
	"time"

	"taeu.kr/kirosumi/internal/platform/apperr"
	"taeu.kr/kirosumi/internal/richtext"
	"taeu.kr/kirosumi/internal/status"
)

type Kind string

const (
	KindTask    Kind = "task"
	KindNote    Kind = "note"
	KindCapture Kind = "capture"
	KindScratch Kind = "scratch"
)

func (k Kind) Valid() bool {
	switch k {
	case KindTask, KindNote, KindCapture, KindScratch:
		return true
	}
	return false
}

type Item struct {
	ID          int64           `json:"id"`
	PublicID    string          `json:"publicId"`
	UserID      int64           `json:"userId"`
	ParentID    *int64          `json:"parentId"`
	SpaceID     *int64          `json:"spaceId"`
	ProjectID   *int64          `json:"projectId"`
	StatusID    *int64          `json:"statusId"`
	Name        string          `json:"name"`
	Kind        Kind            `json:"kind"`
	Priority    int             `json:"priority"`
	Content     json.RawMessage `json:"content"`
	IsCompleted bool            `json:"isCompleted"`
	CompletedAt *time.Time      `json:"completedAt"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt"`
	DeletedAt   *time.Time      `json:"deletedAt"`

	Status *status.Status `json:"status"`
}

// ListFilter는 item.all의 입력입니다
type ListFilter struct {
	SpacePublicID    string `json:"spacePublicId,omitempty"`
	Kind             Kind   `json:"kind,omitempty"`
	IncludeCompleted bool   `json:"includeCompleted"`
}

func (f *ListFilter) Validate() error {
	f.SpacePublicID = strings.TrimSpace(f.SpacePublicID)
	if f.Kind != "" && !f.Kind.Valid() {
		return apperr.Invalid("kind must be one of task, note, capture, scratch")
	}
	return nil
}

type InboxRequest struct {
	SpacePublicID string `json:"spacePublicId"`
}

func (req *InboxRequest) Validate() error {
	req.SpacePublicID = strings.TrimSpace(req.SpacePublicID)
	if req.SpacePublicID == "" {
		return apperr.Invalid("spacePublicId is required")
	}
	return nil
}

type ByProjectRequest struct {
	ProjectPublicID  string `json:"projectPublicId"`
	IncludeCompleted bool   `json:"includeCompleted"`
}

func (req *ByProjectRequest) Validate() error {
	req.ProjectPublicID = strings.TrimSpace(req.ProjectPublicID)
	if req.ProjectPublicID == "" {
		return apperr.Invalid("projectPublicId is required")
	}
	return nil
}

type CreateRequest struct {
	Name            string          `json:"name"`
	Kind            Kind            `json:"kind"`
	Priority        int             `json:"priority"`
	Content         json.RawMessage `json:"content,omitempty"`
	StatusPublicID  string          `json:"statusPublicId,omitempty"`
	SpacePublicID   string          `json:"spacePublicId,omitempty"`
	ProjectPublicID string          `json:"projectPublicId,omitempty"`
	ParentPublicID  string          `json:"parentPublicId,omitempty"`
}

func (req *CreateRequest) Validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateName(req.Name); err != nil {
		return err
	}
	if err := validateWritableKind(req.Kind); err != nil {
		return err
	}
	req.StatusPublicID = strings.TrimSpace(req.StatusPublicID)
	req.SpacePublicID = strings.TrimSpace(req.SpacePublicID)
	req.ProjectPublicID = strings.TrimSpace(req.ProjectPublicID)
	req.ParentPublicID = strings.TrimSpace(req.ParentPublicID)
	return richtext.Validate(req.Content)
}

// UpdateRequest는 space와 project를 바꾸지 않습니다
type UpdateRequest struct {
	PublicID       string          `json:"publicId"`
	Name           *string         `json:"name,omitempty"`
	Kind           *Kind           `json:"kind,omitempty"`
	Priority       *int            `json:"priority,omitempty"`
	Content        json.RawMessage `json:"content,omitempty"`
	StatusPublicID *string         `json:"statusPublicId,omitempty"`
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
	if req.Kind != nil {
		if err := validateWritableKind(*req.Kind); err != nil {
			return err
		}
	}
	return richtext.Validate(req.Content)
}

type ToggleRequest struct {
	PublicID  string `json:"publicId"`
	Completed *bool  `json:"completed,omitempty"`
}

func (req *ToggleRequest) Validate() error {
	req.PublicID = strings.TrimSpace(req.PublicID)
	if req.PublicID == "" {
		return apperr.Invalid("publicId is required")
	}
	return nil
}

// capture는 item 쪽에서 만들거나 바꿀 수 없습니다. capture 테이블이 따로 있다.
func validateWritableKind(k Kind) error {
	switch k {
	case KindTask, KindNote, KindScratch:
		return nil
	}
	return apperr.Invalid("kind must be one of task, note, scratch")
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
