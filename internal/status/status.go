package status

import (
	"regexp"
	"strings"
	"time"

	"taeu.kr/kirosumi/internal/platform/apperr"
)

type Type string

const (
	TypeBacklog    Type = "Backlog"
	TypeInProgress Type = "In Progress"
	TypeCompleted  Type = "Completed"
	TypeCancelled  Type = "Cancelled"
)

func (t Type) Valid() bool {
	switch t {
	case TypeBacklog, TypeInProgress, TypeCompleted, TypeCancelled:
		return true
	}
	return false
}

type Status struct {
	ID        int64      `json:"id"`
	PublicID  string     `json:"publicId"`
	SpaceID   int64      `json:"spaceId"`
	Name      string     `json:"name"`
	Type      Type       `json:"type"`
	Color     *string    `json:"color"`
	Icon      *string    `json:"icon"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt"`
}

// Default는 새 space에 만들어지는 기본 status 정의입니다
type Default struct {
	Name  string
	Type  Type
	Color string
}

var Defaults = []Default{
	{Name: "Not started", Type: TypeBacklog, Color: "#f6d860"},
	{Name: "In progress", Type: TypeInProgress, Color: "#f6d860"},
	{Name: "Done", Type: TypeCompleted, Color: "#a5f3fc"},
}

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type CreateRequest struct {
	SpacePublicID string  `json:"spacePublicId"`
	Name          string  `json:"name"`
	Type          Type    `json:"type"`
	Color         *string `json:"color,omitempty"`
	Icon          *string `json:"icon,omitempty"`
}

func (req *CreateRequest) Validate() error {
	if strings.TrimSpace(req.SpacePublicID) == "" {
		return apperr.Invalid("spacePublicId is required")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validateName(req.Name); err != nil {
		return err
	}
	if req.Type == "" {
		req.Type = TypeBacklog
	}
	if !req.Type.Valid() {
		return apperr.Invalid("type must be one of Backlog, In Progress, Completed, Cancelled")
	}
	return validateLook(req.Color, req.Icon)
}

type UpdateRequest struct {
	PublicID string  `json:"publicId"`
	Name     *string `json:"name,omitempty"`
	Type     *Type   `json:"type,omitempty"`
	Color    *string `json:"color,omitempty"`
	Icon     *string `json:"icon,omitempty"`
}

func (req *UpdateRequest) Validate() error {
	if strings.TrimSpace(req.PublicID) == "" {
		return apperr.Invalid("publicId is required")
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if err := validateName(trimmed); err != nil {
			return err
		}
		req.Name = &trimmed
	}
	if req.Type != nil && !req.Type.Valid() {
		return apperr.Invalid("type must be one of Backlog, In Progress, Completed, Cancelled")
	}
	return validateLook(req.Color, req.Icon)
}

func validateName(name string) error {
	if name == "" {
		return apperr.Invalid("name is required")
	}
	if len([]rune(name)) > 50 {
		return apperr.Invalid("name must be at most 50 characters")
	}
	return nil
}

func validateLook(color, icon *string) error {
	if color != nil && !colorPattern.MatchString(*color) {
		return apperr.Invalid("color must be a hex color like #a5f3fc")
	}
	if icon != nil && len([]rune(*icon)) > 50 {
		return apperr.Invalid("icon must be at most 50 characters")
	}
	return nil
}
