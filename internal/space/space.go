package space

import (
	"strings"
	"time"

	"taeu.kr/kirosumi/internal/item"
	"taeu.kr/kirosumi/internal/platform/apperr"
	"taeu.kr/kirosumi/internal/project"
	"taeu.kr/kirosumi/internal/status"
)

// DefaultName은 가입 시 만들어지는 기본 space 이름입니다
const DefaultName = "Personal"

type Space struct {
	ID          int64      `json:"id"`
	PublicID    string     `json:"publicId"`
	UserID      int64      `json:"userId"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	IsDefault   bool       `json:"isDefault"`
	IsSystem    bool       `json:"isSystem"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt"`
}

// DefaultSpace는 기본 space와 그 status, item 목록입니다
type DefaultSpace struct {
	*Space
	Statuses []*status.Status `json:"statuses"`
	Items    []*item.Item     `json:"items"`
}

type ProjectDetail struct {
	*project.Project
	Items []*item.Item `json:"items"`
}

// Detail은 space 화면 하나를 그리는 데 필요한 전체 트리입니다.
// Items에는 project에 속하지 않은 item만 들어간다.
type Detail struct {
	*Space
	Projects []*ProjectDetail `json:"projects"`
	Items    []*item.Item     `json:"items"`
	Statuses []*status.Status `json:"statuses"`
}

type CreateRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func (req *CreateRequest) Validate() error {
	req.Name = strings.TrimSpace(req.Name)
	return validateName(req.Name)
}

type UpdateRequest struct {
	PublicID    string  `json:"publicId"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
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
	return nil
}

func validateName(name string) error {
	if name == "" {
		return apperr.Invalid("name is required")
	}
	if len([]rune(name)) > 100 {
		return apperr.Invalid("name must be at most 100 characters")
	}
	return nil
}
