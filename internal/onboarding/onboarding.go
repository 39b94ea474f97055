// Package onboarding prepares the workspace of a newly created user.
package onboarding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"taeu.kr/kirosumi/internal/project"
	"taeu.kr/kirosumi/internal/space"
)

type SpaceCreator interface {
	CreateDefault(ctx context.Context, userID int64) (*space.Space, error)
}

type ProjectCreator interface {
	Count(ctx context.Context, userID int64) (int, error)
	CreateDefault(ctx context.Context, userID int64, spacePublicID string) (*project.Project, error)
}

// Provisioner는 기본 space(+ status)와, project가 하나도 없으면 기본 project를 만듭니다.
// 여러 번 호출해도 결과는 같다.
type Provisioner struct {
	spaces   SpaceCreator
	projects ProjectCreator
}

func NewProvisioner(spaces SpaceCreator, projects ProjectCreator) *Provisioner {
	return &Provisioner{spaces: spaces, projects: projects}
}

func (p *Provisioner) ProvisionUser(ctx context.Context, userID int64) error {
	sp, err := p.spaces.CreateDefault(ctx, userID)
	if err != nil {
		return fmt.Errorf("create default space: %w", err)
	}

	count, err := p.projects.Count(ctx, userID)
	if err != nil {
		return fmt.Errorf("count projects: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := p.projects.CreateDefault(ctx, userID, sp.PublicID); err != nil {
		return fmt.Errorf("create default project: %w", err)
	}
	log.Info().Int64("userId", userID).Str("space", sp.PublicID).Msg("[Onboarding] provisioned default workspace")
	return nil
}
