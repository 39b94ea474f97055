package database

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"taeu.kr/kirosumi/internal/platform/apperr"
)

// 아래 함수들은 public id를 호출자 소유 범위 안에서 내부 id로 변환합니다.
// 다른 사용자의 id나 삭제된 행은 모두 not found로 취급한다.

func SpaceID(ctx context.Context, q Querier, qb sq.StatementBuilderType, userID int64, publicID string) (int64, error) {
	return lookupID(ctx, q, qb.
		Select("id").
		From("spaces").
		Where(sq.Eq{"public_id": publicID, "user_id": userID, "deleted_at": nil}), "Space")
}

func ProjectID(ctx context.Context, q Querier, qb sq.StatementBuilderType, userID int64, publicID string) (int64, error) {
	return lookupID(ctx, q, qb.
		Select("id").
		From("projects").
		Where(sq.Eq{"public_id": publicID, "user_id": userID, "deleted_at": nil}), "Project")
}

// StatusID는 space 소유자를 통해 status 소유권을 확인합니다
func StatusID(ctx context.Context, q Querier, qb sq.StatementBuilderType, userID int64, publicID string) (int64, error) {
	return lookupID(ctx, q, qb.
		Select("st.id").
		From("statuses st").
		Join("spaces sp ON sp.id = st.space_id").
		Where(sq.Eq{"st.public_id": publicID, "sp.user_id": userID, "st.deleted_at": nil, "sp.deleted_at": nil}), "Status")
}

func ItemID(ctx context.Context, q Querier, qb sq.StatementBuilderType, userID int64, publicID string) (int64, error) {
	return lookupID(ctx, q, qb.
		Select("id").
		From("items").
		Where(sq.Eq{"public_id": publicID, "user_id": userID, "deleted_at": nil}), "Item")
}

// DefaultSpaceID는 사용자의 기본 space id를 반환합니다
func DefaultSpaceID(ctx context.Context, q Querier, qb sq.StatementBuilderType, userID int64) (int64, error) {
	return lookupID(ctx, q, qb.
		Select("id").
		From("spaces").
		Where(sq.Eq{"user_id": userID, "is_default": true, "deleted_at": nil}), "Default space")
}

func lookupID(ctx context.Context, q Querier, builder sq.SelectBuilder, entity string) (int64, error) {
	query, args, err := builder.Limit(1).ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.NotFound(entity)
		}
		return 0, err
	}
	return id, nil
}

// Placement는 item이 놓일 space, project, status의 내부 id입니다
type Placement struct {
	SpaceID   int64
	ProjectID *int64
	StatusID  *int64
}

// ResolvePlacement는 public id들을 풀고 project와 status가 같은 space에 있는지 확인합니다.
// space가 비어 있으면 project의 space를, project도 없으면 기본 space를 쓴다.
func ResolvePlacement(ctx context.Context, q Querier, qb sq.StatementBuilderType, userID int64, spacePublicID, projectPublicID, statusPublicID string) (*Placement, error) {
	p := &Placement{}

	hasSpace := spacePublicID != ""
	if hasSpace {
		id, err := SpaceID(ctx, q, qb, userID, spacePublicID)
		if err != nil {
			return nil, err
		}
		p.SpaceID = id
	}

	if projectPublicID != "" {
		id, spaceID, err := lookupScoped(ctx, q, qb.
			Select("id", "space_id").
			From("projects").
			Where(sq.Eq{"public_id": projectPublicID, "user_id": userID, "deleted_at": nil}), "Project")
		if err != nil {
			return nil, err
		}
		if hasSpace && spaceID != p.SpaceID {
			return nil, apperr.Invalid("project %s belongs to another space", projectPublicID)
		}
		p.SpaceID = spaceID
		p.ProjectID = &id
		hasSpace = true
	}

	if !hasSpace {
		id, err := DefaultSpaceID(ctx, q, qb, userID)
		if err != nil {
			return nil, err
		}
		p.SpaceID = id
	}

	if statusPublicID != "" {
		id, err := StatusInSpace(ctx, q, qb, userID, statusPublicID, p.SpaceID)
		if err != nil {
			return nil, err
		}
		p.StatusID = &id
	}
	return p, nil
}

// StatusInSpace는 StatusID와 같지만 status가 spaceID 소속이 아니면 validation 에러입니다
func StatusInSpace(ctx context.Context, q Querier, qb sq.StatementBuilderType, userID int64, publicID string, spaceID int64) (int64, error) {
	id, statusSpaceID, err := lookupScoped(ctx, q, qb.
		Select("st.id", "st.space_id").
		From("statuses st").
		Join("spaces sp ON sp.id = st.space_id").
		Where(sq.Eq{"st.public_id": publicID, "sp.user_id": userID, "st.deleted_at": nil, "sp.deleted_at": nil}), "Status")
	if err != nil {
		return 0, err
	}
	if statusSpaceID != spaceID {
		return 0, apperr.Invalid("status %s belongs to another space", publicID)
	}
	return id, nil
}

func lookupScoped(ctx context.Context, q Querier, builder sq.SelectBuilder, entity string) (int64, int64, error) {
	query, args, err := builder.Limit(1).ToSql()
	if err != nil {
		return 0, 0, err
	}

	var id, spaceID int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&id, &spaceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, apperr.NotFound(entity)
		}
		return 0, 0, err
	}
	return id, spaceID, nil
}
