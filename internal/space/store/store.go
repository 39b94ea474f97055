package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"taeu.kr/kirosumi/internal/item"
	itemstore "taeu.kr/kirosumi/internal/item/store"
	"taeu.kr/kirosumi/internal/platform/database"
	"taeu.kr/kirosumi/internal/platform/pubid"
	projectstore "taeu.kr/kirosumi/internal/project/store"
	"taeu.kr/kirosumi/internal/space"
	"taeu.kr/kirosumi/internal/status"
	statusstore "taeu.kr/kirosumi/internal/status/store"
)

var columns = []string{"id", "public_id", "user_id", "name", "description", "is_default", "is_system", "created_at", "updated_at", "deleted_at"}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpace(row rowScanner) (*space.Space, error) {
	var (
		sp          space.Space
		description sql.NullString
		createdAt   database.NullTime
		updatedAt   database.NullTime
		deletedAt   database.NullTime
	)
	if err := row.Scan(&sp.ID, &sp.PublicID, &sp.UserID, &sp.Name, &description, &sp.IsDefault, &sp.IsSystem, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		sp.Description = &description.String
	}
	sp.CreatedAt = createdAt.Time
	sp.UpdatedAt = updatedAt.Ptr()
	sp.DeletedAt = deletedAt.Ptr()
	return &sp, nil
}

type Store struct {
	db *database.DB
	qb sq.StatementBuilderType
}

func NewStore(db *database.DB) *Store {
	return &Store{
		db: db,
		qb: db.Builder(),
	}
}

func defaultOf(userID int64) sq.Eq {
	return sq.Eq{"user_id": userID, "is_default": true, "deleted_at": nil}
}

func (s *Store) CreateDefault(ctx context.Context, userID int64) (*space.Space, error) {
	var created *space.Space
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.getOne(ctx, tx, defaultOf(userID))
		if err == nil {
			created = existing
			return nil
		}
		if !errors.Is(err, space.ErrSpaceNotFound) {
			return err
		}

		created, err = s.insert(ctx, tx, userID, space.DefaultName, nil, true)
		if err != nil {
			return err
		}
		for _, d := range status.Defaults {
			color := d.Color
			if _, err := statusstore.Insert(ctx, tx, s.qb, created.ID, d.Name, d.Type, &color, nil); err != nil {
				return fmt.Errorf("insert default status %q: %w", d.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		// 동시에 만든 요청이 먼저 커밋했다면 그 space를 돌려준다
		if database.Classify(err) == database.ViolationUnique {
			return s.getOne(ctx, s.db, defaultOf(userID))
		}
		return nil, err
	}
	return created, nil
}

func (s *Store) List(ctx context.Context, userID int64) ([]*space.Space, error) {
	query, args, err := s.qb.
		Select(columns...).
		From("spaces").
		Where(sq.Eq{"user_id": userID, "deleted_at": nil}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build space list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query spaces: %w", err)
	}
	defer rows.Close()

	spaces := []*space.Space{}
	for rows.Next() {
		sp, err := scanSpace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan space row: %w", err)
		}
		spaces = append(spaces, sp)
	}
	return spaces, rows.Err()
}

func (s *Store) GetDefault(ctx context.Context, userID int64) (*space.DefaultSpace, error) {
	sp, err := s.getOne(ctx, s.db, defaultOf(userID))
	if err != nil {
		if errors.Is(err, space.ErrSpaceNotFound) {
			return nil, space.ErrDefaultSpaceNotFound
		}
		return nil, err
	}

	statuses, err := statusstore.ListBySpaceID(ctx, s.db, s.qb, sp.ID)
	if err != nil {
		return nil, err
	}
	items, err := itemstore.QueryWithStatus(ctx, s.db, itemstore.SelectWithStatus(s.qb).
		Where(sq.Eq{"i.space_id": sp.ID, "i.user_id": userID, "i.deleted_at": nil}).
		OrderBy("i.created_at DESC", "i.id DESC"))
	if err != nil {
		return nil, err
	}

	return &space.DefaultSpace{Space: sp, Statuses: statuses, Items: items}, nil
}

func (s *Store) GetDetail(ctx context.Context, userID int64, publicID string) (*space.Detail, error) {
	sp, err := s.getOne(ctx, s.db, sq.Eq{"public_id": publicID, "user_id": userID, "deleted_at": nil})
	if err != nil {
		return nil, err
	}

	statuses, err := statusstore.ListBySpaceID(ctx, s.db, s.qb, sp.ID)
	if err != nil {
		return nil, err
	}
	projects, err := projectstore.ListBySpaceID(ctx, s.db, s.qb, sp.ID)
	if err != nil {
		return nil, err
	}
	items, err := itemstore.QueryWithStatus(ctx, s.db, itemstore.SelectWithStatus(s.qb).
		Where(sq.Eq{"i.user_id": userID, "i.deleted_at": nil}).
		Where(sq.Or{
			sq.Eq{"i.space_id": sp.ID},
			sq.Expr("i.project_id IN (SELECT id FROM projects WHERE space_id = ? AND deleted_at IS NULL)", sp.ID),
		}).
		OrderBy("i.created_at DESC", "i.id DESC"))
	if err != nil {
		return nil, err
	}

	detail := &space.Detail{
		Space:    sp,
		Projects: make([]*space.ProjectDetail, 0, len(projects)),
		Items:    []*item.Item{},
		Statuses: statuses,
	}
	byProject := make(map[int64]*space.ProjectDetail, len(projects))
	for _, p := range projects {
		pd := &space.ProjectDetail{Project: p, Items: []*item.Item{}}
		byProject[p.ID] = pd
		detail.Projects = append(detail.Projects, pd)
	}
	for _, it := range items {
		if it.ProjectID == nil {
			detail.Items = append(detail.Items, it)
			continue
		}
		// 삭제된 project의 item은 어느 쪽에도 넣지 않는다
		if pd, ok := byProject[*it.ProjectID]; ok {
			pd.Items = append(pd.Items, it)
		}
	}
	return detail, nil
}

func (s *Store) Create(ctx context.Context, userID int64, req *space.CreateRequest) (*space.Space, error) {
	return s.insert(ctx, s.db, userID, req.Name, req.Description, false)
}

func (s *Store) insert(ctx context.Context, q database.Querier, userID int64, name string, description *string, isDefault bool) (*space.Space, error) {
	query, args, err := s.qb.
		Insert("spaces").
		Columns("public_id", "user_id", "name", "description", "is_default", "is_system", "created_at").
		Values(pubid.New(pubid.Space), userID, name, description, isDefault, false, database.Now()).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(q.QueryRowContext(ctx, query, args...))
}

// Update는 system space를 거부합니다
func (s *Store) Update(ctx context.Context, userID int64, req *space.UpdateRequest) (*space.Space, error) {
	var updated *space.Space
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		where := sq.Eq{"public_id": req.PublicID, "user_id": userID, "deleted_at": nil}
		existing, err := s.getOne(ctx, tx, where)
		if err != nil {
			return err
		}
		if existing.IsSystem {
			return space.ErrSystemSpace
		}

		builder := s.qb.
			Update("spaces").
			Set("updated_at", database.Now()).
			Where(where)
		if req.Name != nil {
			builder = builder.Set("name", *req.Name)
		}
		if req.Description != nil {
			builder = builder.Set("description", *req.Description)
		}

		query, args, err := builder.Suffix("RETURNING " + strings.Join(columns, ", ")).ToSql()
		if err != nil {
			return err
		}
		updated, err = scanOne(tx.QueryRowContext(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// spaceItems는 space에 직접 속하거나 그 space의 project에 속한 item을 고릅니다
func spaceItems(spaceID int64) sq.Or {
	return sq.Or{
		sq.Eq{"space_id": spaceID},
		sq.Expr("project_id IN (SELECT id FROM projects WHERE space_id = ?)", spaceID),
	}
}

// SoftDelete는 space에 속한 project, status, item도 함께 soft delete 하고
// 함께 지워진 item의 public id를 돌려줍니다
func (s *Store) SoftDelete(ctx context.Context, userID int64, publicID string) (*space.Space, []string, error) {
	var (
		deleted *space.Space
		itemIDs []string
	)
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		now := database.Now()
		query, args, err := s.qb.
			Update("spaces").
			Set("deleted_at", now).
			Set("updated_at", now).
			Where(sq.Eq{"public_id": publicID, "user_id": userID, "deleted_at": nil}).
			Suffix("RETURNING " + strings.Join(columns, ", ")).
			ToSql()
		if err != nil {
			return err
		}
		if deleted, err = scanOne(tx.QueryRowContext(ctx, query, args...)); err != nil {
			return err
		}

		liveItems := sq.And{spaceItems(deleted.ID), sq.Eq{"deleted_at": nil}}
		if itemIDs, err = s.itemPublicIDs(ctx, tx, liveItems); err != nil {
			return err
		}

		// item을 먼저 지워야 project 기준 조건이 그대로 맞는다
		cascades := []struct {
			table string
			where sq.Sqlizer
		}{
			{"items", liveItems},
			{"projects", sq.Eq{"space_id": deleted.ID, "deleted_at": nil}},
			{"statuses", sq.Eq{"space_id": deleted.ID, "deleted_at": nil}},
		}
		for _, c := range cascades {
			query, args, err := s.qb.
				Update(c.table).
				Set("deleted_at", now).
				Set("updated_at", now).
				Where(c.where).
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("soft delete %s of space: %w", c.table, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return deleted, itemIDs, nil
}

// HardDelete는 space와 그 item을 지우고 지워진 item의 public id를 돌려줍니다.
// project와 status는 외래 키 cascade로 지워진다.
func (s *Store) HardDelete(ctx context.Context, userID int64, publicID string) (*space.Space, []string, error) {
	var (
		removed *space.Space
		itemIDs []string
	)
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.getOne(ctx, tx, sq.Eq{"public_id": publicID, "user_id": userID})
		if err != nil {
			return err
		}
		if itemIDs, err = s.itemPublicIDs(ctx, tx, spaceItems(existing.ID)); err != nil {
			return err
		}

		query, args, err := s.qb.Delete("items").Where(spaceItems(existing.ID)).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete items of space: %w", err)
		}

		query, args, err = s.qb.
			Delete("spaces").
			Where(sq.Eq{"id": existing.ID}).
			Suffix("RETURNING " + strings.Join(columns, ", ")).
			ToSql()
		if err != nil {
			return err
		}
		removed, err = scanOne(tx.QueryRowContext(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return removed, itemIDs, nil
}

func (s *Store) itemPublicIDs(ctx context.Context, q database.Querier, where sq.Sqlizer) ([]string, error) {
	query, args, err := s.qb.Select("public_id").From("items").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items of space: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) getOne(ctx context.Context, q database.Querier, where sq.Eq) (*space.Space, error) {
	query, args, err := s.qb.
		Select(columns...).
		From("spaces").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(q.QueryRowContext(ctx, query, args...))
}

func scanOne(row *sql.Row) (*space.Space, error) {
	sp, err := scanSpace(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, space.ErrSpaceNotFound
		}
		return nil, err
	}
	return sp, nil
}
