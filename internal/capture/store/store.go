package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"taeu.kr/kirosumi/internal/capture"
	"taeu.kr/kirosumi/internal/item"
	itemstore "taeu.kr/kirosumi/internal/item/store"
	"taeu.kr/kirosumi/internal/platform/database"
	"taeu.kr/kirosumi/internal/platform/pubid"
	"taeu.kr/kirosumi/internal/status"
)

var columns = []string{"id", "public_id", "created_by", "title", "description", "created_at", "updated_at", "deleted_at"}

type rowScanner interface {
	Scan(dest ...any) error
}

func Scan(row rowScanner) (*capture.Capture, error) {
	var (
		c           capture.Capture
		description []byte
		createdAt   database.NullTime
		updatedAt   database.NullTime
		deletedAt   database.NullTime
	)
	if err := row.Scan(&c.ID, &c.PublicID, &c.CreatedBy, &c.Title, &description, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}
	if len(description) > 0 {
		c.Description = json.RawMessage(description)
	}
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Ptr()
	c.DeletedAt = deletedAt.Ptr()
	return &c, nil
}

type Store struct {
	db    *database.DB
	qb    sq.StatementBuilderType
	items *itemstore.Store
}

func NewStore(db *database.DB) *Store {
	return &Store{
		db:    db,
		qb:    db.Builder(),
		items: itemstore.NewStore(db),
	}
}

func owned(userID int64) sq.Eq {
	return sq.Eq{"created_by": userID, "deleted_at": nil}
}

func (s *Store) List(ctx context.Context, userID int64) ([]*capture.Capture, error) {
	query, args, err := s.qb.
		Select(columns...).
		From("captures").
		Where(owned(userID)).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build capture list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	defer rows.Close()

	captures := []*capture.Capture{}
	for rows.Next() {
		c, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan capture row: %w", err)
		}
		captures = append(captures, c)
	}
	return captures, rows.Err()
}

func (s *Store) GetByPublicID(ctx context.Context, userID int64, publicID string) (*capture.Capture, error) {
	return s.getOne(ctx, s.db, userID, publicID)
}

func (s *Store) getOne(ctx context.Context, q database.Querier, userID int64, publicID string) (*capture.Capture, error) {
	where := owned(userID)
	where["public_id"] = publicID
	query, args, err := s.qb.
		Select(columns...).
		From("captures").
		Where(where).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(q.QueryRowContext(ctx, query, args...))
}

func (s *Store) Create(ctx context.Context, userID int64, req *capture.CreateRequest) (*capture.Capture, error) {
	query, args, err := s.qb.
		Insert("captures").
		Columns("public_id", "created_by", "title", "description", "created_at").
		Values(pubid.New(pubid.Capture), userID, req.Title, s.db.JSONArg(req.Description), database.Now()).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(s.db.QueryRowContext(ctx, query, args...))
}

func (s *Store) Update(ctx context.Context, userID int64, req *capture.UpdateRequest) (*capture.Capture, error) {
	where := owned(userID)
	where["public_id"] = req.PublicID
	builder := s.qb.
		Update("captures").
		Set("updated_at", database.Now()).
		Where(where)

	if req.Title != nil {
		builder = builder.Set("title", *req.Title)
	}
	if req.Description != nil {
		builder = builder.Set("description", s.db.JSONArg(req.Description))
	}

	query, args, err := builder.Suffix("RETURNING " + strings.Join(columns, ", ")).ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(s.db.QueryRowContext(ctx, query, args...))
}

func (s *Store) SoftDelete(ctx context.Context, userID int64, publicID string) (*capture.Capture, error) {
	return s.softDelete(ctx, s.db, userID, publicID)
}

func (s *Store) softDelete(ctx context.Context, q database.Querier, userID int64, publicID string) (*capture.Capture, error) {
	now := database.Now()
	where := owned(userID)
	where["public_id"] = publicID
	query, args, err := s.qb.
		Update("captures").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(where).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(q.QueryRowContext(ctx, query, args...))
}

func (s *Store) HardDelete(ctx context.Context, userID int64, publicID string) (*capture.Capture, error) {
	query, args, err := s.qb.
		Delete("captures").
		Where(sq.Eq{"public_id": publicID, "created_by": userID}).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(s.db.QueryRowContext(ctx, query, args...))
}

// ConvertToTask는 task 생성과 capture 삭제를 한 트랜잭션에서 처리합니다
func (s *Store) ConvertToTask(ctx context.Context, userID int64, req *capture.ConvertRequest) (*item.Item, error) {
	var task *item.Item
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		c, err := s.getOne(ctx, tx, userID, req.PublicID)
		if err != nil {
			return err
		}

		p, err := database.ResolvePlacement(ctx, tx, s.qb, userID, req.SpacePublicID, req.ProjectPublicID, req.StatusPublicID)
		if err != nil {
			return err
		}
		n := itemstore.NewItem{
			UserID:    userID,
			SpaceID:   &p.SpaceID,
			ProjectID: p.ProjectID,
			StatusID:  p.StatusID,
			Name:      c.Title,
			Kind:      item.KindTask,
			Content:   c.Description,
		}
		if req.Priority != nil {
			n.Priority = *req.Priority
		}
		if n.StatusID == nil {
			if n.StatusID, err = s.firstBacklogStatus(ctx, tx, p.SpaceID); err != nil {
				return err
			}
		}

		if task, err = s.items.Insert(ctx, tx, n); err != nil {
			return err
		}
		_, err = s.softDelete(ctx, tx, userID, c.PublicID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// firstBacklogStatus는 space에서 가장 먼저 만든 Backlog status를 찾습니다. 없으면 nil.
func (s *Store) firstBacklogStatus(ctx context.Context, q database.Querier, spaceID int64) (*int64, error) {
	query, args, err := s.qb.
		Select("id").
		From("statuses").
		Where(sq.Eq{"space_id": spaceID, "type": string(status.TypeBacklog), "deleted_at": nil}).
		OrderBy("created_at ASC", "id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var id int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &id, nil
}

func scanOne(row *sql.Row) (*capture.Capture, error) {
	c, err := Scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, capture.ErrCaptureNotFound
		}
		return nil, err
	}
	return c, nil
}
