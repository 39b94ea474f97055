package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"taeu.kr/kirosumi/internal/platform/database"
	"taeu.kr/kirosumi/internal/platform/pubid"
	"taeu.kr/kirosumi/internal/project"
)

var columns = []string{"id", "public_id", "space_id", "user_id", "name", "description", "created_at", "updated_at", "deleted_at"}

func Columns(alias string) []string {
	if alias == "" {
		return columns
	}
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = alias + "." + c
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func Scan(row rowScanner) (*project.Project, error) {
	var (
		p           project.Project
		description []byte
		createdAt   database.NullTime
		updatedAt   database.NullTime
		deletedAt   database.NullTime
	)
	if err := row.Scan(&p.ID, &p.PublicID, &p.SpaceID, &p.UserID, &p.Name, &description, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}
	if len(description) > 0 {
		p.Description = json.RawMessage(description)
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Ptr()
	p.DeletedAt = deletedAt.Ptr()
	return &p, nil
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

func (s *Store) List(ctx context.Context, userID int64) ([]*project.Project, error) {
	return s.list(ctx, s.db, sq.Eq{"user_id": userID, "deleted_at": nil})
}

func (s *Store) ListBySpace(ctx context.Context, userID int64, spacePublicID string) ([]*project.Project, error) {
	spaceID, err := database.SpaceID(ctx, s.db, s.qb, userID, spacePublicID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, s.db, sq.Eq{"user_id": userID, "space_id": spaceID, "deleted_at": nil})
}

// ListBySpaceID는 소유권 확인이 끝난 space의 project를 최신순으로 반환합니다
func ListBySpaceID(ctx context.Context, q database.Querier, qb sq.StatementBuilderType, spaceID int64) ([]*project.Project, error) {
	return (&Store{qb: qb}).list(ctx, q, sq.Eq{"space_id": spaceID, "deleted_at": nil})
}

func (s *Store) list(ctx context.Context, q database.Querier, where sq.Eq) ([]*project.Project, error) {
	query, args, err := s.qb.
		Select(columns...).
		From("projects").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build project list query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []*project.Project{}
	for rows.Next() {
		p, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) GetByPublicID(ctx context.Context, userID int64, publicID string) (*project.Project, error) {
	query, args, err := s.qb.
		Select(columns...).
		From("projects").
		Where(sq.Eq{"public_id": publicID, "user_id": userID, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(s.db.QueryRowContext(ctx, query, args...))
}

func (s *Store) Count(ctx context.Context, userID int64) (int, error) {
	query, args, err := s.qb.
		Select("COUNT(*)").
		From("projects").
		Where(sq.Eq{"user_id": userID, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return count, nil
}

func (s *Store) Create(ctx context.Context, userID int64, req *project.CreateRequest) (*project.Project, error) {
	spaceID, err := database.SpaceID(ctx, s.db, s.qb, userID, req.SpacePublicID)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, s.db, userID, spaceID, req.Name, req.Description)
}

// CreateDefault는 space 확인과 삽입을 하나의 트랜잭션으로 처리합니다
func (s *Store) CreateDefault(ctx context.Context, userID int64, spacePublicID string) (*project.Project, error) {
	var created *project.Project
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		spaceID, err := database.SpaceID(ctx, tx, s.qb, userID, spacePublicID)
		if err != nil {
			return err
		}
		created, err = s.insert(ctx, tx, userID, spaceID, project.DefaultName, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) insert(ctx context.Context, q database.Querier, userID, spaceID int64, name string, description json.RawMessage) (*project.Project, error) {
	query, args, err := s.qb.
		Insert("projects").
		Columns("public_id", "space_id", "user_id", "name", "description", "created_at").
		Values(pubid.New(pubid.Project), spaceID, userID, name, s.db.JSONArg(description), database.Now()).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(q.QueryRowContext(ctx, query, args...))
}

func (s *Store) Update(ctx context.Context, userID int64, req *project.UpdateRequest) (*project.Project, error) {
	builder := s.qb.
		Update("projects").
		Set("updated_at", database.Now()).
		Where(sq.Eq{"public_id": req.PublicID, "user_id": userID, "deleted_at": nil})

	if req.Name != nil {
		builder = builder.Set("name", *req.Name)
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

func (s *Store) SoftDelete(ctx context.Context, userID int64, publicID string) (*project.Project, error) {
	now := database.Now()
	query, args, err := s.qb.
		Update("projects").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"public_id": publicID, "user_id": userID, "deleted_at": nil}).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(s.db.QueryRowContext(ctx, query, args...))
}

func (s *Store) HardDelete(ctx context.Context, userID int64, publicID string) (*project.Project, error) {
	query, args, err := s.qb.
		Delete("projects").
		Where(sq.Eq{"public_id": publicID, "user_id": userID}).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(s.db.QueryRowContext(ctx, query, args...))
}

func scanOne(row *sql.Row) (*project.Project, error) {
	p, err := Scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, project.ErrProjectNotFound
		}
		return nil, err
	}
	return p, nil
}
