package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"taeu.kr/kirosumi/internal/platform/database"
	"taeu.kr/kirosumi/internal/platform/pubid"
	"taeu.kr/kirosumi/internal/status"
)

var columns = []string{"id", "public_id", "space_id", "name", "type", "color", "icon", "created_at", "updated_at", "deleted_at"}

// Columns는 alias를 붙인 status 컬럼 목록입니다. 다른 store의 join 조회에서 사용한다.
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

func Scan(row rowScanner) (*status.Status, error) {
	n := &Nullable{}
	if err := row.Scan(n.Dest()...); err != nil {
		return nil, err
	}
	return n.Status(), nil
}

// Nullable은 LEFT JOIN으로 비어 있을 수 있는 status 컬럼을 읽습니다
type Nullable struct {
	id        sql.NullInt64
	publicID  sql.NullString
	spaceID   sql.NullInt64
	name      sql.NullString
	typ       sql.NullString
	color     sql.NullString
	icon      sql.NullString
	createdAt database.NullTime
	updatedAt database.NullTime
	deletedAt database.NullTime
}

func (n *Nullable) Dest() []any {
	return []any{&n.id, &n.publicID, &n.spaceID, &n.name, &n.typ, &n.color, &n.icon, &n.createdAt, &n.updatedAt, &n.deletedAt}
}

// Status는 join 결과가 없으면 nil을 반환합니다
func (n *Nullable) Status() *status.Status {
	if !n.id.Valid {
		return nil
	}
	return &status.Status{
		ID:        n.id.Int64,
		PublicID:  n.publicID.String,
		SpaceID:   n.spaceID.Int64,
		Name:      n.name.String,
		Type:      status.Type(n.typ.String),
		Color:     nullString(n.color),
		Icon:      nullString(n.icon),
		CreatedAt: n.createdAt.Time,
		UpdatedAt: n.updatedAt.Ptr(),
		DeletedAt: n.deletedAt.Ptr(),
	}
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
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

func ownedBySpaceOwner(userID int64) sq.Sqlizer {
	return sq.Expr("space_id IN (SELECT id FROM spaces WHERE user_id = ? AND deleted_at IS NULL)", userID)
}

func (s *Store) ListBySpace(ctx context.Context, userID int64, spacePublicID string) ([]*status.Status, error) {
	spaceID, err := database.SpaceID(ctx, s.db, s.qb, userID, spacePublicID)
	if err != nil {
		return nil, err
	}
	return ListBySpaceID(ctx, s.db, s.qb, spaceID)
}

// ListBySpaceID는 소유권 확인이 끝난 space의 status를 최신순으로 반환합니다
func ListBySpaceID(ctx context.Context, q database.Querier, qb sq.StatementBuilderType, spaceID int64) ([]*status.Status, error) {
	query, args, err := qb.
		Select(columns...).
		From("statuses").
		Where(sq.Eq{"space_id": spaceID, "deleted_at": nil}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build status list query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query statuses: %w", err)
	}
	defer rows.Close()

	statuses := []*status.Status{}
	for rows.Next() {
		st, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status row: %w", err)
		}
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}

func (s *Store) GetByID(ctx context.Context, userID, id int64) (*status.Status, error) {
	return s.get(ctx, sq.And{sq.Eq{"id": id, "deleted_at": nil}, ownedBySpaceOwner(userID)})
}

func (s *Store) GetByPublicID(ctx context.Context, userID int64, publicID string) (*status.Status, error) {
	return s.get(ctx, sq.And{sq.Eq{"public_id": publicID, "deleted_at": nil}, ownedBySpaceOwner(userID)})
}

func (s *Store) get(ctx context.Context, where sq.Sqlizer) (*status.Status, error) {
	query, args, err := s.qb.
		Select(columns...).
		From("statuses").
		Where(where).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(s.db.QueryRowContext(ctx, query, args...))
}

func (s *Store) Create(ctx context.Context, userID int64, req *status.CreateRequest) (*status.Status, error) {
	spaceID, err := database.SpaceID(ctx, s.db, s.qb, userID, req.SpacePublicID)
	if err != nil {
		return nil, err
	}
	return Insert(ctx, s.db, s.qb, spaceID, req.Name, req.Type, req.Color, req.Icon)
}

// Insert는 기본 status 생성처럼 트랜잭션 안에서도 쓰이는 단건 삽입입니다
func Insert(ctx context.Context, q database.Querier, qb sq.StatementBuilderType, spaceID int64, name string, typ status.Type, color, icon *string) (*status.Status, error) {
	query, args, err := qb.
		Insert("statuses").
		Columns("public_id", "space_id", "name", "type", "color", "icon", "created_at").
		Values(pubid.New(pubid.Status), spaceID, name, string(typ), color, icon, database.Now()).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(q.QueryRowContext(ctx, query, args...))
}

func (s *Store) Update(ctx context.Context, userID int64, req *status.UpdateRequest) (*status.Status, error) {
	builder := s.qb.
		Update("statuses").
		Set("updated_at", database.Now()).
		Where(sq.Eq{"public_id": req.PublicID, "deleted_at": nil}).
		Where(ownedBySpaceOwner(userID))

	if req.Name != nil {
		builder = builder.Set("name", *req.Name)
	}
	if req.Type != nil {
		builder = builder.Set("type", string(*req.Type))
	}
	if req.Color != nil {
		builder = builder.Set("color", *req.Color)
	}
	if req.Icon != nil {
		builder = builder.Set("icon", *req.Icon)
	}

	query, args, err := builder.Suffix("RETURNING " + strings.Join(columns, ", ")).ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(s.db.QueryRowContext(ctx, query, args...))
}

func (s *Store) SoftDelete(ctx context.Context, userID int64, publicID string) (*status.Status, error) {
	now := database.Now()
	query, args, err := s.qb.
		Update("statuses").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"public_id": publicID, "deleted_at": nil}).
		Where(ownedBySpaceOwner(userID)).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(s.db.QueryRowContext(ctx, query, args...))
}

// HardDelete는 deleted_at과 관계없이 행을 제거합니다. item의 status_id는 NULL이 된다.
func (s *Store) HardDelete(ctx context.Context, userID int64, publicID string) (*status.Status, error) {
	query, args, err := s.qb.
		Delete("statuses").
		Where(sq.Eq{"public_id": publicID}).
		Where(sq.Expr("space_id IN (SELECT id FROM spaces WHERE user_id = ?)", userID)).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(s.db.QueryRowContext(ctx, query, args...))
}

func scanOne(row *sql.Row) (*status.Status, error) {
	st, err := Scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrStatusNotFound
		}
		return nil, err
	}
	return st, nil
}
