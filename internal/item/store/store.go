package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"taeu.kr/kirosumi/internal/item"
	"taeu.kr/kirosumi/internal/platform/apperr"
	"taeu.kr/kirosumi/internal/platform/database"
	"taeu.kr/kirosumi/internal/platform/pubid"
	statusstore "taeu.kr/kirosumi/internal/status/store"
)

var columns = []string{
	"id", "public_id", "user_id", "parent_id", "space_id", "project_id", "status_id",
	"name", "kind", "priority", "content", "is_completed", "completed_at",
	"created_at", "updated_at", "deleted_at",
}

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

type scanned struct {
	it          item.Item
	parentID    sql.NullInt64
	spaceID     sql.NullInt64
	projectID   sql.NullInt64
	statusID    sql.NullInt64
	kind        string
	content     []byte
	completedAt database.NullTime
	createdAt   database.NullTime
	updatedAt   database.NullTime
	deletedAt   database.NullTime
}

func (s *scanned) dest() []any {
	return []any{
		&s.it.ID, &s.it.PublicID, &s.it.UserID, &s.parentID, &s.spaceID, &s.projectID, &s.statusID,
		&s.it.Name, &s.kind, &s.it.Priority, &s.content, &s.it.IsCompleted, &s.completedAt,
		&s.createdAt, &s.updatedAt, &s.deletedAt,
	}
}

func (s *scanned) item() *item.Item {
	it := s.it
	it.ParentID = nullInt(s.parentID)
	it.SpaceID = nullInt(s.spaceID)
	it.ProjectID = nullInt(s.projectID)
	it.StatusID = nullInt(s.statusID)
	it.Kind = item.Kind(s.kind)
	if len(s.content) > 0 {
		it.Content = json.RawMessage(s.content)
	}
	it.CompletedAt = s.completedAt.Ptr()
	it.CreatedAt = s.createdAt.Time
	it.UpdatedAt = s.updatedAt.Ptr()
	it.DeletedAt = s.deletedAt.Ptr()
	return &it
}

// Scan은 item 컬럼만 읽습니다
func Scan(row rowScanner) (*item.Item, error) {
	var s scanned
	if err := row.Scan(s.dest()...); err != nil {
		return nil, err
	}
	return s.item(), nil
}

// ScanWithStatus는 SelectWithStatus 결과 한 행을 읽습니다
func ScanWithStatus(row rowScanner) (*item.Item, error) {
	var (
		s  scanned
		st statusstore.Nullable
	)
	if err := row.Scan(append(s.dest(), st.Dest()...)...); err != nil {
		return nil, err
	}
	it := s.item()
	it.Status = st.Status()
	return it, nil
}

// SelectWithStatus는 items를 i, 살아 있는 status를 st로 LEFT JOIN 합니다
func SelectWithStatus(qb sq.StatementBuilderType) sq.SelectBuilder {
	return qb.
		Select(append(Columns("i"), statusstore.Columns("st")...)...).
		From("items i").
		LeftJoin("statuses st ON st.id = i.status_id AND st.deleted_at IS NULL")
}

// QueryWithStatus는 SelectWithStatus 기반 조회를 실행합니다
func QueryWithStatus(ctx context.Context, q database.Querier, builder sq.SelectBuilder) ([]*item.Item, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build item query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []*item.Item{}
	for rows.Next() {
		it, err := ScanWithStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
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

func live(userID int64) sq.Eq {
	return sq.Eq{"i.user_id": userID, "i.deleted_at": nil}
}

func (s *Store) List(ctx context.Context, userID int64, filter item.ListFilter) ([]*item.Item, error) {
	where := live(userID)
	if filter.SpacePublicID != "" {
		spaceID, err := database.SpaceID(ctx, s.db, s.qb, userID, filter.SpacePublicID)
		if err != nil {
			return nil, err
		}
		where["i.space_id"] = spaceID
	}
	if filter.Kind != "" {
		where["i.kind"] = string(filter.Kind)
	}
	if !filter.IncludeCompleted {
		where["i.is_completed"] = false
	}

	return QueryWithStatus(ctx, s.db, SelectWithStatus(s.qb).
		Where(where).
		OrderBy("i.priority DESC", "i.created_at DESC", "i.id DESC"))
}

// Inbox는 분류되지 않은 항목, 즉 capture와 project 없는 task를 반환합니다
func (s *Store) Inbox(ctx context.Context, userID int64, spacePublicID string) ([]*item.Item, error) {
	spaceID, err := database.SpaceID(ctx, s.db, s.qb, userID, spacePublicID)
	if err != nil {
		return nil, err
	}

	where := live(userID)
	where["i.space_id"] = spaceID
	where["i.is_completed"] = false

	return QueryWithStatus(ctx, s.db, SelectWithStatus(s.qb).
		Where(where).
		Where(sq.Or{
			sq.Eq{"i.kind": string(item.KindCapture)},
			sq.Eq{"i.kind": string(item.KindTask), "i.project_id": nil},
		}).
		OrderBy("i.created_at DESC", "i.id DESC"))
}

func (s *Store) ListByProject(ctx context.Context, userID int64, projectPublicID string, includeCompleted bool) ([]*item.Item, error) {
	projectID, err := database.ProjectID(ctx, s.db, s.qb, userID, projectPublicID)
	if err != nil {
		return nil, err
	}

	where := live(userID)
	where["i.project_id"] = projectID
	if !includeCompleted {
		where["i.is_completed"] = false
	}

	return QueryWithStatus(ctx, s.db, SelectWithStatus(s.qb).
		Where(where).
		OrderBy("i.priority DESC", "i.created_at DESC", "i.id DESC"))
}

func (s *Store) GetByPublicID(ctx context.Context, userID int64, publicID string) (*item.Item, error) {
	where := live(userID)
	where["i.public_id"] = publicID
	return s.getOne(ctx, s.db, where)
}

func (s *Store) getOne(ctx context.Context, q database.Querier, where sq.Eq) (*item.Item, error) {
	query, args, err := SelectWithStatus(s.qb).Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	it, err := ScanWithStatus(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, item.ErrItemNotFound
		}
		return nil, err
	}
	return it, nil
}

// NewItem은 참조가 이미 내부 id로 풀린 삽입 값입니다
type NewItem struct {
	UserID    int64
	ParentID  *int64
	SpaceID   *int64
	ProjectID *int64
	StatusID  *int64
	Name      string
	Kind      item.Kind
	Priority  int
	Content   json.RawMessage
}

func (s *Store) Create(ctx context.Context, userID int64, req *item.CreateRequest) (*item.Item, error) {
	n := NewItem{
		UserID:   userID,
		Name:     req.Name,
		Kind:     req.Kind,
		Priority: req.Priority,
		Content:  req.Content,
	}

	var created *item.Item
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		p, err := database.ResolvePlacement(ctx, tx, s.qb, userID, req.SpacePublicID, req.ProjectPublicID, req.StatusPublicID)
		if err != nil {
			return err
		}
		n.SpaceID = &p.SpaceID
		n.ProjectID = p.ProjectID
		n.StatusID = p.StatusID

		if req.ParentPublicID != "" {
			parentID, err := database.ItemID(ctx, tx, s.qb, userID, req.ParentPublicID)
			if err != nil {
				return err
			}
			n.ParentID = &parentID
		}

		created, err = s.Insert(ctx, tx, n)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Insert는 q 안에서 item을 만들고 status를 붙여 다시 읽습니다
func (s *Store) Insert(ctx context.Context, q database.Querier, n NewItem) (*item.Item, error) {
	query, args, err := s.qb.
		Insert("items").
		Columns("public_id", "user_id", "parent_id", "space_id", "project_id", "status_id", "name", "kind", "priority", "content", "is_completed", "created_at").
		Values(pubid.New(pubid.ForItemKind(string(n.Kind))), n.UserID, n.ParentID, n.SpaceID, n.ProjectID, n.StatusID,
			n.Name, string(n.Kind), n.Priority, s.db.JSONArg(n.Content), false, database.Now()).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var id int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return s.getOne(ctx, q, sq.Eq{"i.id": id})
}

func (s *Store) Update(ctx context.Context, userID int64, req *item.UpdateRequest) (*item.Item, error) {
	var updated *item.Item
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		builder := s.qb.
			Update("items").
			Set("updated_at", database.Now()).
			Where(sq.Eq{"public_id": req.PublicID, "user_id": userID, "deleted_at": nil})

		if req.Name != nil {
			builder = builder.Set("name", *req.Name)
		}
		if req.Kind != nil {
			builder = builder.Set("kind", string(*req.Kind))
		}
		if req.Priority != nil {
			builder = builder.Set("priority", *req.Priority)
		}
		if req.Content != nil {
			builder = builder.Set("content", s.db.JSONArg(req.Content))
		}
		if req.StatusPublicID != nil {
			if *req.StatusPublicID == "" {
				builder = builder.Set("status_id", nil)
			} else {
				statusID, err := s.statusFor(ctx, tx, userID, req.PublicID, *req.StatusPublicID)
				if err != nil {
					return err
				}
				builder = builder.Set("status_id", statusID)
			}
		}

		id, err := execReturningID(ctx, tx, builder)
		if err != nil {
			return err
		}
		updated, err = s.getOne(ctx, tx, sq.Eq{"i.id": id})
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// statusFor는 item이 속한 space의 status만 허용합니다
func (s *Store) statusFor(ctx context.Context, q database.Querier, userID int64, itemPublicID, statusPublicID string) (int64, error) {
	existing, err := s.getOne(ctx, q, sq.Eq{"i.public_id": itemPublicID, "i.user_id": userID, "i.deleted_at": nil})
	if err != nil {
		return 0, err
	}
	if existing.SpaceID == nil {
		return database.StatusID(ctx, q, s.qb, userID, statusPublicID)
	}
	return database.StatusInSpace(ctx, q, s.qb, userID, statusPublicID, *existing.SpaceID)
}

// SetCompleted는 현재 값이 반대일 때만 갱신합니다.
// 그 사이 다른 요청이 먼저 바꿨다면 conflict 입니다.
func (s *Store) SetCompleted(ctx context.Context, userID int64, publicID string, completed bool) (*item.Item, error) {
	now := database.Now()
	var completedAt any
	if completed {
		completedAt = now
	}

	var updated *item.Item
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := execReturningID(ctx, tx, s.qb.
			Update("items").
			Set("is_completed", completed).
			Set("completed_at", completedAt).
			Set("updated_at", now).
			Where(sq.Eq{"public_id": publicID, "user_id": userID, "is_completed": !completed, "deleted_at": nil}))
		if errors.Is(err, item.ErrItemNotFound) {
			if _, getErr := s.getOne(ctx, tx, sq.Eq{"i.public_id": publicID, "i.user_id": userID, "i.deleted_at": nil}); getErr == nil {
				return apperr.Conflict("item was already changed by another request")
			}
		}
		if err != nil {
			return err
		}
		updated, err = s.getOne(ctx, tx, sq.Eq{"i.id": id})
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) SoftDelete(ctx context.Context, userID int64, publicID string) (*item.Item, error) {
	return SoftDeleteIn(ctx, s.db, s.qb, sq.Eq{"public_id": publicID, "user_id": userID})
}

// SoftDeleteIn은 트랜잭션 안에서도 쓰이는 soft delete 입니다
func SoftDeleteIn(ctx context.Context, q database.Querier, qb sq.StatementBuilderType, where sq.Eq) (*item.Item, error) {
	now := database.Now()
	query, args, err := qb.
		Update("items").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(where).
		Where(sq.Eq{"deleted_at": nil}).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(q.QueryRowContext(ctx, query, args...))
}

func (s *Store) HardDelete(ctx context.Context, userID int64, publicID string) (*item.Item, error) {
	query, args, err := s.qb.
		Delete("items").
		Where(sq.Eq{"public_id": publicID, "user_id": userID}).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanOne(s.db.QueryRowContext(ctx, query, args...))
}

func execReturningID(ctx context.Context, q database.Querier, builder sq.UpdateBuilder) (int64, error) {
	query, args, err := builder.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, item.ErrItemNotFound
		}
		return 0, err
	}
	return id, nil
}

func scanOne(row *sql.Row) (*item.Item, error) {
	it, err := Scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, item.ErrItemNotFound
		}
		return nil, err
	}
	return it, nil
}
