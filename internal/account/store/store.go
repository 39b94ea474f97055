package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"taeu.kr/kirosumi/internal/account"
	"taeu.kr/kirosumi/internal/platform/apperr"
	"taeu.kr/kirosumi/internal/platform/database"
	"taeu.kr/kirosumi/internal/platform/pubid"
)

var userColumns = []string{"id", "public_id", "username", "password_hash", "nickname", "role", "created_at", "updated_at"}

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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*account.User, error) {
	var (
		user      account.User
		role      string
		createdAt database.NullTime
		updatedAt database.NullTime
	)
	if err := row.Scan(&user.ID, &user.PublicID, &user.Username, &user.PasswordHash, &user.Nickname, &role, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	user.Role = account.Role(role)
	user.CreatedAt = createdAt.Time
	user.UpdatedAt = updatedAt.Time
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*account.User, error) {
	query, args, err := s.qb.
		Select(userColumns...).
		From("users").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*account.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = ""
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*account.User, error) {
	return s.getUser(ctx, sq.Eq{"id": id})
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*account.User, error) {
	return s.getUser(ctx, sq.Eq{"username": username})
}

func (s *Store) getUser(ctx context.Context, where sq.Eq) (*account.User, error) {
	query, args, err := s.qb.
		Select(userColumns...).
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, err
	}

	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, req *account.CreateUserRequest, passwordHash string) (*account.User, error) {
	now := database.Now()
	query, args, err := s.qb.
		Insert("users").
		Columns("public_id", "username", "password_hash", "nickname", "role", "created_at", "updated_at").
		Values(pubid.New(pubid.User), req.Username, passwordHash, req.Nickname, string(req.Role), now, now).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}

	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if database.Classify(err) == database.ViolationUnique {
			return nil, apperr.Conflict("username already exists")
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *Store) UpdateUser(ctx context.Context, id int64, req *account.UpdateUserRequest, passwordHash *string) (*account.User, error) {
	builder := s.qb.
		Update("users").
		Set("updated_at", database.Now()).
		Where(sq.Eq{"id": id})

	if req.Nickname != nil {
		builder = builder.Set("nickname", *req.Nickname)
	}
	if req.Role != nil {
		builder = builder.Set("role", string(*req.Role))
	}
	if passwordHash != nil {
		builder = builder.Set("password_hash", *passwordHash)
	}

	query, args, err := builder.Suffix("RETURNING " + strings.Join(userColumns, ", ")).ToSql()
	if err != nil {
		return nil, err
	}

	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	query, args, err := s.qb.
		Delete("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return account.ErrUserNotFound
	}
	return nil
}

func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	query, args, err := s.qb.
		Select("COUNT(*)").
		From("users").
		Where(sq.Eq{"role": string(account.RoleAdmin)}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}
