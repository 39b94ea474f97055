package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"taeu.kr/kirosumi/internal/platform/database"
	"taeu.kr/kirosumi/internal/richtext"
)

// searchPage는 fallback 검색이 한 번에 읽는 최소 후보 수입니다
const searchPage = 50

// Database는 LIKE로 후보를 고른 뒤 본문 plain text로 다시 거릅니다
type Database struct {
	db *database.DB
	qb sq.StatementBuilderType
}

func NewDatabase(db *database.DB) *Database {
	return &Database{
		db: db,
		qb: db.Builder(),
	}
}

func (d *Database) Healthy() bool {
	return true
}

// Search는 후보를 searchPage 단위로 넘기며 limit개의 진짜 일치를 채울 때까지 읽습니다
func (d *Database) Search(ctx context.Context, userID int64, q Query) ([]Hit, error) {
	pattern := "%" + escapeLike(q.Text) + "%"
	needle := strings.ToLower(q.Text)
	pageSize := max(q.Limit*2, searchPage)

	type source func(ctx context.Context, limit, offset int) ([]Document, error)
	var sources []source
	if q.Kind == "" || q.Kind == KindCapture {
		where := sq.And{
			sq.Eq{"created_by": userID, "deleted_at": nil},
			d.like(pattern, "title", "description"),
		}
		sources = append(sources, func(ctx context.Context, limit, offset int) ([]Document, error) {
			return d.captures(ctx, where, limit, offset)
		})
	}
	if q.Kind != KindCapture {
		where := sq.And{
			sq.Eq{"user_id": userID, "deleted_at": nil},
			sq.NotEq{"kind": string(KindCapture)},
			d.like(pattern, "name", "content"),
		}
		if q.Kind != "" {
			where = append(where, sq.Eq{"kind": string(q.Kind)})
		}
		sources = append(sources, func(ctx context.Context, limit, offset int) ([]Document, error) {
			return d.items(ctx, where, limit, offset)
		})
	}

	hits := make([]Hit, 0, q.Limit)
	for _, next := range sources {
		for offset := 0; len(hits) < q.Limit; offset += pageSize {
			docs, err := next(ctx, pageSize, offset)
			if err != nil {
				return nil, err
			}
			for _, doc := range docs {
				if len(hits) == q.Limit {
					break
				}
				// LIKE는 rich text JSON의 키 이름에도 걸리므로 plain text로 다시 확인한다
				if !strings.Contains(strings.ToLower(doc.Title), needle) &&
					!strings.Contains(strings.ToLower(doc.Body), needle) {
					continue
				}
				hits = append(hits, Hit{
					ID:      doc.ID,
					Kind:    doc.Kind,
					Title:   doc.Title,
					Snippet: snippet(doc.Body),
					SpaceID: doc.SpaceID,
				})
			}
			if len(docs) < pageSize {
				break
			}
		}
	}
	return hits, nil
}

// LoadAll은 재색인용으로 모든 사용자의 살아 있는 capture와 item을 읽습니다
func (d *Database) LoadAll(ctx context.Context) ([]Document, error) {
	captures, err := d.captures(ctx, sq.Eq{"deleted_at": nil}, 0, 0)
	if err != nil {
		return nil, err
	}
	items, err := d.items(ctx, sq.And{
		sq.Eq{"deleted_at": nil},
		sq.NotEq{"kind": string(KindCapture)},
	}, 0, 0)
	if err != nil {
		return nil, err
	}
	return append(captures, items...), nil
}

func (d *Database) like(pattern string, textColumn, jsonColumn string) sq.Sqlizer {
	op := d.db.LikeOp()
	return sq.Or{
		sq.Expr(textColumn+" "+op+" ? ESCAPE '\\'", pattern),
		sq.Expr("CAST("+jsonColumn+" AS TEXT) "+op+" ? ESCAPE '\\'", pattern),
	}
}

func (d *Database) captures(ctx context.Context, where sq.Sqlizer, limit, offset int) ([]Document, error) {
	builder := d.qb.
		Select("public_id", "created_by", "title", "description").
		From("captures").
		Where(where).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit)).Offset(uint64(offset))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build capture search query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search captures: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var (
			doc         = Document{Kind: KindCapture}
			description []byte
		)
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Title, &description); err != nil {
			return nil, fmt.Errorf("failed to scan capture row: %w", err)
		}
		doc.Body = richtext.PlainText(json.RawMessage(description))
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (d *Database) items(ctx context.Context, where sq.Sqlizer, limit, offset int) ([]Document, error) {
	builder := d.qb.
		Select("public_id", "user_id", "kind", "name", "content", "space_id").
		From("items").
		Where(where).
		OrderBy("priority DESC", "created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit)).Offset(uint64(offset))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build item search query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var (
			doc     Document
			kind    string
			content []byte
			spaceID sql.NullInt64
		)
		if err := rows.Scan(&doc.ID, &doc.UserID, &kind, &doc.Title, &content, &spaceID); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		doc.Kind = Kind(kind)
		doc.Body = richtext.PlainText(json.RawMessage(content))
		if spaceID.Valid {
			doc.SpaceID = &spaceID.Int64
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
