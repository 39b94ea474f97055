// Package search indexes captures and items per user. Meilisearch serves
// queries while it is healthy; otherwise a LIKE scan over the database does.
package search

import (
	"context"
	"strings"
	"unicode/utf8"

	"taeu.kr/kirosumi/internal/platform/apperr"
)

// Kind는 capture 또는 item kind(task, note, scratch)입니다
type Kind string

const (
	KindCapture Kind = "capture"
	KindTask    Kind = "task"
	KindNote    Kind = "note"
	KindScratch Kind = "scratch"
)

func (k Kind) Valid() bool {
	switch k {
	case KindCapture, KindTask, KindNote, KindScratch:
		return true
	}
	return false
}

const (
	defaultLimit = 20
	maxLimit     = 100
	snippetRunes = 160
)

// Document는 색인 단위입니다. ID는 public id.
type Document struct {
	ID      string `json:"id"`
	UserID  int64  `json:"userId"`
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	SpaceID *int64 `json:"spaceId,omitempty"`
}

type Query struct {
	Text  string `json:"text"`
	Kind  Kind   `json:"kind,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

func (q *Query) Validate() error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return apperr.Invalid("search text is required")
	}
	if q.Kind != "" && !q.Kind.Valid() {
		return apperr.Invalid("unknown kind %q", q.Kind)
	}
	if q.Limit < 0 {
		return apperr.Invalid("limit must not be negative")
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	q.Limit = min(q.Limit, maxLimit)
	return nil
}

type Hit struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	SpaceID *int64 `json:"spaceId"`
}

type Response struct {
	Hits   []Hit  `json:"hits"`
	Query  string `json:"query"`
	Engine string `json:"engine"`
}

// Searcher는 userID 범위 안에서만 검색합니다
type Searcher interface {
	Search(ctx context.Context, userID int64, q Query) ([]Hit, error)
	Healthy() bool
}

func snippet(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(body) <= snippetRunes {
		return body
	}
	runes := []rune(body)
	return string(runes[:snippetRunes]) + "…"
}
