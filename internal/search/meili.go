package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"github.com/rs/zerolog/log"
)

const indexUID = "kirosumi_documents"

var errUnhealthy = errors.New("meilisearch unhealthy")

type Meili struct {
	client    meili.ServiceManager
	healthy   atomic.Bool
	onRecover atomic.Pointer[func()]
	done      chan struct{}
}

// NewMeili는 연결에 실패해도 Meili를 반환합니다. health loop가 회복을 감지한다.
func NewMeili(url, apiKey string) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("[Search] meilisearch unavailable, using database fallback")
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        indexUID,
		PrimaryKey: "id",
	}); err != nil {
		log.Debug().Err(err).Msg("[Search] create index (may already exist)")
	}

	index := m.client.Index(indexUID)
	filterable := []interface{}{"userId", "kind"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Warn().Err(err).Msg("[Search] update filterable attributes")
	}
	searchable := []string{"title", "body"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Warn().Err(err).Msg("[Search] update searchable attributes")
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Swap(err == nil)
			if err == nil && !wasHealthy {
				log.Info().Msg("[Search] meilisearch recovered, reconfiguring index")
				m.configureIndex()
				if fn := m.onRecover.Load(); fn != nil {
					(*fn)()
				}
			}
		}
	}
}

// OnRecover는 unhealthy에서 healthy로 바뀔 때마다 fn을 부릅니다
func (m *Meili) OnRecover(fn func()) {
	m.onRecover.Store(&fn)
}

func (m *Meili) Close() {
	close(m.done)
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

func (m *Meili) Search(_ context.Context, userID int64, q Query) ([]Hit, error) {
	if !m.healthy.Load() {
		return nil, errUnhealthy
	}

	filters := []string{fmt.Sprintf("userId = %d", userID)}
	if q.Kind != "" {
		filters = append(filters, fmt.Sprintf("kind = %q", string(q.Kind)))
	}

	resp, err := m.client.Index(indexUID).Search(q.Text, &meili.SearchRequest{
		Limit:            int64(q.Limit),
		Filter:           strings.Join(filters, " AND "),
		AttributesToCrop: []string{"body"},
		CropLength:       24,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	hits := make([]Hit, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		hits = append(hits, hitFromMeili(hit))
	}
	return hits, nil
}

func hitFromMeili(hit meili.Hit) Hit {
	h := Hit{
		ID:    decodeString(hit, "id"),
		Kind:  Kind(decodeString(hit, "kind")),
		Title: decodeString(hit, "title"),
	}
	h.Snippet = snippet(firstNonBlank(decodeFormatted(hit, "body"), decodeString(hit, "body")))
	if raw, ok := hit["spaceId"]; ok {
		var spaceID int64
		if err := json.Unmarshal(raw, &spaceID); err == nil {
			h.SpaceID = &spaceID
		}
	}
	return h
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func decodeFormatted(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]json.RawMessage
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(formatted[key], &s); err != nil {
		return ""
	}
	return s
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (m *Meili) Index(docs ...Document) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := m.client.Index(indexUID).AddDocuments(docs, nil)
	return err
}

func (m *Meili) Delete(publicID string) error {
	_, err := m.client.Index(indexUID).DeleteDocument(publicID, nil)
	return err
}

func (m *Meili) Clear() error {
	_, err := m.client.Index(indexUID).DeleteAllDocuments(nil)
	return err
}
