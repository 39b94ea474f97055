// Package export assembles a user's complete data as one JSON snapshot and
// optionally uploads it to S3 compatible object storage.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"taeu.kr/kirosumi/internal/capture"
	"taeu.kr/kirosumi/internal/platform/apperr"
	"taeu.kr/kirosumi/internal/space"
)

const keyTimeLayout = "20060102T150405Z"

var ErrExportDisabled = apperr.Invalid("export storage is not configured")

type SpaceReader interface {
	List(ctx context.Context, userID int64) ([]*space.Space, error)
	GetDetail(ctx context.Context, userID int64, publicID string) (*space.Detail, error)
}

type CaptureReader interface {
	List(ctx context.Context, userID int64) ([]*capture.Capture, error)
}

// Uploader는 key에 JSON 본문을 저장합니다
type Uploader interface {
	Put(ctx context.Context, key string, body []byte) error
}

type Snapshot struct {
	ExportedAt time.Time          `json:"exportedAt"`
	Spaces     []*space.Detail    `json:"spaces"`
	Captures   []*capture.Capture `json:"captures"`
}

type UploadResult struct {
	Key  string `json:"key"`
	Size int    `json:"size"`
}

type Service struct {
	spaces   SpaceReader
	captures CaptureReader
	uploader Uploader
	now      func() time.Time
}

// NewService의 uploader가 nil이면 Upload는 ErrExportDisabled를 반환합니다
func NewService(spaces SpaceReader, captures CaptureReader, uploader Uploader) *Service {
	return &Service{
		spaces:   spaces,
		captures: captures,
		uploader: uploader,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Snapshot(ctx context.Context, userID int64) (*Snapshot, error) {
	spaces, err := s.spaces.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}

	snap := &Snapshot{
		ExportedAt: s.now(),
		Spaces:     make([]*space.Detail, 0, len(spaces)),
	}
	for _, sp := range spaces {
		detail, err := s.spaces.GetDetail(ctx, userID, sp.PublicID)
		if err != nil {
			return nil, fmt.Errorf("load space %s: %w", sp.PublicID, err)
		}
		snap.Spaces = append(snap.Spaces, detail)
	}

	snap.Captures, err = s.captures.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	return snap, nil
}

func (s *Service) Enabled() bool {
	return s.uploader != nil
}

// Upload는 exports/<userPublicID>/<UTC 시각>.json 에 snapshot을 씁니다
func (s *Service) Upload(ctx context.Context, userID int64, userPublicID string) (*UploadResult, error) {
	if s.uploader == nil {
		return nil, ErrExportDisabled
	}

	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", userPublicID, snap.ExportedAt.Format(keyTimeLayout))
	if err := s.uploader.Put(ctx, key, body); err != nil {
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}

	log.Info().Str("key", key).Int("bytes", len(body)).Msg("[Export] snapshot uploaded")
	return &UploadResult{Key: key, Size: len(body)}, nil
}
