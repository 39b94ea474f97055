package database

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const storedTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Timestamp는 고정 폭 텍스트로 저장되는 UTC 시각입니다.
// sqlite에서 created_at 문자열 정렬이 시간 순서와 같아지도록 소수점 자릿수를 고정한다.
type Timestamp struct {
	time.Time
}

func (t Timestamp) Value() (driver.Value, error) {
	return t.Time.UTC().Format(storedTimeLayout), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// NullTime은 DATETIME 컬럼을 읽습니다. sqlite는 RETURNING 결과처럼 선언 타입을 모르는 경우
// 시간을 텍스트로 돌려주므로 문자열도 파싱한다.
type NullTime struct {
	Time  time.Time
	Valid bool
}

func (t *NullTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case int64:
		t.Time, t.Valid = time.Unix(v, 0).UTC(), true
		return nil
	}
	return fmt.Errorf("cannot scan %T into NullTime", src)
}

func (t *NullTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as time", s)
}

// Ptr는 NULL이면 nil을 반환합니다
func (t NullTime) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
