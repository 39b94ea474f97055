package rpc

import (
	"errors"
	"strings"
)

// PublicIDInput은 {publicId} 하나만 받는 procedure의 입력입니다
type PublicIDInput struct {
	PublicID string `json:"publicId"`
}

func (in *PublicIDInput) Validate() error {
	in.PublicID = strings.TrimSpace(in.PublicID)
	if in.PublicID == "" {
		return errors.New("publicId is required")
	}
	return nil
}

// IDInput은 숫자 id를 받는 procedure의 입력입니다
type IDInput struct {
	ID int64 `json:"id"`
}

func (in *IDInput) Validate() error {
	if in.ID <= 0 {
		return errors.New("id must be a positive integer")
	}
	return nil
}

// RefInput은 public id를 id 키로 받는 procedure의 입력입니다
type RefInput struct {
	ID string `json:"id"`
}

func (in *RefInput) Validate() error {
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return errors.New("id is required")
	}
	return nil
}
