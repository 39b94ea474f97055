// Package modal keeps the per-user overlay stack of the web client: a LIFO of
// typed modals plus a bag of per-type state that survives closing them.
package modal

import (
	"encoding/json"

	"taeu.kr/kirosumi/internal/platform/apperr"
)

type ContentType string

const (
	CreateCapture        ContentType = "CREATE_CAPTURE"
	CaptureDetails       ContentType = "CAPTURE_DETAILS"
	ConvertCaptureToTask ContentType = "CONVERT_CAPTURE_TO_TASK"
)

func (t ContentType) Valid() bool {
	switch t {
	case CreateCapture, CaptureDetails, ConvertCaptureToTask:
		return true
	}
	return false
}

type Modal struct {
	ContentType         ContentType `json:"contentType"`
	EntityID            string      `json:"entityId,omitempty"`
	EntityLabel         string      `json:"entityLabel,omitempty"`
	CloseOnClickOutside bool        `json:"closeOnClickOutside"`
}

type Stack struct {
	Modals []Modal                    `json:"modals"`
	States map[string]json.RawMessage `json:"states"`
}

func NewStack() *Stack {
	return &Stack{
		Modals: []Modal{},
		States: map[string]json.RawMessage{},
	}
}

// Open은 맨 위와 같은 modal(type, entity id, label)이면 아무것도 하지 않습니다
func (s *Stack) Open(contentType ContentType, entityID, entityLabel string, closeOnClickOutside bool) error {
	if !contentType.Valid() {
		return apperr.Invalid("unknown modal content type %q", contentType)
	}
	if top, ok := s.top(); ok &&
		top.ContentType == contentType &&
		top.EntityID == entityID &&
		top.EntityLabel == entityLabel {
		return nil
	}
	s.Modals = append(s.Modals, Modal{
		ContentType:         contentType,
		EntityID:            entityID,
		EntityLabel:         entityLabel,
		CloseOnClickOutside: closeOnClickOutside,
	})
	return nil
}

func (s *Stack) Close() {
	s.CloseN(1)
}

// CloseN은 위에서부터 최대 count개를 닫습니다. count <= 0 이면 그대로.
func (s *Stack) CloseN(count int) {
	if count <= 0 {
		return
	}
	keep := max(len(s.Modals)-count, 0)
	s.Modals = s.Modals[:keep]
}

// Clear는 state bag은 건드리지 않습니다
func (s *Stack) Clear() {
	s.Modals = s.Modals[:0]
}

func (s *Stack) SetState(modalType string, state json.RawMessage) {
	if s.States == nil {
		s.States = map[string]json.RawMessage{}
	}
	s.States[modalType] = state
}

func (s *Stack) State(modalType string) (json.RawMessage, bool) {
	state, ok := s.States[modalType]
	return state, ok
}

func (s *Stack) ClearState(modalType string) {
	delete(s.States, modalType)
}

func (s *Stack) ClearStates() {
	s.States = map[string]json.RawMessage{}
}

func (s *Stack) top() (Modal, bool) {
	if len(s.Modals) == 0 {
		return Modal{}, false
	}
	return s.Modals[len(s.Modals)-1], true
}

// View는 맨 위 modal을 클라이언트가 쓰는 형태로 풀어 놓은 것입니다
type View struct {
	IsOpen              bool         `json:"isOpen"`
	Current             *Modal       `json:"current"`
	ContentType         *ContentType `json:"contentType"`
	EntityID            string       `json:"entityId"`
	EntityLabel         string       `json:"entityLabel"`
	CloseOnClickOutside bool         `json:"closeOnClickOutside"`
	Depth               int          `json:"depth"`
}

func (s *Stack) View() View {
	top, ok := s.top()
	if !ok {
		return View{CloseOnClickOutside: true}
	}
	contentType := top.ContentType
	return View{
		IsOpen:              true,
		Current:             &top,
		ContentType:         &contentType,
		EntityID:            top.EntityID,
		EntityLabel:         top.EntityLabel,
		CloseOnClickOutside: top.CloseOnClickOutside,
		Depth:               len(s.Modals),
	}
}

func (s *Stack) clone() *Stack {
	c := &Stack{
		Modals: append([]Modal{}, s.Modals...),
		States: make(map[string]json.RawMessage, len(s.States)),
	}
	for k, v := range s.States {
		c.States[k] = append(json.RawMessage(nil), v...)
	}
	return c
}
