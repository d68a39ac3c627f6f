package models

import "time"

// DraftState is the lifecycle position of one (DraftKey, Variant) pair.
type DraftState int

const (
	Unrendered DraftState = iota
	Rendered
	Posted
)

func (s DraftState) String() string {
	switch s {
	case Rendered:
		return "rendered"
	case Posted:
		return "posted"
	default:
		return "unrendered"
	}
}

// MessageRef points at a display on the transport.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// MediaRef is a photo either by public URL or by a transport file id.
// FileID wins when both are set.
type MediaRef struct {
	URL    string
	FileID string
}

func (m MediaRef) IsZero() bool {
	return m.URL == "" && m.FileID == ""
}

// Button is one action affordance on a display.
type Button struct {
	Label string
	Token string
}

// RenderedDraft is the presentable unit shown to the operator.
type RenderedDraft struct {
	ID      string
	Key     DraftKey
	Variant Variant
	Kind    Kind
	Header  string
	Text    string
	Media   MediaRef
	Actions []Action
	State   DraftState
	Ref     MessageRef

	RenderedAt time.Time
	PostedAt   time.Time
}
