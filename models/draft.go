package models

import (
	"fmt"
	"strings"
)

// Channel is the publication slot a draft is built for.
type Channel int

const (
	PrimaryMorning Channel = iota + 1
	PrimaryMidday
	PrimaryEvening
	Secondary
)

// Channels lists every draft channel in schedule order.
var Channels = []Channel{PrimaryMorning, PrimaryMidday, PrimaryEvening, Secondary}

// Slot is the catalogue/token name of the channel ("morning", "day", "evening", "inst").
func (c Channel) Slot() string {
	switch c {
	case PrimaryMorning:
		return "morning"
	case PrimaryMidday:
		return "day"
	case PrimaryEvening:
		return "evening"
	case Secondary:
		return "inst"
	default:
		return ""
	}
}

// Platform is "tg" for primary slots and "inst" for the secondary channel.
func (c Channel) Platform() string {
	switch c {
	case PrimaryMorning, PrimaryMidday, PrimaryEvening:
		return "tg"
	case Secondary:
		return "inst"
	default:
		return ""
	}
}

func (c Channel) IsPrimary() bool {
	return c == PrimaryMorning || c == PrimaryMidday || c == PrimaryEvening
}

func (c Channel) Valid() bool {
	return c >= PrimaryMorning && c <= Secondary
}

func (c Channel) String() string {
	if s := c.Slot(); s != "" {
		return s
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// ChannelFromSlot resolves a slot/platform pair; both must agree.
func ChannelFromSlot(slot, platform string) (Channel, bool) {
	for _, c := range Channels {
		if c.Slot() == slot && c.Platform() == platform {
			return c, true
		}
	}
	return 0, false
}

// DraftKey identifies the catalogue entry a draft is built from.
type DraftKey struct {
	Day     int
	Channel Channel
}

func (k DraftKey) Valid() bool {
	return k.Day >= 1 && k.Day <= 31 && k.Channel.Valid()
}

func (k DraftKey) String() string {
	return fmt.Sprintf("%s/day%d", k.Channel, k.Day)
}

// Kind is the content format of a catalogue row.
type Kind int

const (
	StandardPost Kind = iota + 1
	ShortFormVideo
	MultiSlide
)

// ParseKind maps the catalogue post_type tag. Unknown tags are treated as standard posts.
func ParseKind(tag string) Kind {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "reels", "video":
		return ShortFormVideo
	case "карусель", "carousel":
		return MultiSlide
	default:
		return StandardPost
	}
}

func (k Kind) String() string {
	switch k {
	case StandardPost:
		return "single"
	case ShortFormVideo:
		return "reels"
	case MultiSlide:
		return "carousel"
	default:
		return "unknown"
	}
}

// NeedsPhotoSearch is false for script-driven formats.
func (k Kind) NeedsPhotoSearch() bool {
	return k == StandardPost
}

// DraftSpec is the catalogue row resolved for a DraftKey. Never mutated.
type DraftSpec struct {
	Topic     string
	Context   string
	Kind      Kind
	MediaHint string
}

// Variant is which generated artifact of a draft is meant.
type Variant int

const (
	Caption Variant = iota + 1
	LongFormScript
)

func (v Variant) String() string {
	switch v {
	case Caption:
		return "caption"
	case LongFormScript:
		return "script"
	default:
		return ""
	}
}

func ParseVariant(s string) (Variant, bool) {
	switch s {
	case "caption":
		return Caption, true
	case "script":
		return LongFormScript, true
	default:
		return 0, false
	}
}

// Variants returns the artifacts produced for a kind.
func (k Kind) Variants() []Variant {
	if k == MultiSlide {
		return []Variant{Caption, LongFormScript}
	}
	return []Variant{Caption}
}
