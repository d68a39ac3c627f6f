// Package token encodes operator actions into the compact strings carried on
// display buttons and decodes them back.
//
// Layout: {verb}_{day}_{slot}_{platform}[_{variant}]. Only text tokens carry a
// variant; photo and publish tokens always refer to the caption display.
// Tokens are visible to anyone who can see the display, so they hold identity only.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/NataTusia/Haah-and-Cash/models"
)

const sep = "_"

// MaxLen is the transport limit for button payloads.
const MaxLen = 64

var ErrMalformed = errors.New("malformed action token")

// Encode renders a valid action as a token.
func Encode(a models.Action) (string, error) {
	if !a.Key.Valid() {
		return "", fmt.Errorf("%w: invalid key %v", ErrMalformed, a.Key)
	}
	parts := []string{
		a.Verb.String(),
		strconv.Itoa(a.Key.Day),
		a.Key.Channel.Slot(),
		a.Key.Channel.Platform(),
	}
	switch a.Verb {
	case models.RegeneratePhoto, models.Publish:
		if a.Variant != models.Caption {
			return "", fmt.Errorf("%w: %s applies to the caption only", ErrMalformed, a.Verb)
		}
	case models.RegenerateText:
		if a.Variant.String() == "" {
			return "", fmt.Errorf("%w: text action without variant", ErrMalformed)
		}
		parts = append(parts, a.Variant.String())
	default:
		return "", fmt.Errorf("%w: unknown verb %d", ErrMalformed, a.Verb)
	}
	return strings.Join(parts, sep), nil
}

// Decode parses a token produced by Encode. Tokens whose arity does not match
// their verb prefix are rejected.
func Decode(tok string) (models.Action, error) {
	if tok == "" || len(tok) > MaxLen {
		return models.Action{}, ErrMalformed
	}
	parts := strings.Split(tok, sep)

	var a models.Action
	switch parts[0] {
	case "photo":
		a.Verb = models.RegeneratePhoto
	case "text":
		a.Verb = models.RegenerateText
	case "publish":
		a.Verb = models.Publish
	default:
		return models.Action{}, fmt.Errorf("%w: unknown prefix %q", ErrMalformed, parts[0])
	}

	want := 4
	if a.Verb == models.RegenerateText {
		want = 5
	}
	if len(parts) != want {
		return models.Action{}, fmt.Errorf("%w: %s token needs %d fields, got %d", ErrMalformed, a.Verb, want, len(parts))
	}

	day, err := strconv.Atoi(parts[1])
	if err != nil || strconv.Itoa(day) != parts[1] {
		return models.Action{}, fmt.Errorf("%w: bad day %q", ErrMalformed, parts[1])
	}
	ch, ok := models.ChannelFromSlot(parts[2], parts[3])
	if !ok {
		return models.Action{}, fmt.Errorf("%w: bad slot %q/%q", ErrMalformed, parts[2], parts[3])
	}
	a.Key = models.DraftKey{Day: day, Channel: ch}
	if !a.Key.Valid() {
		return models.Action{}, fmt.Errorf("%w: day %d out of range", ErrMalformed, day)
	}

	a.Variant = models.Caption
	if a.Verb == models.RegenerateText {
		v, ok := models.ParseVariant(parts[4])
		if !ok {
			return models.Action{}, fmt.Errorf("%w: bad variant %q", ErrMalformed, parts[4])
		}
		a.Variant = v
	}
	return a, nil
}
