package orchestrator

import (
	"context"

	"github.com/NataTusia/Haah-and-Cash/models"
)

// Catalogue resolves the catalogue row for a key; (nil, nil) means nothing is scheduled.
type Catalogue interface {
	Resolve(ctx context.Context, key models.DraftKey) (*models.DraftSpec, error)
}

// Composer produces draft text. It never fails; failures come back as placeholder text.
type Composer interface {
	Compose(ctx context.Context, key models.DraftKey, spec models.DraftSpec, variant models.Variant) string
}

// PhotoResolver picks photos. It never fails.
type PhotoResolver interface {
	ForKind(ctx context.Context, kind models.Kind, keywords string) string
}

// View is what a display shows: text, optional photo and buttons.
type View struct {
	Text    string
	Media   models.MediaRef
	Buttons []models.Button
}

// HasMedia reports whether the view is a photo display (text goes into the caption).
func (v View) HasMedia() bool { return !v.Media.IsZero() }

// Display is the operator-facing side of the chat transport.
type Display interface {
	Send(ctx context.Context, v View) (models.MessageRef, error)
	// ReplaceMedia swaps the photo of a photo display, keeping caption and buttons from v.
	ReplaceMedia(ctx context.Context, ref models.MessageRef, v View) error
	// ReplaceText rewrites the caption or text of a display with buttons from v.
	ReplaceText(ctx context.Context, ref models.MessageRef, v View) error
	Notify(ctx context.Context, text string) error
}

// Publisher forwards approved content to the public destination.
type Publisher interface {
	Publish(ctx context.Context, caption string, media models.MediaRef) error
}

// Inbound is an operator action as received from the transport, together with
// the projection currently shown on the display it was pressed on.
type Inbound struct {
	Token string
	Ref   models.MessageRef
	Text  string
	Media models.MediaRef
}

// Trigger tells who asked for a draft.
type Trigger int

const (
	Scheduled Trigger = iota
	Operator
)
