// Package orchestrator runs the draft lifecycle: it builds drafts from the
// catalogue, shows them to the operator, regenerates single parts on request
// and publishes a draft at most once.
//
// Each (DraftKey, Variant) pair has one record, Unrendered until first shown,
// then Rendered, then Posted. The operator display is a projection of that record.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NataTusia/Haah-and-Cash/logger"
	"github.com/NataTusia/Haah-and-Cash/models"
	"github.com/NataTusia/Haah-and-Cash/token"
)

var (
	ErrDraftPosted      = errors.New("draft is already posted")
	ErrUnknownDraft     = errors.New("unknown draft")
	ErrStaleDisplay     = errors.New("display was replaced by a newer draft")
	ErrActionNotOffered = errors.New("action is not offered on this draft")
	ErrNothingScheduled = errors.New("nothing scheduled")
)

type liveKey struct {
	Key     models.DraftKey
	Variant models.Variant
}

type Options struct {
	// Location decides "today" for drafts requested without a day.
	Location *time.Location
	// ErrorSignature is appended to error notices.
	ErrorSignature string
	Now            func() time.Time
}

type Orchestrator struct {
	catalogue Catalogue
	composer  Composer
	photos    PhotoResolver
	display   Display
	publisher Publisher

	loc       *time.Location
	signature string
	now       func() time.Time

	mu       sync.Mutex
	drafts   map[liveKey]models.RenderedDraft
	keyLocks map[models.DraftKey]*sync.Mutex
}

func New(catalogue Catalogue, composer Composer, photos PhotoResolver, display Display, publisher Publisher, opts Options) *Orchestrator {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		catalogue: catalogue,
		composer:  composer,
		photos:    photos,
		display:   display,
		publisher: publisher,
		loc:       loc,
		signature: opts.ErrorSignature,
		now:       now,
		drafts:    make(map[liveKey]models.RenderedDraft),
		keyLocks:  make(map[models.DraftKey]*sync.Mutex),
	}
}

// Today is the day of month in the orchestrator's location.
func (o *Orchestrator) Today() int {
	return o.now().In(o.loc).Day()
}

// Generate builds and shows the drafts for channel on day (0 means today).
// Every failure is reported to the operator; the returned error is for logging only.
func (o *Orchestrator) Generate(ctx context.Context, channel models.Channel, day int, trigger Trigger) error {
	if day == 0 {
		day = o.Today()
	}
	key := models.DraftKey{Day: day, Channel: channel}
	if !key.Valid() {
		return o.fail(ctx, channel.Slot(), fmt.Errorf("invalid draft key %s", key))
	}

	unlock := o.lock(key)
	defer unlock()

	spec, err := o.catalogue.Resolve(ctx, key)
	if err != nil {
		return o.fail(ctx, channel.Slot(), err)
	}
	if spec == nil {
		logger.InfoWithFields("nothing scheduled", logger.Fields{"draft_key": key.String(), "operator": trigger == Operator})
		if trigger == Operator {
			o.notify(ctx, fmt.Sprintf("ℹ️ Nothing scheduled for %s (day %d).", channel.Slot(), day))
		}
		return nil
	}

	for _, variant := range spec.Kind.Variants() {
		d := o.build(ctx, key, *spec, variant)
		if err := o.show(ctx, d); err != nil {
			return o.fail(ctx, channel.Slot(), err)
		}
	}
	return nil
}

func (o *Orchestrator) build(ctx context.Context, key models.DraftKey, spec models.DraftSpec, variant models.Variant) models.RenderedDraft {
	d := models.RenderedDraft{
		ID:      uuid.NewString(),
		Key:     key,
		Variant: variant,
		Kind:    spec.Kind,
		Header:  header(key, spec.Kind, variant),
		Actions: actionsFor(key, spec.Kind, variant),
	}
	if variant == models.Caption {
		d.Media = models.MediaRef{URL: o.photos.ForKind(ctx, spec.Kind, spec.MediaHint)}
	}
	d.Text = o.composer.Compose(ctx, key, spec, variant)
	return d
}

// show displays d, editing the live display of the same pair in place when there is one.
func (o *Orchestrator) show(ctx context.Context, d models.RenderedDraft) error {
	v := view(d)

	prev, ok := o.get(liveKey{d.Key, d.Variant})
	replaced := false
	if ok && prev.State == models.Rendered && prev.Media.IsZero() == d.Media.IsZero() {
		var err error
		if v.HasMedia() {
			err = o.display.ReplaceMedia(ctx, prev.Ref, v)
		} else {
			err = o.display.ReplaceText(ctx, prev.Ref, v)
		}
		if err == nil {
			d.Ref = prev.Ref
			replaced = true
		} else {
			logger.WarnWithFields("in-place render failed, sending a new display", logger.Fields{
				"draft_key": d.Key.String(),
				"variant":   d.Variant.String(),
				"error":     err.Error(),
			})
		}
	}
	if !replaced {
		ref, err := o.display.Send(ctx, v)
		if err != nil {
			return fmt.Errorf("send draft display: %w", err)
		}
		d.Ref = ref
	}

	d.State = models.Rendered
	d.RenderedAt = o.now()
	o.put(d)

	logger.InfoWithFields("draft rendered", logger.Fields{
		"draft_key": d.Key.String(),
		"variant":   d.Variant.String(),
		"kind":      d.Kind.String(),
		"message":   d.Ref.MessageID,
		"replaced":  replaced,
	})
	return nil
}

// HandleAction processes one operator action. Every failure is reported to the
// operator; the returned error is for logging only.
func (o *Orchestrator) HandleAction(ctx context.Context, in Inbound) error {
	a, err := token.Decode(in.Token)
	if err != nil {
		logger.WarnWithFields("ignoring malformed action token", logger.Fields{"token": in.Token, "error": err.Error()})
		return err
	}

	unlock := o.lock(a.Key)
	defer unlock()

	d, err := o.live(ctx, a, in)
	if err != nil {
		return o.fail(ctx, a.Verb.String(), err)
	}
	if d.State == models.Posted {
		return o.fail(ctx, a.Verb.String(), ErrDraftPosted)
	}
	if !offers(d, a) {
		return o.fail(ctx, a.Verb.String(), ErrActionNotOffered)
	}

	switch a.Verb {
	case models.RegeneratePhoto:
		err = o.regeneratePhoto(ctx, d)
	case models.RegenerateText:
		err = o.regenerateText(ctx, d)
	case models.Publish:
		err = o.publish(ctx, d, in)
	}
	if err != nil {
		return o.fail(ctx, a.Verb.String(), err)
	}
	return nil
}

// live returns the record an action targets. Records lost on restart are
// rebuilt from the display the action came from.
func (o *Orchestrator) live(ctx context.Context, a models.Action, in Inbound) (models.RenderedDraft, error) {
	if d, ok := o.get(liveKey{a.Key, a.Variant}); ok {
		if in.Ref != (models.MessageRef{}) && in.Ref != d.Ref {
			return models.RenderedDraft{}, ErrStaleDisplay
		}
		return d, nil
	}
	return o.adopt(ctx, a, in)
}

func (o *Orchestrator) adopt(ctx context.Context, a models.Action, in Inbound) (models.RenderedDraft, error) {
	if in.Ref == (models.MessageRef{}) {
		return models.RenderedDraft{}, ErrUnknownDraft
	}
	d := models.RenderedDraft{
		ID:         uuid.NewString(),
		Key:        a.Key,
		Variant:    a.Variant,
		Media:      in.Media,
		Ref:        in.Ref,
		RenderedAt: o.now(),
	}

	if strings.HasPrefix(in.Text, postedMarker) {
		_, d.Text = splitHeader(in.Text)
		d.State = models.Posted
		o.put(d)
		return d, nil
	}

	d.Kind = models.StandardPost
	if !a.Key.Channel.IsPrimary() {
		spec, err := o.resolve(ctx, a.Key)
		if err != nil {
			return models.RenderedDraft{}, err
		}
		d.Kind = spec.Kind
	}
	d.Header, d.Text = splitHeader(in.Text)
	d.Actions = actionsFor(a.Key, d.Kind, a.Variant)
	d.State = models.Rendered
	o.put(d)

	logger.InfoWithFields("adopted draft from display", logger.Fields{
		"draft_key": a.Key.String(),
		"variant":   a.Variant.String(),
		"message":   in.Ref.MessageID,
	})
	return d, nil
}

func (o *Orchestrator) resolve(ctx context.Context, key models.DraftKey) (models.DraftSpec, error) {
	spec, err := o.catalogue.Resolve(ctx, key)
	if err != nil {
		return models.DraftSpec{}, err
	}
	if spec == nil {
		return models.DraftSpec{}, ErrNothingScheduled
	}
	return *spec, nil
}

// regeneratePhoto replaces only the photo; text and buttons stay as displayed.
func (o *Orchestrator) regeneratePhoto(ctx context.Context, d models.RenderedDraft) error {
	spec, err := o.resolve(ctx, d.Key)
	if err != nil {
		return err
	}

	d.Media = models.MediaRef{URL: o.photos.ForKind(ctx, spec.Kind, spec.MediaHint)}
	if err := o.display.ReplaceMedia(ctx, d.Ref, view(d)); err != nil {
		return fmt.Errorf("replace photo: %w", err)
	}
	d.RenderedAt = o.now()
	o.put(d)
	return nil
}

// regenerateText replaces only the text of the variant; photo and buttons stay.
func (o *Orchestrator) regenerateText(ctx context.Context, d models.RenderedDraft) error {
	spec, err := o.resolve(ctx, d.Key)
	if err != nil {
		return err
	}

	d.Text = o.composer.Compose(ctx, d.Key, spec, d.Variant)
	if err := o.display.ReplaceText(ctx, d.Ref, view(d)); err != nil {
		return fmt.Errorf("replace text: %w", err)
	}
	d.RenderedAt = o.now()
	o.put(d)
	return nil
}

// publish forwards exactly what the display shows, minus the header, then marks
// the display as posted. The record turns Posted before the forward so a second
// publish cannot post again. If the forward fails the record is restored.
func (o *Orchestrator) publish(ctx context.Context, d models.RenderedDraft, in Inbound) error {
	_, caption := splitHeader(view(d).Text)
	media := d.Media
	if in.Media.FileID != "" {
		media = in.Media
	}

	posted := d
	posted.State = models.Posted
	posted.Text = caption
	posted.Actions = nil
	posted.PostedAt = o.now()
	o.put(posted)

	if err := o.publisher.Publish(ctx, caption, media); err != nil {
		o.put(d)
		return fmt.Errorf("publish to channel: %w", err)
	}
	logger.InfoWithFields("draft published", logger.Fields{
		"draft_key": d.Key.String(),
		"message":   d.Ref.MessageID,
	})

	// Content is public from here on; a failed edit leaves it posted but unmarked.
	if err := o.display.ReplaceText(ctx, d.Ref, view(posted)); err != nil {
		return fmt.Errorf("mark display as posted: %w", err)
	}
	return nil
}

// Drafts returns a snapshot of every known draft record ordered by day, channel and variant.
func (o *Orchestrator) Drafts() []models.RenderedDraft {
	o.mu.Lock()
	out := make([]models.RenderedDraft, 0, len(o.drafts))
	for _, d := range o.drafts {
		out = append(out, d)
	}
	o.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Key.Day != b.Key.Day {
			return a.Key.Day < b.Key.Day
		}
		if a.Key.Channel != b.Key.Channel {
			return a.Key.Channel < b.Key.Channel
		}
		return a.Variant < b.Variant
	})
	return out
}

// State reports the lifecycle state of a (key, variant) pair.
func (o *Orchestrator) State(key models.DraftKey, variant models.Variant) models.DraftState {
	if d, ok := o.get(liveKey{key, variant}); ok {
		return d.State
	}
	return models.Unrendered
}

func (o *Orchestrator) fail(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, ErrDraftPosted):
		o.notify(ctx, "ℹ️ This draft is already posted; it can no longer be changed.")
	case errors.Is(err, ErrStaleDisplay):
		o.notify(ctx, "ℹ️ This draft was replaced by a newer one; use the latest message.")
	case errors.Is(err, ErrNothingScheduled):
		o.notify(ctx, "ℹ️ The catalogue no longer has an entry for this draft.")
	default:
		logger.ErrorWithFields("draft operation failed", logger.Fields{"operation": op, "error": err.Error()})
		msg := fmt.Sprintf("🆘 Error (%s): %v", op, err)
		if o.signature != "" {
			msg += headerSep + o.signature
		}
		o.notify(ctx, msg)
	}
	return err
}

func (o *Orchestrator) notify(ctx context.Context, text string) {
	if err := o.display.Notify(ctx, text); err != nil {
		logger.ErrorWithFields("failed to notify operator", logger.Fields{"error": err.Error(), "notice": text})
	}
}

func (o *Orchestrator) lock(key models.DraftKey) func() {
	o.mu.Lock()
	l, ok := o.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		o.keyLocks[key] = l
	}
	o.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (o *Orchestrator) get(k liveKey) (models.RenderedDraft, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	d, ok := o.drafts[k]
	return d, ok
}

func (o *Orchestrator) put(d models.RenderedDraft) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.drafts[liveKey{d.Key, d.Variant}] = d
}
