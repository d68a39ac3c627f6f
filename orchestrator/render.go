package orchestrator

import (
	"fmt"
	"strings"

	"github.com/NataTusia/Haah-and-Cash/logger"
	"github.com/NataTusia/Haah-and-Cash/models"
	"github.com/NataTusia/Haah-and-Cash/token"
)

const (
	// Photo captions are limited to 1024 characters by the transport.
	captionMax  = 1020
	captionKeep = 1015
	// Text messages are limited to 4096 characters.
	textMax  = 4000
	textKeep = 3995

	postedMarker = "✅ POSTED"
	headerSep    = "\n\n"
)

// header is the first display line, stripped before publishing.
func header(key models.DraftKey, kind models.Kind, variant models.Variant) string {
	switch {
	case key.Channel.IsPrimary():
		return fmt.Sprintf("✈️ TG (%s | Day %d)", strings.ToUpper(key.Channel.Slot()), key.Day)
	case variant == models.LongFormScript:
		return fmt.Sprintf("📝 INSTA %s SCRIPT (Day %d)", strings.ToUpper(kind.String()), key.Day)
	case kind.NeedsPhotoSearch():
		return fmt.Sprintf("📸 INSTA SINGLE (Day %d)", key.Day)
	default:
		return fmt.Sprintf("📹 INSTA %s (NO PHOTO SEARCH) (Day %d)", strings.ToUpper(kind.String()), key.Day)
	}
}

// actionsFor is the ordered action set of a display.
func actionsFor(key models.DraftKey, kind models.Kind, variant models.Variant) []models.Action {
	text := models.Action{Verb: models.RegenerateText, Key: key, Variant: variant}
	if variant == models.LongFormScript {
		return []models.Action{text}
	}
	photo := models.Action{Verb: models.RegeneratePhoto, Key: key, Variant: models.Caption}
	if key.Channel.IsPrimary() {
		return []models.Action{
			{Verb: models.Publish, Key: key, Variant: models.Caption},
			photo,
			text,
		}
	}
	if kind.NeedsPhotoSearch() {
		return []models.Action{text, photo}
	}
	return []models.Action{text}
}

func offers(d models.RenderedDraft, a models.Action) bool {
	for _, x := range d.Actions {
		if x == a {
			return true
		}
	}
	return false
}

func label(a models.Action) string {
	switch {
	case a.Verb == models.Publish:
		return "✅ Publish"
	case a.Verb == models.RegeneratePhoto:
		return "🖼 New photo"
	case a.Variant == models.LongFormScript:
		return "📝 New script"
	default:
		return "📝 New text"
	}
}

// truncate cuts display text to the transport limit, keeping a "..." suffix.
func truncate(s string, hasMedia bool) string {
	max, keep := textMax, textKeep
	if hasMedia {
		max, keep = captionMax, captionKeep
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:keep]) + "..."
}

func joinHeader(h, body string) string {
	if h == "" {
		return body
	}
	return h + headerSep + body
}

// splitHeader separates the header line block from the body at the first blank line.
func splitHeader(s string) (string, string) {
	if i := strings.Index(s, headerSep); i >= 0 {
		return s[:i], s[i+len(headerSep):]
	}
	return "", s
}

// view projects a draft record onto its display.
func view(d models.RenderedDraft) View {
	if d.State == models.Posted {
		return View{Text: truncate(joinHeader(postedMarker, d.Text), !d.Media.IsZero()), Media: d.Media}
	}

	v := View{
		Text:  truncate(joinHeader(d.Header, d.Text), !d.Media.IsZero()),
		Media: d.Media,
	}
	for _, a := range d.Actions {
		tok, err := token.Encode(a)
		if err != nil {
			logger.Log.Errorf("skip button for %+v: %v", a, err)
			continue
		}
		v.Buttons = append(v.Buttons, models.Button{Label: label(a), Token: tok})
	}
	return v
}
