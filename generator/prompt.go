package generator

import (
	"fmt"
	"strings"

	"github.com/NataTusia/Haah-and-Cash/models"
)

const (
	// CaptionCeiling keeps caption + header under the transport caption limit.
	CaptionCeiling = 850
	// ScriptCeiling applies to long-form scripts, sent as standalone text messages.
	ScriptCeiling = 2000
)

// Ceiling returns the hard length limit for a (kind, variant) pair.
func Ceiling(kind models.Kind, variant models.Variant) int {
	if kind == models.MultiSlide && variant == models.LongFormScript {
		return ScriptCeiling
	}
	return CaptionCeiling
}

const (
	greetingDirective   = "Open the post with a short friendly greeting to the readers."
	noGreetingDirective = "MANDATORY: do NOT open with any greeting or salutation. Start directly with the substance of the topic."
)

// BuildPrompt assembles the instruction for one artifact of a draft.
func BuildPrompt(brand, language string, channel models.Channel, spec models.DraftSpec, variant models.Variant) Prompt {
	var role string
	var reqs []string

	if channel.IsPrimary() {
		role = fmt.Sprintf("You are an experienced crypto investor and the mentor of the channel '%s'. You explain complex things simply.", brand)
		reqs = append(reqs, "Style: educational, friendly. Use analogies. Add 1-2 emoji. No complex formatting.")
		if channel == models.PrimaryMorning {
			reqs = append(reqs, greetingDirective)
		} else {
			reqs = append(reqs, noGreetingDirective)
		}
	} else {
		role = fmt.Sprintf("You are the SMM manager of the popular crypto blog '%s'.", brand)
		switch {
		case spec.Kind == models.MultiSlide && variant == models.LongFormScript:
			reqs = append(reqs,
				"Write the carousel script slide by slide: one block per slide, each with a headline and short on-slide text.",
				"Finish with a suggestion for the cover image.",
				"Style: expert, structured.")
		case spec.Kind == models.MultiSlide:
			reqs = append(reqs, "Write the post description that accompanies a carousel. Style: expert, structured.")
		case spec.Kind == models.ShortFormVideo:
			reqs = append(reqs, "Write a Reels script (briefly: on-screen text and description). Style: dynamic, viral.")
		default:
			reqs = append(reqs, "Write an Instagram post. Style: engaging.")
		}
		if variant == models.Caption {
			reqs = append(reqs,
				"Do not repeat the slide or on-screen text verbatim.",
				"End with a call to action followed by 3-5 relevant hashtags.")
		}
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Write in the language: %s.\n", language)
	fmt.Fprintf(&user, "Topic: %s.\n", spec.Topic)
	fmt.Fprintf(&user, "Context: %s.\n", spec.Context)
	fmt.Fprintf(&user, "Requirements: %s\n", strings.Join(reqs, " "))
	fmt.Fprintf(&user, "IMPORTANT: maximum %d characters.", Ceiling(spec.Kind, variant))

	return Prompt{System: role, User: user.String()}
}
