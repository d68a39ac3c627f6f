// Package generator turns catalogue rows into caption and script text through
// an external text generation service.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/NataTusia/Haah-and-Cash/logger"
	"github.com/NataTusia/Haah-and-Cash/models"
)

// ErrorPrefix starts every placeholder returned instead of generated text.
const ErrorPrefix = "ERROR_AI: "

var errQuotaExhausted = errors.New("daily generation quota exhausted")

// Recorder stores an audit entry for each generation call.
type Recorder interface {
	Record(ctx context.Context, entry models.GenerationLog) error
}

type Options struct {
	Provider       string
	BrandName      string
	TargetLanguage string
	Quota          *QuotaLimiter
	Recorder       Recorder
}

// Policy decides prompt shape and length limit per draft and calls the generator.
type Policy struct {
	llm      TextGenerator
	provider string
	brand    string
	language string
	quota    *QuotaLimiter
	recorder Recorder
}

func NewPolicy(llm TextGenerator, opts Options) *Policy {
	return &Policy{
		llm:      llm,
		provider: opts.Provider,
		brand:    opts.BrandName,
		language: opts.TargetLanguage,
		quota:    opts.Quota,
		recorder: opts.Recorder,
	}
}

// Compose returns sanitized text for one artifact of the draft at key, never longer than
// Ceiling(spec.Kind, variant). Failures come back as an ErrorPrefix placeholder, never as an error.
func (p *Policy) Compose(ctx context.Context, key models.DraftKey, spec models.DraftSpec, variant models.Variant) string {
	prompt := BuildPrompt(p.brand, p.language, key.Channel, spec, variant)
	ceiling := Ceiling(spec.Kind, variant)

	raw, err := p.generate(ctx, key, variant, prompt)
	if err != nil {
		logger.ErrorWithFields("text generation failed", logger.Fields{
			"draft_key": key.String(),
			"variant":   variant.String(),
			"error":     err.Error(),
		})
		return Clip(ErrorPrefix+err.Error(), ceiling)
	}
	return Clip(Sanitize(raw), ceiling)
}

func (p *Policy) generate(ctx context.Context, key models.DraftKey, variant models.Variant, prompt Prompt) (string, error) {
	if p.quota != nil {
		ok, err := p.quota.WaitAndReserve(ctx)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errQuotaExhausted
		}
	}

	requestedAt := time.Now()
	raw, err := p.llm.Generate(ctx, prompt)
	completedAt := time.Now()

	logger.InfoWithFields("text generation call", logger.Fields{
		"draft_key": key.String(),
		"variant":   variant.String(),
		"model":     p.llm.Model(),
		"duration":  completedAt.Sub(requestedAt).String(),
		"success":   err == nil,
	})
	p.record(ctx, key, variant, prompt, raw, err, requestedAt, completedAt)

	if err != nil {
		return "", err
	}
	return raw, nil
}

func (p *Policy) record(ctx context.Context, key models.DraftKey, variant models.Variant, prompt Prompt, raw string, genErr error, requestedAt, completedAt time.Time) {
	if p.recorder == nil {
		return
	}
	entry := models.GenerationLog{
		RequestID:      uuid.NewString(),
		Provider:       p.provider,
		ModelName:      p.llm.Model(),
		DraftKey:       key.String(),
		Variant:        variant.String(),
		DurationMs:     completedAt.Sub(requestedAt).Milliseconds(),
		InputPrompt:    fmt.Sprintf("%s\n\n%s", prompt.System, prompt.User),
		OutputResponse: raw,
		RequestedAt:    requestedAt,
		CompletedAt:    completedAt,
	}
	if genErr != nil {
		msg := genErr.Error()
		entry.ErrorMessage = &msg
	}
	if err := p.recorder.Record(ctx, entry); err != nil {
		logger.Log.Warnf("failed to record generation log: %v", err)
	}
}
