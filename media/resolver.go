// Package media picks the photo for a draft. It never fails: any search
// problem ends in a fixed placeholder image.
package media

import (
	"context"

	"github.com/NataTusia/Haah-and-Cash/logger"
	"github.com/NataTusia/Haah-and-Cash/models"
)

// Searcher is the external photo search service.
type Searcher interface {
	Search(ctx context.Context, keywords string) (string, error)
}

// Used when Options leaves a placeholder empty.
const (
	DefaultPlaceholderURL       = "https://images.unsplash.com/photo-1518546305927-5a555bb7020d?q=80&w=1000&auto=format&fit=crop"
	DefaultScriptPlaceholderURL = "https://images.unsplash.com/photo-1611162617474-5b21e879e113?q=80&w=1000&auto=format&fit=crop"
)

type Options struct {
	FallbackKeyword      string
	PlaceholderURL       string
	ScriptPlaceholderURL string
}

type Resolver struct {
	searcher Searcher
	opts     Options
}

func NewResolver(searcher Searcher, opts Options) *Resolver {
	if opts.PlaceholderURL == "" {
		opts.PlaceholderURL = DefaultPlaceholderURL
	}
	if opts.ScriptPlaceholderURL == "" {
		opts.ScriptPlaceholderURL = DefaultScriptPlaceholderURL
	}
	return &Resolver{searcher: searcher, opts: opts}
}

// ResolvePhoto searches keywords, then the fallback keyword, then returns the placeholder.
func (r *Resolver) ResolvePhoto(ctx context.Context, keywords string) string {
	queries := []string{keywords}
	if r.opts.FallbackKeyword != "" && r.opts.FallbackKeyword != keywords {
		queries = append(queries, r.opts.FallbackKeyword)
	}

	for i, q := range queries {
		if q == "" {
			continue
		}
		u, err := r.searcher.Search(ctx, q)
		if err == nil && u != "" {
			return u
		}
		fields := logger.Fields{"keywords": q, "attempt": i + 1}
		if err != nil {
			fields["error"] = err.Error()
		}
		logger.WarnWithFields("photo search failed", fields)
	}
	return r.opts.PlaceholderURL
}

// ForKind returns a searched photo for formats that need one and the fixed
// script placeholder for the rest, without searching.
func (r *Resolver) ForKind(ctx context.Context, kind models.Kind, keywords string) string {
	if !kind.NeedsPhotoSearch() {
		return r.opts.ScriptPlaceholderURL
	}
	return r.ResolvePhoto(ctx, keywords)
}
