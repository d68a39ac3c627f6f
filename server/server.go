// Package server exposes the liveness endpoints the hosting platform polls.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NataTusia/Haah-and-Cash/logger"
	"github.com/NataTusia/Haah-and-Cash/models"
)

// Pinger checks a backing store.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// DraftLister returns the drafts known to the running bot.
type DraftLister interface {
	Drafts() []models.RenderedDraft
}

type draftSummary struct {
	Key        string     `json:"key"`
	Variant    string     `json:"variant"`
	Kind       string     `json:"kind"`
	State      string     `json:"state"`
	MessageID  int        `json:"message_id"`
	RenderedAt time.Time  `json:"rendered_at"`
	PostedAt   *time.Time `json:"posted_at,omitempty"`
}

func New(catalogue Pinger, drafts DraftLister) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Bot Running")
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := catalogue.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "catalogue": "down", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/drafts", func(c *gin.Context) {
		list := drafts.Drafts()
		out := make([]draftSummary, 0, len(list))
		for _, d := range list {
			out = append(out, draftSummary{
				Key:        d.Key.String(),
				Variant:    d.Variant.String(),
				Kind:       d.Kind.String(),
				State:      d.State.String(),
				MessageID:  d.Ref.MessageID,
				RenderedAt: d.RenderedAt,
			})
			if !d.PostedAt.IsZero() {
				at := d.PostedAt
				out[len(out)-1].PostedAt = &at
			}
		}
		c.JSON(http.StatusOK, gin.H{"drafts": out})
	})

	return r
}

// Run serves h on port until ctx is cancelled.
func Run(ctx context.Context, h http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoWithFields("health server listening", logger.Fields{"port": port})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
