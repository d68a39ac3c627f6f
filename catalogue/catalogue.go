// Package catalogue resolves draft keys into the topic/context/media-hint rows
// stored in the content catalogue.
package catalogue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/NataTusia/Haah-and-Cash/logger"
	"github.com/NataTusia/Haah-and-Cash/models"
	"github.com/NataTusia/Haah-and-Cash/retry"
)

// ErrUnavailable means no connection could be acquired within the retry policy.
var ErrUnavailable = errors.New("catalogue unavailable")

// Catalogue looks up the row for a draft key. A nil spec with a nil error means nothing is scheduled.
type Catalogue interface {
	Resolve(ctx context.Context, key models.DraftKey) (*models.DraftSpec, error)
}

const (
	primaryQuery = `SELECT topic, content, COALESCE(photo_keywords, '')
FROM telegram_posts
WHERE day_number = $1 AND time_slot = $2
LIMIT 1`

	// Rows without a post type are single posts and are never excluded.
	secondaryQuery = `SELECT topic, content, COALESCE(post_type, ''), COALESCE(photo_keywords, '')
FROM instagram_posts
WHERE day_number = $1 AND COALESCE(post_type, '') <> ALL($2)
LIMIT 1`
)

// PostgresCatalogue reads the telegram_posts and instagram_posts tables.
// A connection is taken from the pool per lookup and released when it ends.
type PostgresCatalogue struct {
	db       *sql.DB
	policy   retry.Policy
	excluded []string
}

func NewPostgresCatalogue(db *sql.DB, policy retry.Policy, excludedPostTypes []string) *PostgresCatalogue {
	excluded := excludedPostTypes
	if excluded == nil {
		excluded = []string{}
	}
	return &PostgresCatalogue{db: db, policy: policy, excluded: excluded}
}

func (c *PostgresCatalogue) Resolve(ctx context.Context, key models.DraftKey) (*models.DraftSpec, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("catalogue: invalid key %s", key)
	}
	start := time.Now()

	conn, err := retry.Do(ctx, c.policy, func() (*sql.Conn, error) {
		conn, err := c.db.Conn(ctx)
		if err != nil {
			return nil, err
		}
		if err := conn.PingContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		return conn, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer conn.Close()

	var spec models.DraftSpec
	if key.Channel.IsPrimary() {
		spec.Kind = models.StandardPost
		err = conn.QueryRowContext(ctx, primaryQuery, key.Day, key.Channel.Slot()).
			Scan(&spec.Topic, &spec.Context, &spec.MediaHint)
	} else {
		var postType string
		err = conn.QueryRowContext(ctx, secondaryQuery, key.Day, pq.Array(c.excluded)).
			Scan(&spec.Topic, &spec.Context, &postType, &spec.MediaHint)
		spec.Kind = models.ParseKind(postType)
	}

	if errors.Is(err, sql.ErrNoRows) {
		logger.InfoWithFields("catalogue row not found", logger.Fields{
			"draft_key": key.String(),
			"duration":  time.Since(start).String(),
		})
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalogue query for %s: %w", key, err)
	}

	logger.DebugWithFields("catalogue row resolved", logger.Fields{
		"draft_key": key.String(),
		"kind":      spec.Kind.String(),
		"duration":  time.Since(start).String(),
	})
	return &spec, nil
}
