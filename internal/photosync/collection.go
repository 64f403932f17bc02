// Package photosync keeps the client's photo collection and dashboard stats
// in sync with the backend.
package photosync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"photodeck/internal/api"
	"photodeck/internal/model"
	"photodeck/internal/session"
)

// Collection holds the photo list and aggregate stats. Both are replaced
// wholesale by each successful refresh; a failed refresh leaves the prior
// state untouched.
type Collection struct {
	client *api.Client
	auth   *session.Store
	logger *zap.Logger

	// Per-resource monotonic sequence numbers. A response only lands if it
	// belongs to the most recently initiated request for that resource.
	photoSeq atomic.Uint64
	statsSeq atomic.Uint64

	mu      sync.RWMutex
	photos  []model.Photo
	stats   model.Stats
	lastErr error
}

// NewCollection creates a Collection and subscribes it to session events:
// authentication triggers an initial refresh of both resources,
// deauthentication clears the held state.
func NewCollection(client *api.Client, auth *session.Store, logger *zap.Logger) *Collection {
	c := &Collection{client: client, auth: auth, logger: logger}
	auth.Subscribe(func(ev session.Event) {
		switch ev {
		case session.EventAuthenticated:
			c.RefreshAll(context.Background())
		case session.EventDeauthenticated:
			c.clear()
		}
	})
	return c
}

// RefreshAll refreshes photos and stats concurrently. The two fetches write
// disjoint state, so no ordering between them is needed.
func (c *Collection) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.RefreshPhotos(ctx)
	}()
	go func() {
		defer wg.Done()
		c.RefreshStats(ctx)
	}()
	wg.Wait()
}

// RefreshPhotos re-fetches the full photo collection. Without a token it is a
// no-op leaving the (empty) state as is.
func (c *Collection) RefreshPhotos(ctx context.Context) error {
	if !c.auth.Authenticated() {
		return nil
	}
	epoch := c.auth.Epoch()
	seq := c.photoSeq.Add(1)

	photos, err := c.client.ListPhotos(ctx)
	if err != nil {
		return c.refreshFailed("photos", epoch, err)
	}

	if c.storePhotos(seq, epoch, photos) {
		c.logger.Debug("Photo collection refreshed", zap.Int("count", len(photos)))
	}
	return nil
}

// RefreshStats re-fetches the dashboard aggregates. Without a token it is a
// no-op.
func (c *Collection) RefreshStats(ctx context.Context) error {
	if !c.auth.Authenticated() {
		return nil
	}
	epoch := c.auth.Epoch()
	seq := c.statsSeq.Add(1)

	stats, err := c.client.Stats(ctx)
	if err != nil {
		return c.refreshFailed("stats", epoch, err)
	}

	if c.storeStats(seq, epoch, stats) {
		c.logger.Debug("Stats refreshed", zap.Int("photoCount", stats.PhotoCount))
	}
	return nil
}

// storePhotos applies a photos response. It is dropped when a newer request
// has started since, or when the session it belongs to is gone.
func (c *Collection) storePhotos(seq, epoch uint64, photos []model.Photo) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.photoSeq.Load() || epoch != c.auth.Epoch() {
		c.logger.Debug("Discarding stale photos response", zap.Uint64("seq", seq))
		return false
	}
	c.photos = photos
	c.lastErr = nil
	return true
}

func (c *Collection) storeStats(seq, epoch uint64, stats model.Stats) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.statsSeq.Load() || epoch != c.auth.Epoch() {
		c.logger.Debug("Discarding stale stats response", zap.Uint64("seq", seq))
		return false
	}
	c.stats = stats
	c.lastErr = nil
	return true
}

func (c *Collection) refreshFailed(resource string, epoch uint64, err error) error {
	c.logger.Warn("Refresh failed", zap.String("resource", resource), zap.Error(err))

	if errors.Is(err, api.ErrUnauthorized) {
		// Only invalidate the session the request was issued under.
		if epoch == c.auth.Epoch() {
			c.auth.Invalidate()
		}
		return err
	}

	c.mu.Lock()
	if epoch == c.auth.Epoch() {
		c.lastErr = err
	}
	c.mu.Unlock()
	return err
}

func (c *Collection) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.photos = nil
	c.stats = model.Stats{}
	c.lastErr = nil
}

// Photos returns a copy of the held collection.
func (c *Collection) Photos() []model.Photo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Photo, len(c.photos))
	copy(out, c.photos)
	return out
}

// Stats returns the held aggregate snapshot.
func (c *Collection) Stats() model.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Err returns the error of the most recent failed refresh, cleared by the
// next successful one.
func (c *Collection) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}
