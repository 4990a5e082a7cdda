package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/taskboardx/core/internal/infrastructure/logger"
	"github.com/taskboardx/core/internal/infrastructure/metrics"
	"github.com/taskboardx/core/internal/ports"
)

// Storage keys, shared with the web client's local storage layout.
const (
	ProjectsKey = "tbx:projects_v1"
	TasksKey    = "tbx:tasks_v1"
	ProfileKey  = "tbx:profile_v1"
)

// Collection loads and saves one whole collection as a single JSON blob.
// A missing key yields seed(), an undecodable blob yields fallback(); either
// default is written back before being returned.
type Collection[T any] struct {
	kv       ports.KeyValueStore
	key      string
	seed     func() T
	fallback func() T
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewCollection[T any](kv ports.KeyValueStore, key string, seed, fallback func() T, log *logger.Logger, m *metrics.Metrics) *Collection[T] {
	return &Collection[T]{
		kv:       kv,
		key:      key,
		seed:     seed,
		fallback: fallback,
		logger:   log.WithFields("key", key),
		metrics:  m,
	}
}

// Load never fails on content. Only backend errors are returned.
func (c *Collection[T]) Load(ctx context.Context) (T, error) {
	var zero T

	start := time.Now()
	raw, err := c.kv.Get(ctx, c.key)
	c.observe("load", start, err)

	switch {
	case errors.Is(err, ports.ErrKeyNotFound) || (err == nil && len(raw) == 0):
		c.metrics.Fallback(c.key, "missing")
		return c.reseed(ctx, c.seed())
	case err != nil:
		return zero, fmt.Errorf("load %s: %w", c.key, err)
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		c.logger.WithError(err).Warnw("Stored collection is corrupt, replacing with default")
		c.metrics.Fallback(c.key, "corrupt")
		return c.reseed(ctx, c.fallback())
	}
	return value, nil
}

// Save overwrites the stored blob. Last writer wins.
func (c *Collection[T]) Save(ctx context.Context, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}

	start := time.Now()
	err = c.kv.Set(ctx, c.key, raw)
	c.observe("save", start, err)
	if err != nil {
		return fmt.Errorf("save %s: %w", c.key, err)
	}
	return nil
}

func (c *Collection[T]) reseed(ctx context.Context, value T) (T, error) {
	if err := c.Save(ctx, value); err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

func (c *Collection[T]) observe(op string, start time.Time, err error) {
	d := time.Since(start)
	if errors.Is(err, ports.ErrKeyNotFound) {
		err = nil
	}
	c.metrics.ObserveStore(op, c.key, c.kv.Driver(), d, err)
	c.logger.LogStoreOperation(op, c.key, float64(d.Microseconds())/1000, err)
}
