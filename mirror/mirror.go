// Package mirror keeps a local read-through copy of a collection owned by the storefront API.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-storefront/api"
	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/internal/metrics"
	"github.com/jrsteele09/go-storefront/internal/utils"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

type State int

const (
	StateEmpty State = iota
	StateLoading
	StatePopulated
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StatePopulated:
		return "populated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config describes one remote collection.
type Config[T any] struct {
	// Name labels logs and metrics, e.g. "cart".
	Name string
	// Path is the collection endpoint.
	Path string
	// RequireAuth makes fetches fail with errors.ErrAuthRequired when no token source is given.
	RequireAuth bool
	// Decode extracts the lines from a response body. Defaults to a bare JSON array.
	Decode func(body []byte) ([]T, error)
	// Valid drops lines whose foreign reference did not resolve. Nil keeps everything.
	Valid func(T) bool
	// Key identifies a line for Find and RemoveLocal.
	Key func(T) string
}

// Mirror holds the last successfully fetched copy of a remote collection.
//
// Fetches are sequenced by issue order: a response is applied only if no later-issued fetch has
// already been applied, so a slow old response never overwrites a newer one. Reset and RemoveLocal
// also invalidate every fetch still in flight.
type Mirror[T any] struct {
	cfg     Config[T]
	client  *api.Client
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	items    []T
	hasData  bool
	inflight int
	issued   uint64
	applied  uint64
}

type Option func(*options)

type options struct {
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func New[T any](client *api.Client, cfg Config[T], opts ...Option) (*Mirror[T], error) {
	if client == nil {
		return nil, fmt.Errorf("[mirror.New] client cannot be nil")
	}
	if cfg.Name == "" || cfg.Path == "" {
		return nil, fmt.Errorf("[mirror.New] name and path are required: %w", errors.ErrInvalidArgument)
	}
	if cfg.Key == nil {
		return nil, fmt.Errorf("[mirror.New %s] key function is required: %w", cfg.Name, errors.ErrInvalidArgument)
	}
	if cfg.Decode == nil {
		cfg.Decode = DecodeArray[T]
	}

	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	return &Mirror[T]{
		cfg:     cfg,
		client:  client,
		logger:  o.logger.With().Str("collection", cfg.Name).Logger(),
		metrics: o.metrics,
	}, nil
}

// DecodeArray decodes a body that is a bare JSON array.
func DecodeArray[T any](body []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// DecodeField decodes a body shaped {"<field>": [...]}. A missing field decodes as no lines.
func DecodeField[T any](field string) func([]byte) ([]T, error) {
	return func(body []byte) ([]T, error) {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, err
		}
		raw, ok := envelope[field]
		if !ok || string(raw) == "null" {
			return nil, nil
		}
		return DecodeArray[T](raw)
	}
}

func (m *Mirror[T]) Name() string {
	return m.cfg.Name
}

// Refresh fetches the collection endpoint and replaces the mirror.
func (m *Mirror[T]) Refresh(ctx context.Context, tokens oauth2.TokenSource) ([]T, error) {
	return m.RefreshPath(ctx, m.cfg.Path, tokens)
}

// RefreshPath fetches an alternative endpoint returning the same lines (a filtered view such as
// a category) and replaces the mirror with the result. On failure the mirror keeps its last
// known good lines and the error is returned for the caller to log or surface.
func (m *Mirror[T]) RefreshPath(ctx context.Context, path string, tokens oauth2.TokenSource) ([]T, error) {
	if m.cfg.RequireAuth && tokens == nil {
		return nil, fmt.Errorf("[mirror.Refresh %s] %w", m.cfg.Name, errors.ErrAuthRequired)
	}

	m.mu.Lock()
	m.issued++
	seq := m.issued
	m.inflight++
	m.mu.Unlock()

	items, err := m.fetch(ctx, path, tokens)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight--

	if err != nil {
		m.metrics.ObserveRefresh(m.cfg.Name, "failed")
		m.logger.Warn().Err(err).Str("path", path).Msg("collection fetch failed, keeping last known lines")
		return nil, err
	}

	if seq <= m.applied {
		m.metrics.ObserveRefresh(m.cfg.Name, "stale")
		m.logger.Debug().Uint64("seq", seq).Uint64("applied", m.applied).Msg("discarding stale collection fetch")
		return items, nil
	}

	m.items = items
	m.hasData = true
	m.applied = seq
	m.metrics.ObserveRefresh(m.cfg.Name, "applied")
	m.metrics.SetMirrorSize(m.cfg.Name, len(items))
	return cloneSlice(items), nil
}

func (m *Mirror[T]) fetch(ctx context.Context, path string, tokens oauth2.TokenSource) ([]T, error) {
	var body json.RawMessage
	if err := m.client.Get(ctx, m.cfg.Name+".list", path, tokens, &body); err != nil {
		return nil, err
	}
	items, err := m.cfg.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("[mirror.Refresh %s] %w: %v", m.cfg.Name, errors.ErrInvalidResponse, err)
	}
	if m.cfg.Valid != nil {
		dropped := len(items)
		items = utils.Filter(items, m.cfg.Valid)
		if dropped -= len(items); dropped > 0 {
			m.logger.Debug().Int("dropped", dropped).Msg("dropped lines with unresolved references")
		}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Items returns a copy of the mirrored lines.
func (m *Mirror[T]) Items() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneSlice(m.items)
}

func (m *Mirror[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Find returns the line with the given key.
func (m *Mirror[T]) Find(key string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, item := range m.items {
		if m.cfg.Key(item) == key {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// RemoveLocal drops the line with the given key without a re-fetch.
func (m *Mirror[T]) RemoveLocal(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = utils.Filter(m.items, func(item T) bool {
		return m.cfg.Key(item) != key
	})
	m.applied = m.issued
	m.metrics.SetMirrorSize(m.cfg.Name, len(m.items))
}

// Reset empties the mirror and ignores any fetch still in flight.
func (m *Mirror[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	m.hasData = false
	m.applied = m.issued
	m.metrics.SetMirrorSize(m.cfg.Name, 0)
}

func (m *Mirror[T]) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case m.inflight > 0:
		return StateLoading
	case m.hasData:
		return StatePopulated
	default:
		return StateEmpty
	}
}

func (m *Mirror[T]) Loading() bool {
	return m.State() == StateLoading
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
