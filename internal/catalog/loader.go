package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sweetfrozen/storefront/pkg/enums"
	"github.com/sweetfrozen/storefront/pkg/logger"
)

const (
	defaultLoadTimeout       = 5 * time.Second
	responseBodyLimit  int64 = 4 << 20
)

var errNoTierServed = errors.New("no catalog tier produced data")

type cacheStore interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any) error
}

type loadRecorder interface {
	IncCatalogLoad(catalog, source string)
}

// Tier is one step of the fallback chain.
type Tier[T any] struct {
	Source enums.DataSource
	Load   func(ctx context.Context) ([]T, error)
}

// Loader resolves a JSON array document through remote, cache and bundled tiers,
// reporting which tier served it. A remote success refreshes the cache.
type Loader[T any] struct {
	name       string
	location   string
	cacheKey   string
	bundled    []byte
	timeout    time.Duration
	store      cacheStore
	httpClient *http.Client
	validate   func([]T) error
	logg       *logger.Logger
	metrics    loadRecorder
}

// Option configures optional loader behavior.
type Option[T any] func(*Loader[T])

// WithRemote sets the remote document location: an http(s) URL or a file path.
func WithRemote[T any](location string) Option[T] {
	return func(l *Loader[T]) {
		l.location = strings.TrimSpace(location)
	}
}

// WithTimeout bounds the remote fetch.
func WithTimeout[T any](timeout time.Duration) Option[T] {
	return func(l *Loader[T]) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient[T any](client *http.Client) Option[T] {
	return func(l *Loader[T]) {
		if client != nil {
			l.httpClient = client
		}
	}
}

// WithValidator rejects documents that decode but are unusable.
func WithValidator[T any](fn func([]T) error) Option[T] {
	return func(l *Loader[T]) {
		l.validate = fn
	}
}

// WithLogger sets the logger used to report provenance.
func WithLogger[T any](logg *logger.Logger) Option[T] {
	return func(l *Loader[T]) {
		if logg != nil {
			l.logg = logg
		}
	}
}

// WithMetrics records which tier served each load.
func WithMetrics[T any](metrics loadRecorder) Option[T] {
	return func(l *Loader[T]) {
		l.metrics = metrics
	}
}

// NewLoader builds a loader for the named catalog. bundled is the embedded
// last-resort document; store may be nil to skip the cache tier.
func NewLoader[T any](name, cacheKey string, bundled []byte, store cacheStore, opts ...Option[T]) *Loader[T] {
	l := &Loader[T]{
		name:       name,
		cacheKey:   cacheKey,
		bundled:    bundled,
		store:      store,
		timeout:    defaultLoadTimeout,
		httpClient: &http.Client{},
		logg:       logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Tiers returns the ordered fallback chain.
func (l *Loader[T]) Tiers() []Tier[T] {
	tiers := make([]Tier[T], 0, 3)
	if l.location != "" {
		tiers = append(tiers, Tier[T]{Source: enums.DataSourceRemote, Load: l.loadRemote})
	}
	if l.store != nil && l.cacheKey != "" {
		tiers = append(tiers, Tier[T]{Source: enums.DataSourceCache, Load: l.loadCache})
	}
	if len(l.bundled) > 0 {
		tiers = append(tiers, Tier[T]{Source: enums.DataSourceBundled, Load: l.loadBundled})
	}
	return tiers
}

// Load walks the tiers until one yields a valid document.
func (l *Loader[T]) Load(ctx context.Context) ([]T, enums.DataSource, error) {
	ctx = l.logg.WithField(ctx, "catalog", l.name)
	items, source, err := Resolve(ctx, l.logg, l.Tiers()...)
	if err != nil {
		return nil, enums.DataSourceNone, fmt.Errorf("load %s catalog: %w", l.name, err)
	}
	if source == enums.DataSourceRemote && l.store != nil && l.cacheKey != "" {
		if err := l.store.Set(ctx, l.cacheKey, items); err != nil {
			l.logg.Error(ctx, "failed to cache catalog", err)
		}
	}
	if l.metrics != nil {
		l.metrics.IncCatalogLoad(l.name, source.String())
	}
	return items, source, nil
}

// Resolve returns the result of the first tier that succeeds, logging every
// tier that was skipped.
func Resolve[T any](ctx context.Context, logg *logger.Logger, tiers ...Tier[T]) ([]T, enums.DataSource, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	for _, tier := range tiers {
		items, err := tier.Load(ctx)
		if err != nil {
			logg.Warn(logg.WithFields(ctx, map[string]any{"source": tier.Source.String(), "error": err.Error()}), "catalog tier unavailable")
			continue
		}
		logg.Info(logg.WithFields(ctx, map[string]any{"source": tier.Source.String(), "count": len(items)}), "catalog loaded")
		return items, tier.Source, nil
	}
	return nil, enums.DataSourceNone, errNoTierServed
}

func (l *Loader[T]) loadRemote(ctx context.Context) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var (
		raw []byte
		err error
	)
	if strings.HasPrefix(l.location, "http://") || strings.HasPrefix(l.location, "https://") {
		raw, err = l.fetch(ctx)
	} else {
		raw, err = os.ReadFile(strings.TrimPrefix(l.location, "file://"))
	}
	if err != nil {
		return nil, err
	}
	return l.decode(raw)
}

func (l *Loader[T]) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
}

func (l *Loader[T]) loadCache(ctx context.Context) ([]T, error) {
	var items []T
	if !l.store.Get(ctx, l.cacheKey, &items) {
		return nil, fmt.Errorf("no cached copy at %s", l.cacheKey)
	}
	if err := l.check(items); err != nil {
		return nil, err
	}
	return items, nil
}

func (l *Loader[T]) loadBundled(context.Context) ([]T, error) {
	return l.decode(l.bundled)
}

func (l *Loader[T]) decode(raw []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("document is not a JSON array: %w", err)
	}
	if err := l.check(items); err != nil {
		return nil, err
	}
	return items, nil
}

func (l *Loader[T]) check(items []T) error {
	if items == nil {
		return errors.New("document is null")
	}
	if l.validate == nil {
		return nil
	}
	return l.validate(items)
}
