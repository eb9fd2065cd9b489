// Package offline implements the viewer's offline cache worker: a versioned response cache with an
// install/activate lifecycle that sits in front of every outbound request as an http.RoundTripper.
package offline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"chat-viewer/cmd/internal/logger"
)

const HeaderCacheStatus = "X-Cache"

type State int32

const (
	StateParsed State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActivated
	StateRedundant
)

func (s State) String() string {
	switch s {
	case StateParsed:
		return "parsed"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActivated:
		return "activated"
	case StateRedundant:
		return "redundant"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var (
	ErrInvalidState = errors.New("offline: invalid worker state")
	ErrAssetFetch   = errors.New("offline: asset fetch failed")
)

// DynamicPathMarkers are the path fragments of backend endpoints. Requests whose path contains one
// of them go network-first; everything else is treated as a static asset and goes cache-first.
var DynamicPathMarkers = []string{"/api/", "/chat/", "/chats/", "/message/"}

// IsDynamic reports whether a request path is a backend-communication endpoint.
func IsDynamic(path string) bool {
	for _, marker := range DynamicPathMarkers {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}

type Config struct {
	// Name is the cache version tag. Bump it when Assets change.
	Name   string
	Assets []string
}

type Worker struct {
	name     string
	manifest []string
	storage  CacheStorage
	network  http.RoundTripper
	now      func() time.Time

	state atomic.Int32

	mu    sync.RWMutex
	cache Cache
}

// NewWorker creates a worker in the parsed state. network performs the live requests and defaults to
// http.DefaultTransport.
func NewWorker(cfg Config, storage CacheStorage, network http.RoundTripper) *Worker {
	if network == nil {
		network = http.DefaultTransport
	}
	return &Worker{
		name:     cfg.Name,
		manifest: slices.Clone(cfg.Assets),
		storage:  storage,
		network:  network,
		now:      time.Now,
	}
}

func (w *Worker) Name() string     { return w.name }
func (w *Worker) State() State     { return State(w.state.Load()) }
func (w *Worker) Active() bool     { return w.State() == StateActivated }
func (w *Worker) Assets() []string { return slices.Clone(w.manifest) }

// Install opens the versioned cache and stores every manifest asset. Like cache.addAll it is all or
// nothing: when one asset fails, nothing is stored, a cache created by this call is removed again,
// and the worker becomes redundant.
func (w *Worker) Install(ctx context.Context) error {
	if !w.state.CompareAndSwap(int32(StateParsed), int32(StateInstalling)) {
		return fmt.Errorf("%w: install from %s", ErrInvalidState, w.State())
	}

	existing, err := w.storage.Keys(ctx)
	if err != nil {
		w.state.Store(int32(StateRedundant))
		return fmt.Errorf("offline: list caches: %w", err)
	}
	existed := slices.Contains(existing, w.name)

	cache, err := w.storage.Open(ctx, w.name)
	if err != nil {
		w.state.Store(int32(StateRedundant))
		return fmt.Errorf("offline: open cache %s: %w", w.name, err)
	}

	entries, err := w.fetchAll(ctx)
	if err == nil {
		for _, e := range entries {
			if err = cache.Put(ctx, e.URL, e); err != nil {
				err = fmt.Errorf("offline: store %s: %w", e.URL, err)
				break
			}
		}
	}
	if err != nil {
		if !existed {
			if _, delErr := w.storage.Delete(ctx, w.name); delErr != nil {
				logger.ErrorWithFields("offline cache cleanup failed", logger.Fields{"cache": w.name, "error": delErr.Error()})
			}
		}
		w.state.Store(int32(StateRedundant))
		return err
	}

	w.mu.Lock()
	w.cache = cache
	w.mu.Unlock()
	w.state.Store(int32(StateInstalled))

	logger.InfoWithFields("offline cache installed", logger.Fields{"cache": w.name, "assets": len(entries)})
	return nil
}

func (w *Worker) fetchAll(ctx context.Context) ([]*Entry, error) {
	entries := make([]*Entry, 0, len(w.manifest))
	for _, asset := range w.manifest {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrAssetFetch, asset, err)
		}
		resp, err := w.network.RoundTrip(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrAssetFetch, asset, err)
		}
		entry, err := w.toEntry(req, resp)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrAssetFetch, asset, err)
		}
		if entry.StatusCode < 200 || entry.StatusCode > 299 {
			return nil, fmt.Errorf("%w: %s: status %d", ErrAssetFetch, asset, entry.StatusCode)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Activate deletes every cache whose name is not this worker's version tag. The current cache is left
// untouched.
func (w *Worker) Activate(ctx context.Context) error {
	if !w.state.CompareAndSwap(int32(StateInstalled), int32(StateActivating)) {
		return fmt.Errorf("%w: activate from %s", ErrInvalidState, w.State())
	}

	names, err := w.storage.Keys(ctx)
	if err != nil {
		w.state.Store(int32(StateInstalled))
		return fmt.Errorf("offline: list caches: %w", err)
	}
	for _, name := range names {
		if name == w.name {
			continue
		}
		if _, err := w.storage.Delete(ctx, name); err != nil {
			w.state.Store(int32(StateInstalled))
			return fmt.Errorf("offline: delete cache %s: %w", name, err)
		}
		logger.InfoWithFields("offline cache purged", logger.Fields{"cache": name, "current": w.name})
	}

	w.state.Store(int32(StateActivated))
	logger.InfoWithFields("offline cache activated", logger.Fields{"cache": w.name})
	return nil
}

// RoundTrip intercepts a request once the worker is active. Backend endpoints are network-first with
// a fallback to the exact cached URL; everything else is cache-first.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	if !w.Active() {
		return w.network.RoundTrip(req)
	}
	if IsDynamic(req.URL.Path) {
		return w.networkFirst(req)
	}
	return w.cacheFirst(req)
}

func (w *Worker) networkFirst(req *http.Request) (*http.Response, error) {
	resp, err := w.network.RoundTrip(req)
	if err == nil {
		if req.Method == http.MethodGet && resp.StatusCode == http.StatusOK {
			return w.storeThrough(req, resp)
		}
		return resp, nil
	}

	if entry := w.match(req); entry != nil {
		logger.WarnWithFields("offline cache fallback", logger.Fields{"url": req.URL.String(), "error": err.Error()})
		return entry.Response(req), nil
	}
	return nil, err
}

func (w *Worker) cacheFirst(req *http.Request) (*http.Response, error) {
	if entry := w.match(req); entry != nil {
		return entry.Response(req), nil
	}
	return w.network.RoundTrip(req)
}

func (w *Worker) match(req *http.Request) *Entry {
	if req.Method != http.MethodGet {
		return nil
	}
	cache := w.currentCache()
	if cache == nil {
		return nil
	}
	entry, err := cache.Match(req.Context(), req.URL.String())
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logger.ErrorWithFields("offline cache match failed", logger.Fields{"url": req.URL.String(), "error": err.Error()})
		}
		return nil
	}
	return entry
}

// storeThrough buffers a successful live response, stores it, and hands the caller an unread copy.
func (w *Worker) storeThrough(req *http.Request, resp *http.Response) (*http.Response, error) {
	entry, err := w.toEntry(req, resp)
	if err != nil {
		return nil, err
	}
	if cache := w.currentCache(); cache != nil {
		if err := cache.Put(req.Context(), entry.URL, entry); err != nil {
			logger.ErrorWithFields("offline cache put failed", logger.Fields{"url": entry.URL, "error": err.Error()})
		}
	}
	resp.Body = io.NopCloser(bytes.NewReader(entry.Body))
	resp.ContentLength = int64(len(entry.Body))
	return resp, nil
}

func (w *Worker) toEntry(req *http.Request, resp *http.Response) (*Entry, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Entry{
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		StoredAt:   w.now(),
	}, nil
}

func (w *Worker) currentCache() Cache {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cache
}
