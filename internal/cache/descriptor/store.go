// Package descriptor caches TileJSON descriptors of hosted-data layers in a
// process-local LRU backed by an optional shared redis tier.
package descriptor

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mohammed-shakir/geomap-sync/internal/cache/keys"
	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
	"github.com/mohammed-shakir/geomap-sync/internal/core/observability"
	"github.com/mohammed-shakir/geomap-sync/internal/core/tiler"
)

const (
	tierLocal  = "lru"
	tierRemote = "redis"
)

// Remote is the shared tier; *redisstore.Client satisfies it.
type Remote interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type Config struct {
	Size      int
	TTL       time.Duration
	OpTimeout time.Duration
}

type Store struct {
	local  *expirable.LRU[string, tiler.TileJSON]
	remote Remote
	cfg    Config
	logger *slog.Logger
}

// New returns a store; remote may be nil to run with the local tier only.
func New(cfg Config, remote Remote, logger *slog.Logger) *Store {
	if cfg.Size <= 0 {
		cfg.Size = 256
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		local:  expirable.NewLRU[string, tiler.TileJSON](cfg.Size, nil, cfg.TTL),
		remote: remote,
		cfg:    cfg,
		logger: logger,
	}
}

// TileJSON returns the descriptor for l. Redis failures degrade to building
// the descriptor locally; only a done context is reported as an error.
func (s *Store) TileJSON(ctx context.Context, l *layer.HostedDataLayer) (tiler.TileJSON, error) {
	if err := ctx.Err(); err != nil {
		return tiler.TileJSON{}, err
	}
	key := keys.LayerKey(l)

	if tj, ok := s.local.Get(key); ok {
		observability.IncDescriptorCache(tierLocal, "hit")
		return tj, nil
	}
	observability.IncDescriptorCache(tierLocal, "miss")

	if s.remote != nil {
		if tj, ok := s.fromRemote(ctx, key); ok {
			s.local.Add(key, tj)
			return tj, nil
		}
	}

	tj := tiler.NewTileJSON(l)
	s.local.Add(key, tj)
	if s.remote != nil {
		s.toRemote(ctx, key, tj)
	}
	return tj, nil
}

func (s *Store) Len() int { return s.local.Len() }

func (s *Store) fromRemote(ctx context.Context, key string) (tiler.TileJSON, bool) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	raw, found, err := s.remote.Get(cctx, key)
	switch {
	case err != nil:
		observability.IncDescriptorCache(tierRemote, "error")
		s.logger.WarnContext(ctx, "descriptor cache read failed", "key", key, "err", err)
		return tiler.TileJSON{}, false
	case !found:
		observability.IncDescriptorCache(tierRemote, "miss")
		return tiler.TileJSON{}, false
	}

	var tj tiler.TileJSON
	if err := json.Unmarshal(raw, &tj); err != nil {
		observability.IncDescriptorCache(tierRemote, "error")
		s.logger.WarnContext(ctx, "descriptor cache entry unreadable", "key", key, "err", err)
		return tiler.TileJSON{}, false
	}
	// formatters do not survive serialisation
	tj.Formatter = tiler.Passthrough
	observability.IncDescriptorCache(tierRemote, "hit")
	return tj, true
}

func (s *Store) toRemote(ctx context.Context, key string, tj tiler.TileJSON) {
	raw, err := json.Marshal(tj)
	if err != nil {
		s.logger.WarnContext(ctx, "descriptor encode failed", "key", key, "err", err)
		return
	}
	cctx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()
	if err := s.remote.Set(cctx, key, raw, s.cfg.TTL); err != nil {
		s.logger.WarnContext(ctx, "descriptor cache write failed", "key", key, "err", err)
	}
}
