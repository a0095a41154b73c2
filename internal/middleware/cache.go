package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/storefront-api/internal/config"
)

// cachedResponse is what the catalog cache stores per key.
type cachedResponse struct {
	Status      int    `json:"s"`
	ContentType string `json:"ct"`
	Body        []byte `json:"b"`
}

// bodyRecorder tees the response body so it can be cached after the
// handler returns.  Bodies over limit are not cached.
type bodyRecorder struct {
	http.ResponseWriter
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if !r.overflow {
		if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
			r.overflow = true
			r.buf.Reset()
		} else {
			r.buf.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// CatalogCache serves public catalog reads from Redis.
type CatalogCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log *slog.Logger
}

func NewCatalogCache(cfg config.CacheConfig, rdb *redis.Client, log *slog.Logger) *CatalogCache {
	return &CatalogCache{cfg: cfg, rdb: rdb, log: log}
}

func (cc *CatalogCache) key(c echo.Context) string {
	r := c.Request()
	var tail string
	switch strings.ToLower(cc.cfg.KeyStrategy) {
	case "route":
		tail = c.Path()
	case "method_route":
		tail = r.Method + " " + c.Path()
	case "method_route_query":
		tail = r.Method + " " + c.Path() + "?" + r.URL.RawQuery
	default:
		tail = r.URL.Path + "?" + r.URL.RawQuery
	}
	sum := sha1.Sum([]byte(tail))
	return cc.cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

// Middleware caches 200 responses of the configured methods.  Requests
// carrying credentials bypass the cache.
func (cc *CatalogCache) Middleware() echo.MiddlewareFunc {
	if !cc.cfg.Enabled || cc.rdb == nil {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !cc.cfg.Methods[req.Method] || req.Header.Get(echo.HeaderAuthorization) != "" {
				return next(c)
			}
			ctx := req.Context()
			key := cc.key(c)

			if raw, err := cc.rdb.Get(ctx, key).Bytes(); err == nil {
				var hit cachedResponse
				if json.Unmarshal(raw, &hit) == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(hit.Status, hit.ContentType, hit.Body)
				}
			} else if err != redis.Nil {
				cc.log.Warn("catalog cache read failed", "err", err)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, limit: cc.cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if c.Response().Status != http.StatusOK || rec.overflow {
				return nil
			}
			payload, err := json.Marshal(cachedResponse{
				Status:      http.StatusOK,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        rec.buf.Bytes(),
			})
			if err != nil {
				return nil
			}
			if err := cc.rdb.Set(context.WithoutCancel(ctx), key, payload, cc.cfg.TTL).Err(); err != nil {
				cc.log.Warn("catalog cache write failed", "err", err)
			}
			return nil
		}
	}
}

// Purge drops every cached catalog entry.  Admin catalog writes call it so
// edits show up before the TTL runs out.
func (cc *CatalogCache) Purge(ctx context.Context) {
	if !cc.cfg.Enabled || cc.rdb == nil {
		return
	}
	iter := cc.rdb.Scan(ctx, 0, cc.cfg.Prefix+":*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		cc.log.Warn("catalog cache scan failed", "err", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := cc.rdb.Del(ctx, keys...).Err(); err != nil {
		cc.log.Warn("catalog cache purge failed", "err", err)
	}
}
