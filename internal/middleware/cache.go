package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"

    "github.com/iliyamo/church-manager/internal/config"
)

// TenantCache is a Redis response cache for tenant scoped routes.  Every key
// names the user and the active church the response was produced for:
//
//   <prefix>:u:<user>:c:<church>:<sha1 of route and query>
//
// so a response can only be replayed to the same user while the same church
// is active.  Successful writes purge every user's entries of the church;
// a church switch purges every entry of the user.
type TenantCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
    log zerolog.Logger
}

// NewTenantCache returns a cache; a nil client or a disabled config turns
// every method into a no-op.
func NewTenantCache(cfg config.CacheConfig, rdb *redis.Client, log zerolog.Logger) *TenantCache {
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    if cfg.Prefix == "" {
        cfg.Prefix = "cache"
    }
    return &TenantCache{cfg: cfg, rdb: rdb, log: log}
}

func (t *TenantCache) enabled() bool { return t.cfg.Enabled && t.rdb != nil }

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }
func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 || cw.size+int64(len(b)) <= cw.limit {
        cw.buf.Write(b)
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// truncated reports whether the body outgrew the capture limit.
func (cw *captureWriter) truncated() bool { return cw.limit > 0 && cw.size > cw.limit }

// key builds the cache key for the current request.
func (t *TenantCache) key(c echo.Context) string {
    r := c.Request()
    var tail string
    switch strings.ToLower(t.cfg.KeyStrategy) {
    case "route":
        tail = "route:" + c.Path() + ":" + c.Request().URL.Path
    default: // "route_query"
        tail = "route:" + c.Path() + ":" + r.URL.Path + ":q:" + r.URL.Query().Encode()
    }
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:u:%s:c:%s:%x", t.cfg.Prefix, userKey(c), churchKey(c), sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:8+len(hdrJSON)], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    hdr := make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, hdr, bs[8+hlen:], true
}

func isWrite(method string) bool {
    switch method {
    case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
        return true
    }
    return false
}

// Middleware serves cached responses on tenant routes and purges the church
// after successful writes.  It must run after ActiveChurch; requests without
// a church in context pass through untouched.
func (t *TenantCache) Middleware() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !t.enabled() {
                return next(c)
            }
            churchID, scoped := c.Get(CtxChurchID).(uint64)
            if !scoped {
                return next(c)
            }
            method := strings.ToUpper(c.Request().Method)

            if isWrite(method) {
                if err := next(c); err != nil {
                    return err
                }
                if s := c.Response().Status; s >= 200 && s < 300 {
                    if _, err := t.PurgeChurch(c.Request().Context(), churchID); err != nil {
                        zerolog.Ctx(c.Request().Context()).Warn().Err(err).Uint64("church_id", churchID).Msg("cache purge failed")
                    }
                }
                return nil
            }
            if !t.cfg.Methods[method] {
                return next(c)
            }

            ctx := c.Request().Context()
            key := t.key(c)

            if bs, err := t.rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, "Content-Length") || strings.EqualFold(k, "X-Cache") {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    if len(body) > 0 {
                        _, _ = c.Response().Write(body)
                    }
                    return nil
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(t.cfg.MaxBodyBytes)}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            if cw.status != http.StatusOK || cw.truncated() {
                return nil
            }
            if strings.Contains(c.Response().Header().Get("Cache-Control"), "no-store") {
                return nil
            }
            hdr := c.Response().Header().Clone()
            payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
            if err != nil {
                return nil
            }
            // The church id in the key comes from the same context the
            // handler ran with; a switch racing this store is cleaned up by
            // PurgeUser, which runs after the switch commits.
            _ = t.rdb.SetEx(context.WithoutCancel(ctx), key, payload, t.cfg.TTL).Err()
            return nil
        }
    }
}

// PurgeChurch deletes every user's cached responses for churchID.
func (t *TenantCache) PurgeChurch(ctx context.Context, churchID uint64) (int, error) {
    return t.purge(ctx, fmt.Sprintf("%s:u:*:c:%s:*", t.cfg.Prefix, strconv.FormatUint(churchID, 10)))
}

// PurgeUser deletes every cached response of userID, whatever church it was
// produced for.
func (t *TenantCache) PurgeUser(ctx context.Context, userID uint64) (int, error) {
    return t.purge(ctx, fmt.Sprintf("%s:u:%s:c:*", t.cfg.Prefix, strconv.FormatUint(userID, 10)))
}

func (t *TenantCache) purge(ctx context.Context, pattern string) (int, error) {
    if !t.enabled() {
        return 0, nil
    }
    var (
        cursor uint64
        total  int
    )
    for {
        keys, next, err := t.rdb.Scan(ctx, cursor, pattern, 500).Result()
        if err != nil {
            return total, err
        }
        if len(keys) > 0 {
            n, err := t.rdb.Del(ctx, keys...).Result()
            if err != nil {
                return total, err
            }
            total += int(n)
        }
        if next == 0 {
            break
        }
        cursor = next
    }
    t.log.Debug().Str("pattern", pattern).Int("keys", total).Msg("response cache purged")
    return total, nil
}
