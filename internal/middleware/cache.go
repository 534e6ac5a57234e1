package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/exam-seating/internal/config"
	"github.com/iliyamo/exam-seating/internal/logging"
)

const payloadHeaderLen = 8

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// bodyRecorder tees the response body into buf until limit bytes have been
// written.  Past the limit the response is still served but not cached.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	tooLarge bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if !r.tooLarge {
		if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
			r.tooLarge = true
			r.buf.Reset()
		} else {
			r.buf.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// cacheKeyFrom builds the Redis key for a request.  The path is kept in
// clear after the prefix so PurgePath can match every variant of a
// resource; the strategy-dependent part is hashed.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	path := r.URL.Path
	var material string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		material = path
	case "method_route":
		material = r.Method + " " + path
	case "method_route_query":
		material = r.Method + " " + path + "?" + r.URL.RawQuery
	default: // route_query
		material = path + "?" + r.URL.RawQuery
	}
	sum := sha256.Sum256([]byte(material))
	return cfg.Prefix + ":" + path + ":" + hex.EncodeToString(sum[:16])
}

// PurgePath deletes every cached response whose request path starts with
// pathPrefix.  A nil client is a no-op.
func PurgePath(ctx context.Context, cfg config.CacheConfig, rdb *redis.Client, pathPrefix string) error {
	if rdb == nil {
		return nil
	}
	var keys []string
	iter := rdb.Scan(ctx, 0, cfg.Prefix+":"+pathPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

// encodePayload frames a response as status (uint32), header length
// (uint32), the JSON encoded header and the body.
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdr, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, payloadHeaderLen+len(hdr)+len(body))
	out = binary.BigEndian.AppendUint32(out, uint32(status))
	out = binary.BigEndian.AppendUint32(out, uint32(len(hdr)))
	out = append(out, hdr...)
	return append(out, body...), nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < payloadHeaderLen {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[:4]))
	end := payloadHeaderLen + int(binary.BigEndian.Uint32(bs[4:8]))
	if end > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if end > payloadHeaderLen {
		if err := json.Unmarshal(bs[payloadHeaderLen:end], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[end:], true
}

func writeCached(c echo.Context, status int, header http.Header, body []byte) error {
	h := c.Response().Header()
	for k, vals := range header {
		if strings.EqualFold(k, echo.HeaderContentLength) {
			continue
		}
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(status)
	_, err := c.Response().Write(body)
	return err
}

// NewRedisCache serves repeated reads of the configured methods from Redis.
// Only 200 responses within MaxBodyBytes are stored, for cfg.TTL or until an
// owner edit purges them.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKeyFrom(cfg, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					return writeCached(c, status, hdr, body)
				}
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.tooLarge {
				return nil
			}

			payload, err := encodePayload(rec.status, c.Response().Header().Clone(), rec.buf.Bytes())
			if err == nil {
				err = rdb.SetEx(context.WithoutCancel(ctx), key, payload, cfg.TTL).Err()
			}
			if err != nil {
				logging.FromContext(ctx).Warn("cache: store failed", "key", key, "err", err)
			}
			return nil
		}
	}
}
