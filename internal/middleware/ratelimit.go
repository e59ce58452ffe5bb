package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/arnoldmoya/newsroom/internal/model"
	"github.com/arnoldmoya/newsroom/internal/ratelimit"
)

// RateLimiterConfig はIPアドレス単位のレート制限の設定を保持する。
type RateLimiterConfig struct {
	Limit  int           // ウィンドウあたりの許容リクエスト数
	Window time.Duration // 固定ウィンドウの長さ
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// /api/配下は 10 req/60s/IP に制限する。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Limit:  10,
		Window: time.Minute,
	}
}

// clientIP はリクエスト元のIPアドレスを特定する。
// リバースプロキシ配下を想定し、X-Forwarded-Forの先頭エントリを優先する。
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}
	return "unknown"
}

// NewRateLimitMiddleware はIPアドレス単位の固定ウィンドウレート制限
// ミドルウェアを返す。すべてのレスポンスにX-RateLimit-*ヘッダーを付与し、
// 上限超過時は429とRetry-Afterを返す。X-RateLimit-Resetはウィンドウ境界の
// エポックミリ秒を示す。
func NewRateLimitMiddleware(limiter *ratelimit.Limiter, config RateLimiterConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			result := limiter.Check("api:"+ip, config.Limit, config.Window)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.UnixMilli(), 10))

			if !result.Allowed {
				retryAfter := int(time.Until(result.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				slog.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
