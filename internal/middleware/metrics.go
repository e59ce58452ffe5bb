package middleware

import "net/http"

// HTTPStatusRecorder はHTTPステータスコードのメトリクス記録インターフェース。
// metrics.MetricsCollectorを直接要求せず、最小限のインターフェースとして定義する。
type HTTPStatusRecorder interface {
	RecordHTTPStatus(statusCode int)
}

// NewMetricsMiddleware はレスポンスのステータスコードをメトリクスとして記録するミドルウェアを返す。
func NewMetricsMiddleware(recorder HTTPStatusRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sr := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(sr, r)
			recorder.RecordHTTPStatus(sr.statusCode)
		})
	}
}
