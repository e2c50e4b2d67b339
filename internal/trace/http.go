// Package trace - HTTP/WebSocket middleware for trace extraction.
package trace

import "net/http"

// Middleware extracts or creates trace context for HTTP requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := extractFromHeaders(r)
		ctx := WithContext(r.Context(), tc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractFromHeaders gets trace context from HTTP headers.
func extractFromHeaders(r *http.Request) Context {
	tc := Context{
		TraceID:      r.Header.Get(TraceIDKey),
		ParentSpanID: r.Header.Get(SpanIDKey),
		SpanID:       generateSpanID(),
	}
	if tc.TraceID == "" {
		tc.TraceID = generateTraceID()
	}
	return tc
}
