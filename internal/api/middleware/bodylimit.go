package middleware

import "net/http"

// maxJSONBody bounds the JSON bodies this service accepts. Only the YouTube
// transcript endpoint decodes JSON; file uploads carry their own multipart
// limit inside the handler.
const maxJSONBody = 1 << 20

// JSONBodyLimit caps request bodies on JSON routes so an oversized payload
// fails in the decoder instead of being buffered whole.
func JSONBodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		next.ServeHTTP(w, r)
	})
}
