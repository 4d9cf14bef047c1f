package middleware

import "net/http"

// BodyLimit caps request bodies at max bytes. Handlers see an
// *http.MaxBytesError from the body reader once the cap is crossed.
func BodyLimit(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, max)
			}
			next.ServeHTTP(w, r)
		})
	}
}
