package middleware

import "net/http"

type Middleware func(http.Handler) http.Handler

// Wrap nests mws around h with the first middleware outermost, so
// Wrap(h, Cors(), Logging(l), Auth(c)) answers CORS preflights first,
// logs every request that gets past them, and authenticates last,
// right before h.
func Wrap(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
