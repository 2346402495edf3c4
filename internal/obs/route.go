package obs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// unmatchedRoute labels requests that no route matched, so requests for
// arbitrary paths collapse into one series.
const unmatchedRoute = "unmatched"

// routeOf returns the chi pattern matched for r. It is empty until routing has
// finished, so middleware must read it after calling next.
func routeOf(r *http.Request) string {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		return ""
	}
	return rc.RoutePattern()
}

// routeLabel is routeOf with unmatched requests folded into unmatchedRoute.
func routeLabel(r *http.Request) string {
	if route := routeOf(r); route != "" {
		return route
	}
	return unmatchedRoute
}
