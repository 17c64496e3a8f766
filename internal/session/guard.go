package session

import (
	"context"
	"strings"
)

const (
	RouteHome     = "/"
	RouteLogin    = "/login"
	RouteCallback = "/auth/callback"
	RouteProblems = "/problems"
	RouteAdmin    = "/admin"
)

var publicRoutes = map[string]bool{
	RouteHome:     true,
	RouteLogin:    true,
	RouteCallback: true,
}

// Decision is the outcome of one navigation.
type Decision struct {
	Route    string
	Allowed  bool
	Redirect string // set when Allowed is false
	Reason   error
}

// Guard gates protected routes on a valid credential.
type Guard struct {
	session *Session
}

func NewGuard(s *Session) *Guard {
	return &Guard{session: s}
}

// Navigate re-validates the stored credential on every call. Unauthenticated
// callers are sent to "/" unless the route is public; non-admins are sent
// from admin routes to /problems.
func (g *Guard) Navigate(ctx context.Context, route string) Decision {
	route = normalize(route)
	user, err := g.session.Restore(ctx)
	if err != nil {
		if IsPublic(route) {
			return Decision{Route: route, Allowed: true, Reason: err}
		}
		return Decision{Route: route, Redirect: RouteHome, Reason: err}
	}
	if IsAdminRoute(route) && !user.IsAdmin {
		return Decision{Route: route, Redirect: RouteProblems}
	}
	return Decision{Route: route, Allowed: true}
}

func IsPublic(route string) bool {
	return publicRoutes[normalize(route)]
}

func IsAdminRoute(route string) bool {
	route = normalize(route)
	return route == RouteAdmin || strings.HasPrefix(route, RouteAdmin+"/")
}

func normalize(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	route = strings.TrimSpace(route)
	if route == "" {
		return RouteHome
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if route = strings.TrimRight(route, "/"); route == "" {
		return RouteHome
	}
	return route
}
