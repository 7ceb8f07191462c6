package startup

import (
	"sort"
	"strings"

	"media-bridge/internal/logging"

	"github.com/gorilla/mux"
)

// RouteInfo describes one method and path pair registered on a router.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes lists every method and path registered on router. Routes
// without a method matcher are reported with method "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{Method: method, Path: path, Name: route.GetName()})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the request logging switches and, at debug level,
// every registered route grouped by its leading path segments.
func LogHTTPRoutes(router *mux.Router, logRenditions, logHealthChecks bool) {
	section("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		logRoutes(router)
	}

	logging.Info("  Thumbnail and image request logging: %s", onOff(logRenditions, "LOG_RENDITIONS=true"))
	logging.Info("  Health check request logging:        %s", onOff(logHealthChecks, "LOG_HEALTH_CHECKS=true"))
}

func logRoutes(router *mux.Router) {
	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return getRouteGroup(routes[i].Path) < getRouteGroup(routes[j].Path)
	})

	logging.Debug("  Registered routes (%d total):", len(routes))
	group := "\x00"
	for _, route := range routes {
		if g := getRouteGroup(route.Path); g != group {
			group = g
			if group == "" {
				logging.Debug("  [root]")
			} else {
				logging.Debug("  [%s]", group)
			}
		}
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
}

func onOff(on bool, enable string) string {
	if on {
		return "ON"
	}
	return "OFF (set " + enable + " to enable)"
}

// getRouteGroup returns the first path segment, or the first two for
// routes under /api.
func getRouteGroup(path string) string {
	first, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if first == "api" && rest != "" {
		sub, _, _ := strings.Cut(rest, "/")
		return "api/" + sub
	}
	return first
}
