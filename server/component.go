package server

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/medpipe/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*ServerComponent)(nil)
	_ component.Describable   = (*ServerComponent)(nil)
	_ component.RouteProvider = (*ServerComponent)(nil)
)

// systemPaths sort after the pipeline routes in the startup summary.
var systemPaths = map[string]bool{
	"/health":  true,
	"/livez":   true,
	"/readyz":  true,
	"/version": true,
	"/info":    true,
}

// ServerComponent lets the bootstrap start and stop a Server.
type ServerComponent struct {
	srv *Server
}

func NewComponent(s *Server) *ServerComponent { return &ServerComponent{srv: s} }

func (sc *ServerComponent) Name() string                    { return componentName }
func (sc *ServerComponent) Start(ctx context.Context) error { return sc.srv.Start(ctx) }
func (sc *ServerComponent) Stop(ctx context.Context) error  { return sc.srv.Stop(ctx) }

// Health is healthy once the listener is bound.
func (sc *ServerComponent) Health(context.Context) component.Health {
	h := component.Health{Name: componentName, Status: component.StatusHealthy}
	if !sc.srv.Listening() {
		h.Status = component.StatusUnhealthy
		h.Message = "HTTP server not listening"
	}
	return h
}

func (sc *ServerComponent) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s body<=%s h2c", sc.srv.Addr(), sc.srv.cfg.MaxBodySize),
		Port:    sc.srv.cfg.Port,
	}
}

// Routes lists pipeline routes first, then the probes, each group by path
// and method.
func (sc *ServerComponent) Routes() []component.Route {
	info := sc.srv.engine.Routes()
	slices.SortFunc(info, func(a, b gin.RouteInfo) int {
		if sa, sb := systemPaths[a.Path], systemPaths[b.Path]; sa != sb {
			if sa {
				return 1
			}
			return -1
		}
		return cmp.Or(strings.Compare(a.Path, b.Path), strings.Compare(a.Method, b.Method))
	})

	routes := make([]component.Route, len(info))
	for i, r := range info {
		routes[i] = component.Route{Method: r.Method, Path: r.Path, Handler: handlerName(r.Handler)}
	}
	return routes
}

// handlerName shortens Gin's handler name to package and function:
// "github.com/kbukum/medpipe/api.(*Handler).Extract-fm" becomes "api.Extract".
func handlerName(full string) string {
	name := full[strings.LastIndexByte(full, '/')+1:]
	name = strings.TrimSuffix(name, "-fm")
	for i := strings.LastIndex(name, ".func"); i >= 0; i = strings.LastIndex(name, ".func") {
		name = name[:i]
	}
	pkg, rest, ok := strings.Cut(name, ".")
	if !ok {
		return name
	}
	return pkg + "." + rest[strings.LastIndexByte(rest, '.')+1:]
}
