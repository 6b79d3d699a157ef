package routes

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/hello-service/internal/http/health"
	"github.com/janisto/hello-service/internal/http/root"
	"github.com/janisto/hello-service/internal/platform/logging"
	"github.com/janisto/hello-service/internal/platform/metrics"
	appmiddleware "github.com/janisto/hello-service/internal/platform/middleware"
	"github.com/janisto/hello-service/internal/platform/respond"
	"github.com/janisto/hello-service/internal/platform/tracing"
)

const (
	apiTitle = "Hello Service"
	docsPath = "/api-docs"

	// maxRequestBody bounds request bodies; no route reads one.
	maxRequestBody = 1 << 20
)

// Options controls the optional parts of the router.
type Options struct {
	Version string
	// Metrics records request metrics when non-nil.
	Metrics *metrics.Metrics
	// TraceService enables the tracing middleware under this service name.
	TraceService string
	// DocsEnabled serves /openapi.json and the docs UI at /api-docs.
	DocsEnabled bool
}

// NewRouter builds the complete HTTP handler: middleware stack, framework
// default error handlers, and the application routes.
func NewRouter(opts Options) chi.Router {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	if opts.TraceService != "" {
		router.Use(tracing.Middleware(opts.TraceService))
	}
	router.Use(
		appmiddleware.RequestID(),
		// RealIP trusts X-Forwarded-For; deploy behind a proxy that sets it.
		chimiddleware.RealIP,
	)
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
	}
	router.Use(
		logging.RequestLogger(),
		logging.AccessLogger(),
		respond.Recoverer(),
		appmiddleware.Security(docsPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(),
		chimiddleware.RequestSize(maxRequestBody),
	)

	Register(router, humachi.New(router, apiConfig(opts)))
	return router
}

func apiConfig(opts Options) huma.Config {
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	cfg := huma.DefaultConfig(apiTitle, version)
	if opts.DocsEnabled {
		cfg.DocsPath = docsPath
	} else {
		cfg.DocsPath = ""
		cfg.OpenAPIPath = ""
		cfg.SchemasPath = ""
	}
	return cfg
}

// Register wires the application routes. The health probe is a plain
// handler on the router so it bypasses content negotiation.
func Register(router chi.Router, api huma.API) {
	router.Get(health.Path, http.HandlerFunc(health.Handler))
	root.Register(api)
}
