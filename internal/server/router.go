package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/benvon/todo-app/internal/config"
	"github.com/benvon/todo-app/internal/handlers"
	"github.com/benvon/todo-app/internal/logger"
	"github.com/benvon/todo-app/internal/middleware"
	"github.com/benvon/todo-app/internal/queue"
	"github.com/benvon/todo-app/internal/store"
	"github.com/benvon/todo-app/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

var (
	errMissingConfig = errors.New("config dependency required")
	errMissingStore  = errors.New("todo store dependency required")
)

// Dependencies are the collaborators the HTTP surface is built from.
// Optional fields may be left nil.
type Dependencies struct {
	Config    *config.Config
	Store     store.TodoStore
	Publisher queue.Publisher
	Logger    *zap.Logger

	// Redis backs the rate limiter when set; otherwise limits are per process
	Redis *redis.Client
	// Registry receives HTTP and store metrics and is served on /metrics when set
	Registry *prometheus.Registry
	// HealthChecks are reported by /healthz?mode=extended
	HealthChecks map[string]handlers.CheckFunc
	// Tracing enables otelmux spans on matched routes
	Tracing bool
}

// NewHTTPHandler assembles routes and middleware into a single handler
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Config == nil {
		return nil, errMissingConfig
	}
	if deps.Store == nil {
		return nil, errMissingStore
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := deps.Config

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	// otelmux needs the matched route, so it sits on the router rather than the outer chain
	if deps.Tracing {
		r.Use(otelmux.Middleware(logger.ServiceName))
	}

	handlers.NewPageHandler(log).RegisterRoutes(r)
	handlers.NewHealthChecker(deps.HealthChecks).RegisterRoutes(r)
	handlers.NewOpenAPIHandler().RegisterRoutes(r)

	var metrics *middleware.Metrics
	if deps.Registry != nil {
		var err error
		metrics, err = middleware.NewMetrics(deps.Registry)
		if err != nil {
			return nil, fmt.Errorf("register http metrics: %w", err)
		}
		if err := deps.Registry.Register(telemetry.NewStoreCollector(deps.Store)); err != nil {
			return nil, fmt.Errorf("register store metrics: %w", err)
		}
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	rateLimit, err := middleware.RateLimit(cfg.RateLimit, deps.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("configure rate limit: %w", err)
	}

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(rateLimit)
	todosRouter := apiRouter.PathPrefix("/todos").Subrouter()
	handlers.NewTodoHandler(deps.Store, deps.Publisher, log).RegisterRoutes(todosRouter)

	// Wrapped from the inside out; the last wrapper runs first
	var h http.Handler = r
	h = middleware.Logging(log)(h)
	h = middleware.Audit(log)(h)
	h = middleware.ErrorHandler(log)(h)
	h = middleware.Timeout(cfg.RequestTimeout)(h)
	h = middleware.ContentType(h)
	h = middleware.MaxRequestSize(cfg.MaxRequestSize)(h)
	if metrics != nil {
		h = metrics.Middleware(h)
	}
	h = middleware.CORS(cfg.AllowedOrigins(), log)(h)
	h = middleware.SecurityHeaders(cfg.EnableHSTS)(h)
	h = middleware.RequestID(h)

	return h, nil
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusNotFound, "Not Found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
