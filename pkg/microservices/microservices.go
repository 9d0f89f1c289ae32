package microservices

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	hferrors "github.com/hobbyfarm/examdesk/pkg/errors"
	"github.com/hobbyfarm/examdesk/pkg/util"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// APIServer is implemented by every service that contributes routes.
type APIServer interface {
	SetupRoutes(r *mux.Router)
}

var CORS_ALLOWED_METHODS_ALL = [...]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
var CORS_ALLOWED_ORIGINS = []string{"*"}
var CORS_ALLOWED_HEADERS = []string{"Content-Type", "Authorization"}

var CORS_HANDLER_ALLOWED_HEADERS = handlers.AllowedHeaders(CORS_ALLOWED_HEADERS)
var CORS_HANDLER_ALLOWED_ORIGINS = handlers.AllowedOrigins(CORS_ALLOWED_ORIGINS)
var CORS_HANDLER_ALLOWED_METHODS = handlers.AllowedMethods(CORS_ALLOWED_METHODS_ALL[:])

// NewRouter mounts the servers under apiPrefix, in the given order, next to
// an unprefixed /health probe. Unmatched requests get JSON errors and panics
// in handlers are answered with INTERNAL_ERROR.
func NewRouter(apiPrefix string, servers ...APIServer) *mux.Router {
	r := mux.NewRouter()
	r.Use(recoverMiddleware)
	r.HandleFunc("/health", HealthFunc).Methods("GET")

	api := r
	if apiPrefix != "" {
		api = r.PathPrefix(apiPrefix).Subrouter()
	}
	for _, s := range servers {
		s.SetupRoutes(api)
	}

	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = http.HandlerFunc(NotFoundFunc)
		router.MethodNotAllowedHandler = http.HandlerFunc(MethodNotAllowedFunc)
	}

	glog.V(2).Infof("set up router with %d servers under %q", len(servers), apiPrefix)
	return r
}

// WrapHandler adds CORS and writes an access log line per request to accessLog.
func WrapHandler(h http.Handler, accessLog io.Writer) http.Handler {
	h = handlers.CORS(CORS_HANDLER_ALLOWED_HEADERS, CORS_HANDLER_ALLOWED_METHODS, CORS_HANDLER_ALLOWED_ORIGINS)(h)
	return handlers.CombinedLoggingHandler(accessLog, h)
}

func HealthFunc(w http.ResponseWriter, r *http.Request) {
	util.ReturnHTTPContent(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func NotFoundFunc(w http.ResponseWriter, r *http.Request) {
	util.ReturnHTTPMessage(w, r, http.StatusNotFound, hferrors.CodeNotFound, "Route not found", map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,
	})
}

func MethodNotAllowedFunc(w http.ResponseWriter, r *http.Request) {
	util.ReturnHTTPMessage(w, r, http.StatusMethodNotAllowed, hferrors.CodeMethodNotAllowed, "Method not allowed", map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				glog.Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				ee := hferrors.NewInternal("Unexpected error")
				util.ReturnHTTPMessage(w, r, ee.Status, ee.Code, ee.Message, nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// StartAPIServer serves until ctx is done, then gives in-flight requests up
// to grace to finish.
func StartAPIServer(ctx context.Context, server *http.Server, grace time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		glog.Infof("http server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "serving http")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		glog.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutting down http server")
		}
		return nil
	})

	return g.Wait()
}
