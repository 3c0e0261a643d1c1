package main

import (
	"context"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mager/phrasegraph/analysis"
	"github.com/mager/phrasegraph/config"
	"github.com/mager/phrasegraph/database"
	"github.com/mager/phrasegraph/graph"
	graphHandler "github.com/mager/phrasegraph/handler/graph"
	"github.com/mager/phrasegraph/handler/health"
	segmentsHandler "github.com/mager/phrasegraph/handler/segments"
	"github.com/mager/phrasegraph/logger"
	"github.com/mager/phrasegraph/phrase"
	"github.com/mager/phrasegraph/phrasegraph"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Route is an http.Handler that knows the mux pattern
// under which it will be registered.
type Route interface {
	http.Handler

	// Pattern reports the path at which this is registered.
	Pattern() string
}

func main() {
	fx.New(
		fx.Provide(NewHTTPServer,
			config.Options,
			logger.Options,
			phrasegraph.Options,
			database.Options,
			database.StoreOptions,
			analysis.Options,
			phrase.Options,
			graph.Options,

			health.NewHealthHandler,
			graphHandler.NewBuildGraphHandler,
			graphHandler.NewGetGraphHandler,
			segmentsHandler.NewSegmentsHandler,
		),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}

func NewHTTPServer(
	lc fx.Lifecycle,
	log *zap.SugaredLogger,
	cfg config.Config,
	healthHandler *health.HealthHandler,
	buildGraphHandler *graphHandler.BuildGraphHandler,
	getGraphHandler *graphHandler.GetGraphHandler,
	trackSegmentsHandler *segmentsHandler.SegmentsHandler,
) *http.Server {
	r := mux.NewRouter()

	// Define handlers
	for _, route := range []Route{
		healthHandler,
		buildGraphHandler,
		getGraphHandler,
		trackSegmentsHandler,
	} {
		r.Handle(route.Pattern(), route)
	}

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: jsonMiddleware(r)}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Infof("Starting HTTP server at %s", srv.Addr)
			go srv.Serve(ln)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return srv
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
