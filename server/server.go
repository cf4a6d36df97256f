package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	v1 "github.com/yomuhub/yomu/api/v1"
	"github.com/yomuhub/yomu/config"
	"github.com/yomuhub/yomu/http/request"
	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/progress"
	"github.com/yomuhub/yomu/recommend"
	"github.com/yomuhub/yomu/store"
	"github.com/yomuhub/yomu/version"
	"github.com/yomuhub/yomu/worker"
	"github.com/yomuhub/yomu/ws"
	"go.uber.org/zap"
)

// StartServer starts the HTTP server
func StartServer(ctx context.Context, store *store.Store, progressService *progress.Service, engine *recommend.Engine, hub *ws.Hub, uploadPool worker.WorkPool) (*http.Server, error) {
	addr := config.Opts.Host
	port := config.Opts.Port
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", addr, port),
		Handler: setupHandler(store, progressService, engine, hub, uploadPool),
	}

	startHTTPServer(server)

	return server, nil
}

func startHTTPServer(server *http.Server) {
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			os.Exit(1)
		}
	}()
}

func setupHandler(store *store.Store, progressService *progress.Service, engine *recommend.Engine, hub *ws.Hub, uploadPool worker.WorkPool) http.Handler {
	router := mux.NewRouter()

	v1.Server(router, store, progressService, engine, hub, uploadPool)

	router.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(); err != nil {
			http.Error(w, "Database Connection Error", http.StatusInternalServerError)
			return
		}

		w.Write([]byte("OK"))
	}).Name("healthcheck")

	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(version.GetCurrentVersion()))
	}).Name("version")

	if config.Opts.MetricsCollector {
		router.Handle("/metrics", promhttp.Handler()).Name("metrics")
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				route := mux.CurrentRoute(r)

				// Returns a 404 if the client is not authorized to access the metrics endpoint.
				if route.GetName() == "metrics" && !isAllowedToAccessMetricsEndpoint(r) {
					log.Warn("Authentication failed while accessing the metrics endpoint",
						zap.String("client_ip", request.FindClientIP(r)),
						zap.String("client_user_agent", r.UserAgent()),
						zap.String("client_remote_addr", r.RemoteAddr),
					)
					http.NotFound(w, r)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	return router
}

func isAllowedToAccessMetricsEndpoint(r *http.Request) bool {
	clientIP := request.FindClientIP(r)

	if config.Opts.MetricsUsername != "" && config.Opts.MetricsPassword != "" {
		username, password, authOK := r.BasicAuth()
		if !authOK {
			return false
		}

		if username == "" || password == "" {
			return false
		}

		if subtle.ConstantTimeCompare([]byte(username), []byte(config.Opts.MetricsUsername)) != 1 ||
			subtle.ConstantTimeCompare([]byte(password), []byte(config.Opts.MetricsPassword)) != 1 {
			log.Warn("Invalid metrics credentials provided",
				zap.String("client_ip", clientIP),
				zap.String("client_user_agent", r.UserAgent()),
			)
			return false
		}
	}

	remoteIP := net.ParseIP(clientIP)
	if remoteIP == nil {
		return false
	}

	for _, cidr := range config.Opts.MetricsAllowedNetworks {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			log.Error("Metrics allowed networks has an invalid CIDR",
				zap.String("cidr", cidr),
				zap.Error(err))
			continue
		}

		if network.Contains(remoteIP) {
			return true
		}
	}

	return false
}
