package internal

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/VietDinh95/Notes/internal/middleware"
	"github.com/VietDinh95/Notes/internal/notes"
	"github.com/VietDinh95/Notes/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	switchboard    *notes.Switchboard
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	httpServer     *http.Server
}

func NewServer(switchboard *notes.Switchboard) *Server {
	promRegistry := prometheus.NewRegistry()
	return &Server{
		switchboard:    switchboard,
		metricsManager: metrics.NewManager("notes", "service", promRegistry),
		promRegistry:   promRegistry,
	}
}

func (s *Server) routerSetup() *mux.Router {
	router := mux.NewRouter()

	notesHandler := notes.NewHandler(s.switchboard, s.metricsManager)
	notesHandler.SetupRoutes(router)

	router.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	)).Methods("GET")

	router.Use(middleware.PanicRecovery(s.metricsManager))
	router.Use(middleware.LogRequest())
	router.Use(middleware.Cors())
	router.Use(middleware.RequestMetrics(s.metricsManager))

	return router
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("notes service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	s.metricsManager.GaugeLifeSignal.Set(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Errorf("server shutdown: %s", err)
		}
	}

	if closer, ok := s.switchboard.Repo().(interface{ Close() }); ok {
		closer.Close()
	}

	log.Debugln("server shut down")
}
