package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"x720/internal/sensor"
	"x720/internal/x720"
)

type Sensors interface {
	Entities() []sensor.Entity
}

type Gauge interface {
	State() x720.State
}

type SensorResponse struct {
	Name  string   `json:"name"`
	State *float64 `json:"state"`
	Unit  string   `json:"unit_of_measurement"`
	Icon  string   `json:"icon"`
}

type StatusResponse struct {
	Name    string           `json:"name"`
	State   string           `json:"state"`
	Sensors []SensorResponse `json:"sensors"`
}

type Server struct {
	name    string
	sensors Sensors
	gauge   Gauge
	log     log.FieldLogger
}

func New(name string, sensors Sensors, gauge Gauge, logger log.FieldLogger) *Server {
	return &Server{
		name:    name,
		sensors: sensors,
		gauge:   gauge,
		log:     logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.rootHandler)
	mux.HandleFunc("GET /healthz", s.healthHandler)
	return mux
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Infof("Listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Name:    s.name,
		State:   s.gauge.State().String(),
		Sensors: []SensorResponse{},
	}
	for _, e := range s.sensors.Entities() {
		resp.Sensors = append(resp.Sensors, SensorResponse{
			Name:  e.Name,
			State: e.State,
			Unit:  e.Unit,
			Icon:  e.Icon(),
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	state := s.gauge.State()
	code := http.StatusOK
	if state != x720.Ready {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, map[string]string{"state": state.String()})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("Failed to encode response")
	}
}
