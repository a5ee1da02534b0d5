// Package prometheus serves the metrics and health endpoints of the slashing
// protection node.
package prometheus

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"runtime/pprof"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prysmaticlabs/slashprotect/runtime"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "prometheus")

// Service provides Prometheus metrics via the /metrics route. This route will
// show all the metrics registered with the Prometheus DefaultRegisterer.
type Service struct {
	server      *http.Server
	svcRegistry *runtime.ServiceRegistry

	lock       sync.RWMutex
	failStatus error
	listenAddr net.Addr
	started    chan struct{}
}

// NewService sets up a new instance for a given address host:port.
// An empty host will match with any IP so an address like ":2121" is perfectly acceptable.
func NewService(addr string, svcRegistry *runtime.ServiceRegistry) *Service {
	s := &Service{svcRegistry: svcRegistry, started: make(chan struct{})}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.healthzHandler)
	mux.HandleFunc("/goroutinez", s.goroutinezHandler)

	s.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: time.Second}

	return s
}

func (s *Service) healthzHandler(w http.ResponseWriter, r *http.Request) {
	response := generatedResponse{}

	// Call all services in the registry.
	// if any are not OK, write 500
	// print the statuses of all services.
	statuses := map[string]string{}
	hasError := false
	if s.svcRegistry != nil {
		for k, v := range s.svcRegistry.Statuses() {
			if v == nil {
				statuses[k] = "OK"
				continue
			}
			hasError = true
			statuses[k] = "ERROR " + v.Error()
		}
	}

	names := make([]string, 0, len(statuses))
	for k := range statuses {
		names = append(names, k)
	}
	sort.Strings(names)
	var buf bytes.Buffer
	for _, k := range names {
		if _, err := buf.WriteString(fmt.Sprintf("%s: %s\n", k, statuses[k])); err != nil {
			hasError = true
		}
	}
	response.Data = statuses
	response.text = buf.Bytes()

	status := http.StatusOK
	if hasError {
		status = http.StatusInternalServerError
		response.Err = "one or more services are unhealthy"
	}
	if err := writeResponse(w, r, status, response); err != nil {
		log.Errorf("Could not write healthz body %v", err)
	}
}

func (*Service) goroutinezHandler(w http.ResponseWriter, _ *http.Request) {
	stack := debug.Stack()
	if _, err := w.Write(stack); err != nil {
		log.WithError(err).Error("Failed to write goroutines stack")
	}
	if err := pprof.Lookup("goroutine").WriteTo(w, 2); err != nil {
		log.WithError(err).Error("Failed to write pprof goroutines")
	}
}

// Start the prometheus service.
func (s *Service) Start() {
	log.WithField("endpoint", s.server.Addr).Info("Starting service")
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		log.Errorf("Could not listen to host:port :%s: %v", s.server.Addr, err)
		s.setFailStatus(err)
		close(s.started)
		return
	}
	s.lock.Lock()
	s.listenAddr = ln.Addr()
	s.lock.Unlock()
	close(s.started)

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Errorf("Could not serve on host:port :%s: %v", s.server.Addr, err)
			s.setFailStatus(err)
		}
	}()
}

// Addr blocks until Start has run and returns the bound address, or nil if
// listening failed.
func (s *Service) Addr() net.Addr {
	<-s.started
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.listenAddr
}

// Stop the service gracefully.
func (s *Service) Stop() error {
	log.Info("Stopping service")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Status checks for any service failure conditions.
func (s *Service) Status() error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.failStatus
}

func (s *Service) setFailStatus(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failStatus = err
}
