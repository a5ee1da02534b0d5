// Package runtime manages the lifecycle of the long-running services hosted by
// the slashing protection node.
package runtime

import (
	"fmt"
	"reflect"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "registry")

// Service is a struct that can be registered into a ServiceRegistry for
// easy dependency management.
type Service interface {
	// Start spawns any goroutines required by the service.
	Start()
	// Stop terminates all goroutines belonging to the service,
	// blocking until they are all terminated.
	Stop() error
	// Status returns error if the service is not considered healthy.
	Status() error
}

// ServiceRegistry keeps services in registration order. Services are started in
// that order and stopped in reverse, so that a service is stopped before the
// services it depends on.
type ServiceRegistry struct {
	services map[reflect.Type]Service
	order    []reflect.Type
}

// NewServiceRegistry starts a registry instance for convenience.
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[reflect.Type]Service),
	}
}

// RegisterService adds a service to the registry. Only one service per concrete type is allowed.
func (s *ServiceRegistry) RegisterService(service Service) error {
	kind := reflect.TypeOf(service)
	if _, exists := s.services[kind]; exists {
		return fmt.Errorf("service already exists: %v", kind)
	}
	s.services[kind] = service
	s.order = append(s.order, kind)
	return nil
}

// StartAll starts every registered service in registration order.
func (s *ServiceRegistry) StartAll() {
	log.WithField("count", len(s.order)).Debug("Starting services")
	for _, kind := range s.order {
		log.Debugf("Starting service type %v", kind)
		go s.services[kind].Start()
	}
}

// StopAll stops every service in reverse registration order. A failing service
// does not prevent the remaining ones from being stopped; the first error is returned.
func (s *ServiceRegistry) StopAll() error {
	var firstErr error
	for i := len(s.order) - 1; i >= 0; i-- {
		kind := s.order[i]
		if err := s.services[kind].Stop(); err != nil {
			log.WithError(err).Errorf("Could not stop the following service: %v", kind)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Statuses returns the health of each registered service keyed by its type name.
func (s *ServiceRegistry) Statuses() map[string]error {
	m := make(map[string]error, len(s.order))
	for _, kind := range s.order {
		m[kind.String()] = s.services[kind].Status()
	}
	return m
}

// FetchService takes in a struct pointer and sets the value of that pointer
// to a service currently stored in the service registry.
func (s *ServiceRegistry) FetchService(service interface{}) error {
	if reflect.TypeOf(service).Kind() != reflect.Ptr {
		return fmt.Errorf("input must be of pointer type, received value type instead: %T", service)
	}
	element := reflect.ValueOf(service).Elem()
	if running, ok := s.services[element.Type()]; ok {
		element.Set(reflect.ValueOf(running))
		return nil
	}
	return fmt.Errorf("unknown service: %T", service)
}
