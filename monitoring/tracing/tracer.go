// Package tracing sets up opencensus tracing with a Jaeger exporter.
package tracing

import (
	"contrib.go.opencensus.io/exporter/jaeger"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/slashprotect/io/logs"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

var log = logrus.WithField("prefix", "tracing")

// Config selects where spans go and how many are kept.
type Config struct {
	Enable         bool
	ProcessName    string
	Endpoint       string
	SampleFraction float64
}

// Setup applies the sampling configuration and registers the exporter. The
// returned function flushes and unregisters the exporter.
func Setup(cfg Config) (func(), error) {
	if !cfg.Enable {
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.NeverSample()})
		return func() {}, nil
	}

	if cfg.ProcessName == "" {
		return nil, errors.New("tracing service name cannot be empty")
	}
	if cfg.SampleFraction < 0 || cfg.SampleFraction > 1 {
		return nil, errors.Errorf("trace sample fraction must be between 0 and 1, got %f", cfg.SampleFraction)
	}

	trace.ApplyConfig(trace.Config{DefaultSampler: trace.ProbabilitySampler(cfg.SampleFraction)})

	log.Infof("Starting Jaeger exporter endpoint at address = %s", logs.MaskCredentialsLogging(cfg.Endpoint))
	exporter, err := jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: cfg.Endpoint,
		Process: jaeger.Process{
			ServiceName: cfg.ProcessName,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create jaeger exporter")
	}
	trace.RegisterExporter(exporter)

	return func() {
		exporter.Flush()
		trace.UnregisterExporter(exporter)
	}, nil
}
