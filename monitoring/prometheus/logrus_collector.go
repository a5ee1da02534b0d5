package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

const (
	prefixKey     = "prefix"
	defaultPrefix = "global"
)

var (
	supportedLevels = []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
	}
	logEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "log_entries_total",
		Help: "Total number of log messages.",
	}, []string{"level", "prefix"})
)

// LogrusCollector is a logrus hook counting log entries per level and per
// package prefix, so that refused signatures and storage failures show up as
// warn and error rates.
type LogrusCollector struct {
	counterVec *prometheus.CounterVec
}

// NewLogrusCollector returns a hook backed by the shared log_entries_total counter.
func NewLogrusCollector() *LogrusCollector {
	return &LogrusCollector{
		counterVec: logEntriesTotal,
	}
}

// Fire is called on every log call.
func (hook *LogrusCollector) Fire(entry *logrus.Entry) error {
	prefix := defaultPrefix
	switch v := entry.Data[prefixKey].(type) {
	case nil:
	case string:
		prefix = v
	default:
		prefix = fmt.Sprint(v)
	}
	hook.counterVec.WithLabelValues(entry.Level.String(), prefix).Inc()
	return nil
}

// Levels returns the levels counted by this hook.
func (*LogrusCollector) Levels() []logrus.Level {
	return supportedLevels
}
