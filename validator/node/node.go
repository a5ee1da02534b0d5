// Package node is the main process which handles the lifecycle of
// the runtime services in a slashing protection process, gracefully shutting
// everything down upon close.
package node

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/slashprotect/cmd/slashing-protector/flags"
	"github.com/prysmaticlabs/slashprotect/io/file"
	"github.com/prysmaticlabs/slashprotect/monitoring/prometheus"
	"github.com/prysmaticlabs/slashprotect/monitoring/tracing"
	"github.com/prysmaticlabs/slashprotect/runtime"
	"github.com/prysmaticlabs/slashprotect/runtime/prereqs"
	"github.com/prysmaticlabs/slashprotect/runtime/version"
	"github.com/prysmaticlabs/slashprotect/validator/db"
	"github.com/prysmaticlabs/slashprotect/validator/db/iface"
	slashingprotection "github.com/prysmaticlabs/slashprotect/validator/slashing-protection"
	"github.com/prysmaticlabs/slashprotect/validator/slashing-protection/local"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "node")

// ProtectorNode defines an instance of the slashing protector that manages
// the entire lifecycle of services attached to it.
type ProtectorNode struct {
	cliCtx        *cli.Context
	services      *runtime.ServiceRegistry // Lifecycle and service store.
	accessor      iface.RecordAccessor
	stopTracing   func()
	lock          sync.RWMutex
	stop          chan struct{} // Channel to wait for termination notifications.
	closeOnce     sync.Once
	metricsServer *prometheus.Service
}

// New creates a slashing protection node from the command line configuration.
func New(cliCtx *cli.Context) (*ProtectorNode, error) {
	prereqs.WarnIfPlatformNotSupported(cliCtx.Context)

	stopTracing, err := tracing.Setup(tracing.Config{
		Enable:         cliCtx.Bool(flags.EnableTracingFlag.Name),
		ProcessName:    cliCtx.String(flags.TracingProcessNameFlag.Name),
		Endpoint:       cliCtx.String(flags.TracingEndpointFlag.Name),
		SampleFraction: cliCtx.Float64(flags.TraceSampleFractionFlag.Name),
	})
	if err != nil {
		return nil, err
	}

	accessor, err := OpenAccessor(cliCtx)
	if err != nil {
		stopTracing()
		return nil, err
	}

	registry := runtime.NewServiceRegistry()
	n := &ProtectorNode{
		cliCtx:      cliCtx,
		services:    registry,
		accessor:    accessor,
		stopTracing: stopTracing,
		stop:        make(chan struct{}),
	}

	if err := n.registerProtectorService(); err != nil {
		n.release()
		return nil, err
	}
	if !cliCtx.Bool(flags.DisableMonitoringFlag.Name) {
		if err := n.registerPrometheusService(); err != nil {
			n.release()
			return nil, err
		}
	}
	return n, nil
}

// OpenAccessor opens the signing record storage selected on the command line.
func OpenAccessor(cliCtx *cli.Context) (iface.RecordAccessor, error) {
	rawDataDir := strings.TrimSpace(cliCtx.String(flags.DataDirFlag.Name))
	if rawDataDir == "" {
		return nil, errors.New("could not determine a data directory, please specify --" + flags.DataDirFlag.Name)
	}
	dataDir, err := file.ExpandPath(rawDataDir)
	if err != nil {
		return nil, errors.Wrap(err, "could not expand data directory")
	}
	backend := db.Backend(cliCtx.String(flags.StorageBackendFlag.Name))
	if backend == db.FileBackend || backend == "" {
		if err := prereqs.CheckDirectorySync(); err != nil {
			return nil, err
		}
	}
	log.WithFields(logrus.Fields{
		"databasePath": dataDir,
		"backend":      backend,
	}).Info("Opening signing records")
	return db.Open(cliCtx.Context, backend, dataDir)
}

// Start every service in the node and block until the node is closed.
func (n *ProtectorNode) Start() {
	n.lock.Lock()

	log.WithField("version", version.Version()).Info("Starting slashing protection node")

	n.services.StartAll()

	stop := n.stop
	n.lock.Unlock()

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		select {
		case <-sigc:
		case <-stop:
			return
		}
		log.Info("Got interrupt, shutting down...")
		go n.Close()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.WithField("times", i-1).Info("Already shutting down, interrupt more to panic.")
			}
		}
		panic("Panic closing the slashing protection node")
	}()

	// Wait for stop channel to be closed.
	<-stop
}

// Close handles graceful shutdown of the system. In-flight signing decisions
// complete before the storage is closed.
func (n *ProtectorNode) Close() {
	n.closeOnce.Do(func() {
		n.lock.Lock()
		defer n.lock.Unlock()

		if err := n.services.StopAll(); err != nil {
			log.WithError(err).Error("Could not stop all services")
		}
		n.release()
		log.Info("Stopping slashing protection node")

		close(n.stop)
	})
}

// Protector returns the registered slashing protection service.
func (n *ProtectorNode) Protector() (slashingprotection.Protector, error) {
	var protector *local.Service
	if err := n.services.FetchService(&protector); err != nil {
		return nil, err
	}
	return protector, nil
}

// Statuses reports the health of every registered service.
func (n *ProtectorNode) Statuses() map[string]error {
	return n.services.Statuses()
}

func (n *ProtectorNode) release() {
	if err := n.accessor.Close(); err != nil {
		log.WithError(err).Error("Could not close signing record storage")
	}
	n.stopTracing()
}

func (n *ProtectorNode) registerProtectorService() error {
	protector, err := local.NewService(context.Background(), &local.Config{
		Accessor:                          n.accessor,
		DisableGenesisValidatorsRootCheck: n.cliCtx.Bool(flags.DisableGenesisValidatorsRootCheckFlag.Name),
	})
	if err != nil {
		return errors.Wrap(err, "could not initialize slashing protection service")
	}
	return n.services.RegisterService(protector)
}

func (n *ProtectorNode) registerPrometheusService() error {
	n.metricsServer = prometheus.NewService(
		fmt.Sprintf("%s:%d", n.cliCtx.String(flags.MonitoringHostFlag.Name), n.cliCtx.Int(flags.MonitoringPortFlag.Name)),
		n.services,
	)
	logrus.AddHook(prometheus.NewLogrusCollector())
	return n.services.RegisterService(n.metricsServer)
}
