// Package local implements slashing protection backed by a signing record per
// validator on the local disk.
package local

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/slashprotect/async"
	fieldparams "github.com/prysmaticlabs/slashprotect/config/fieldparams"
	"github.com/prysmaticlabs/slashprotect/consensus-types/primitives"
	"github.com/prysmaticlabs/slashprotect/encoding/bytesutil"
	"github.com/prysmaticlabs/slashprotect/validator/db/iface"
	slashingprotection "github.com/prysmaticlabs/slashprotect/validator/slashing-protection"
	"github.com/prysmaticlabs/slashprotect/validator/slashing-protection/signingrecord"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

var log = logrus.WithField("prefix", "local-slashing-protection")

const metricsRefreshInterval = 30 * time.Second

var _ slashingprotection.Protector = (*Service)(nil)

// Service to manage validator slashing protection. Every decision for a
// validator runs under that validator's lock: read the record, evaluate, and on
// success durably write the new record before answering.
type Service struct {
	ctx                               context.Context
	cancel                            context.CancelFunc
	store                             *recordStore
	locks                             *lockRegistry
	disableGenesisValidatorsRootCheck bool

	stopLock sync.RWMutex
	stopped  bool
	inFlight sync.WaitGroup
}

// Config for the slashing protection service.
type Config struct {
	Accessor iface.RecordAccessor
	// DisableGenesisValidatorsRootCheck lets a request proceed when the stored record
	// was written for a different genesis validators root. The stored root is kept.
	DisableGenesisValidatorsRootCheck bool
}

// NewService creates a new slashing protection service for the service registry.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	if cfg == nil || cfg.Accessor == nil {
		return nil, errors.New("no signing record accessor provided")
	}
	ctx, cancel := context.WithCancel(ctx)
	srv := &Service{
		ctx:                               ctx,
		cancel:                            cancel,
		store:                             &recordStore{accessor: cfg.Accessor},
		locks:                             newLockRegistry(),
		disableGenesisValidatorsRootCheck: cfg.DisableGenesisValidatorsRootCheck,
	}
	if srv.disableGenesisValidatorsRootCheck {
		log.Warn("Genesis validators root check is disabled. Signing records of another chain will not stop signing")
	}
	return srv, nil
}

// Start the slashing protection service.
func (s *Service) Start() {
	log.WithField("path", s.store.accessor.DatabasePath()).Info("Starting local slashing protection")
	async.RunEvery(s.ctx, metricsRefreshInterval, s.updateMetrics)
}

// Stop refuses new requests and waits for in-flight decisions to complete.
func (s *Service) Stop() error {
	s.stopLock.Lock()
	s.stopped = true
	s.stopLock.Unlock()

	s.inFlight.Wait()
	s.cancel()
	return nil
}

// Status of the slashing protection service.
func (s *Service) Status() error {
	s.stopLock.RLock()
	defer s.stopLock.RUnlock()
	if s.stopped {
		return slashingprotection.ErrServiceStopped
	}
	return nil
}

// MaySignBlock returns true, nil once it is safe to sign a block at slot and the
// slot has been durably recorded. If ctx ends first the decision still completes
// in the background, but the caller gets the context error and must not sign.
func (s *Service) MaySignBlock(
	ctx context.Context,
	pubKey [fieldparams.BLSPubkeyLength]byte,
	genesisValidatorsRoot [fieldparams.RootLength]byte,
	slot primitives.Slot,
) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "local.MaySignBlock")
	defer span.End()
	span.AddAttributes(trace.Int64Attribute("slot", int64(slot)))

	return s.maySignBlock(trace.NewContext(s.ctx, span), pubKey, genesisValidatorsRoot, slot).Await(ctx)
}

// MaySignBlockAsync is the non-blocking form of MaySignBlock.
func (s *Service) MaySignBlockAsync(
	pubKey [fieldparams.BLSPubkeyLength]byte,
	genesisValidatorsRoot [fieldparams.RootLength]byte,
	slot primitives.Slot,
) *async.Future[bool] {
	return s.maySignBlock(s.ctx, pubKey, genesisValidatorsRoot, slot)
}

// MaySignAttestation returns true, nil once it is safe to sign an attestation
// from sourceEpoch to targetEpoch and both have been durably recorded.
func (s *Service) MaySignAttestation(
	ctx context.Context,
	pubKey [fieldparams.BLSPubkeyLength]byte,
	genesisValidatorsRoot [fieldparams.RootLength]byte,
	sourceEpoch, targetEpoch primitives.Epoch,
) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "local.MaySignAttestation")
	defer span.End()
	span.AddAttributes(
		trace.Int64Attribute("sourceEpoch", int64(sourceEpoch)),
		trace.Int64Attribute("targetEpoch", int64(targetEpoch)),
	)

	fut := s.maySignAttestation(trace.NewContext(s.ctx, span), pubKey, genesisValidatorsRoot, sourceEpoch, targetEpoch)
	return fut.Await(ctx)
}

// MaySignAttestationAsync is the non-blocking form of MaySignAttestation.
func (s *Service) MaySignAttestationAsync(
	pubKey [fieldparams.BLSPubkeyLength]byte,
	genesisValidatorsRoot [fieldparams.RootLength]byte,
	sourceEpoch, targetEpoch primitives.Epoch,
) *async.Future[bool] {
	return s.maySignAttestation(s.ctx, pubKey, genesisValidatorsRoot, sourceEpoch, targetEpoch)
}

func (s *Service) maySignBlock(
	ctx context.Context,
	pubKey [fieldparams.BLSPubkeyLength]byte,
	genesisValidatorsRoot [fieldparams.RootLength]byte,
	slot primitives.Slot,
) *async.Future[bool] {
	return s.submit(ctx, decisionRequest{
		duty:                  dutyBlock,
		pubKey:                pubKey,
		genesisValidatorsRoot: genesisValidatorsRoot,
		fields:                logrus.Fields{"slot": slot},
		rule: func(prev *signingrecord.SigningRecord) signingrecord.Decision {
			return signingrecord.MaySignBlock(prev, genesisValidatorsRoot, slot)
		},
	})
}

func (s *Service) maySignAttestation(
	ctx context.Context,
	pubKey [fieldparams.BLSPubkeyLength]byte,
	genesisValidatorsRoot [fieldparams.RootLength]byte,
	sourceEpoch, targetEpoch primitives.Epoch,
) *async.Future[bool] {
	return s.submit(ctx, decisionRequest{
		duty:                  dutyAttestation,
		pubKey:                pubKey,
		genesisValidatorsRoot: genesisValidatorsRoot,
		fields:                logrus.Fields{"sourceEpoch": sourceEpoch, "targetEpoch": targetEpoch},
		rule: func(prev *signingrecord.SigningRecord) signingrecord.Decision {
			return signingrecord.MaySignAttestation(prev, genesisValidatorsRoot, sourceEpoch, targetEpoch)
		},
	})
}

type decisionRequest struct {
	duty                  string
	pubKey                [fieldparams.BLSPubkeyLength]byte
	genesisValidatorsRoot [fieldparams.RootLength]byte
	fields                logrus.Fields
	rule                  func(prev *signingrecord.SigningRecord) signingrecord.Decision
}

// submit runs the decision on its own goroutine, so that a caller giving up on
// the result cannot interrupt a write in progress.
func (s *Service) submit(ctx context.Context, req decisionRequest) *async.Future[bool] {
	s.stopLock.RLock()
	if s.stopped {
		s.stopLock.RUnlock()
		return async.Resolved(false, slashingprotection.ErrServiceStopped)
	}
	s.inFlight.Add(1)
	s.stopLock.RUnlock()

	return async.Go(func() (bool, error) {
		defer s.inFlight.Done()
		allowed, err := s.decide(ctx, req)
		s.recordOutcome(req, allowed, err)
		return allowed, err
	})
}

func (s *Service) decide(ctx context.Context, req decisionRequest) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "local.decide")
	defer span.End()

	start := time.Now()
	handle, err := s.locks.acquire(ctx, req.pubKey)
	if err != nil {
		return false, errors.Wrapf(err, "could not acquire lock for public key %#x", bytesutil.Trunc(req.pubKey[:]))
	}
	// The lock is released before the future resolves.
	defer handle.Unlock()
	lockWaitSeconds.WithLabelValues(req.duty).Observe(time.Since(start).Seconds())

	prev, err := s.store.read(ctx, req.pubKey)
	if err != nil {
		return false, err
	}
	if err := signingrecord.CheckGenesisValidatorsRoot(prev, req.genesisValidatorsRoot); err != nil {
		if !s.disableGenesisValidatorsRootCheck {
			return false, errors.Wrapf(err, "public key %#x", bytesutil.Trunc(req.pubKey[:]))
		}
		s.logger(req).WithError(err).Warn("Ignoring genesis validators root mismatch")
	}

	decision := req.rule(prev)
	if !decision.Allowed() {
		s.logger(req).WithField("reason", decision.Reason()).Warn("Refusing to sign slashable " + req.duty)
		return false, nil
	}
	if err := s.store.write(ctx, req.pubKey, decision.Record()); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) recordOutcome(req decisionRequest, allowed bool, err error) {
	switch {
	case err != nil:
		signingDecisionsTotal.WithLabelValues(req.duty, resultError).Inc()
		s.logger(req).WithError(err).Error("Could not complete slashing protection check")
	case allowed:
		signingDecisionsTotal.WithLabelValues(req.duty, resultAllowed).Inc()
		s.logger(req).Debug("Signing allowed")
	default:
		signingDecisionsTotal.WithLabelValues(req.duty, resultDenied).Inc()
	}
}

func (s *Service) logger(req decisionRequest) *logrus.Entry {
	return log.WithField("pubKey", bytesutil.Trunc(req.pubKey[:])).WithFields(req.fields)
}

func (s *Service) updateMetrics() {
	trackedValidatorsGauge.Set(float64(s.locks.len()))
}
