// Package flags defines the command line flags of the slashing-protector binary.
package flags

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	cmdflags "github.com/prysmaticlabs/slashprotect/cmd/flags"
	fieldparams "github.com/prysmaticlabs/slashprotect/config/fieldparams"
	"github.com/prysmaticlabs/slashprotect/encoding/bytesutil"
	"github.com/prysmaticlabs/slashprotect/io/logs"
	"github.com/prysmaticlabs/slashprotect/validator/db"
	"github.com/urfave/cli/v2"
)

var (
	// DataDirFlag defines the directory holding the signing records.
	DataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the signing records",
		Value: cmdflags.DefaultDataDir(),
	}
	// StorageBackendFlag selects how signing records are stored.
	StorageBackendFlag = newStorageBackendFlag()
	// DisableGenesisValidatorsRootCheckFlag lets signing proceed over records written for another chain.
	DisableGenesisValidatorsRootCheckFlag = &cli.BoolFlag{
		Name: "disable-genesis-validators-root-check",
		Usage: "Do not refuse to sign when a validator's signing record was written for a different " +
			"genesis validators root. Only use this if you know the stored record is safe to reuse.",
	}
	// VerbosityFlag defines the logrus configuration.
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info=default, warn, error, fatal, panic)",
		Value: "info",
	}
	// LogFormat specifies the log output format.
	LogFormat = newLogFormatFlag()
	// LogFileName specifies the log output file name.
	LogFileName = &cli.StringFlag{
		Name:  "log-file",
		Usage: "Specify log file name, relative or absolute",
	}
	// ConfigFileFlag specifies the filepath to load flag values.
	ConfigFileFlag = &cli.StringFlag{
		Name:  "config-file",
		Usage: "The filepath to a yaml file with flag values",
	}
	// MonitoringHostFlag defines the host used to serve prometheus metrics.
	MonitoringHostFlag = &cli.StringFlag{
		Name:  "monitoring-host",
		Usage: "Host used for listening and responding metrics for prometheus.",
		Value: "127.0.0.1",
	}
	// MonitoringPortFlag defines the http port used to serve prometheus metrics.
	MonitoringPortFlag = &cli.IntFlag{
		Name:  "monitoring-port",
		Usage: "Port used to listening and respond metrics for prometheus.",
		Value: 8082,
	}
	// DisableMonitoringFlag defines a flag to disable the metrics collection.
	DisableMonitoringFlag = &cli.BoolFlag{
		Name:  "disable-monitoring",
		Usage: "Disable monitoring service.",
	}
	// EnableTracingFlag defines a flag to enable request tracing.
	EnableTracingFlag = &cli.BoolFlag{
		Name:  "enable-tracing",
		Usage: "Enable request tracing.",
	}
	// TracingProcessNameFlag defines a flag to specify a process name.
	TracingProcessNameFlag = &cli.StringFlag{
		Name:  "tracing-process-name",
		Usage: "The name to apply to tracing tag \"process_name\"",
		Value: "slashing-protector",
	}
	// TracingEndpointFlag flag defines the http endpoint for serving traces to Jaeger.
	TracingEndpointFlag = &cli.StringFlag{
		Name:  "tracing-endpoint",
		Usage: "Tracing endpoint defines where slashing protection traces are exposed to Jaeger.",
		Value: "http://127.0.0.1:14268/api/traces",
	}
	// TraceSampleFractionFlag defines a flag to indicate what fraction of decisions
	// are sampled for tracing.
	TraceSampleFractionFlag = &cli.Float64Flag{
		Name:  "trace-sample-fraction",
		Usage: "Indicate what fraction of signing decisions are sampled for tracing.",
		Value: 0.20,
	}
)

// Flags of the one-shot commands.
var (
	// PublicKeyFlag is the hex encoded 48-byte BLS public key of a validator.
	PublicKeyFlag = &cli.StringFlag{
		Name:  "public-key",
		Usage: "Hex encoded validator public key",
	}
	// GenesisValidatorsRootFlag is the hex encoded genesis validators root of the chain being signed for.
	GenesisValidatorsRootFlag = &cli.StringFlag{
		Name:     "genesis-validators-root",
		Usage:    "Hex encoded genesis validators root of the chain",
		Required: true,
	}
	// SlotFlag is the slot of the block to sign.
	SlotFlag = &cli.Uint64Flag{
		Name:     "slot",
		Usage:    "Slot of the block to sign",
		Required: true,
	}
	// SourceEpochFlag is the source epoch of the attestation to sign.
	SourceEpochFlag = &cli.Uint64Flag{
		Name:     "source-epoch",
		Usage:    "Source epoch of the attestation to sign",
		Required: true,
	}
	// TargetEpochFlag is the target epoch of the attestation to sign.
	TargetEpochFlag = &cli.Uint64Flag{
		Name:     "target-epoch",
		Usage:    "Target epoch of the attestation to sign",
		Required: true,
	}
)

func newStorageBackendFlag() *cli.GenericFlag {
	return cmdflags.EnumValue{
		Name:  "storage-backend",
		Usage: "Signing record storage: one YAML file per validator, or a single bolt database",
		Enum:  db.Backends(),
		Value: string(db.FileBackend),
	}.GenericFlag()
}

func newLogFormatFlag() *cli.GenericFlag {
	return cmdflags.EnumValue{
		Name:  "log-format",
		Usage: "Specify log formatting",
		Enum:  logs.Formats(),
		Value: logs.Formats()[0],
	}.GenericFlag()
}

// AppFlags returns the flags shared by every command, which may be loaded from
// --config-file. Enum flags keep their parsed value, so every app gets fresh ones.
func AppFlags() []cli.Flag {
	return []cli.Flag{
		DataDirFlag,
		newStorageBackendFlag(),
		DisableGenesisValidatorsRootCheckFlag,
		VerbosityFlag,
		newLogFormatFlag(),
		LogFileName,
		ConfigFileFlag,
		MonitoringHostFlag,
		MonitoringPortFlag,
		DisableMonitoringFlag,
		EnableTracingFlag,
		TracingProcessNameFlag,
		TracingEndpointFlag,
		TraceSampleFractionFlag,
	}
}

// PublicKey parses the --public-key flag.
func PublicKey(cliCtx *cli.Context) ([fieldparams.BLSPubkeyLength]byte, error) {
	raw, err := decodeHex(cliCtx.String(PublicKeyFlag.Name), fieldparams.BLSPubkeyLength)
	if err != nil {
		return [fieldparams.BLSPubkeyLength]byte{}, errors.Wrapf(err, "invalid --%s", PublicKeyFlag.Name)
	}
	return bytesutil.ToBytes48(raw), nil
}

// GenesisValidatorsRoot parses the --genesis-validators-root flag.
func GenesisValidatorsRoot(cliCtx *cli.Context) ([fieldparams.RootLength]byte, error) {
	raw, err := decodeHex(cliCtx.String(GenesisValidatorsRootFlag.Name), fieldparams.RootLength)
	if err != nil {
		return [fieldparams.RootLength]byte{}, errors.Wrapf(err, "invalid --%s", GenesisValidatorsRootFlag.Name)
	}
	return bytesutil.ToBytes32(raw), nil
}

// decodeHex accepts the value with or without a 0x prefix.
func decodeHex(s string, length int) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	raw, err := hexutil.Decode(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != length {
		return nil, errors.Errorf("got %d bytes, want %d", len(raw), length)
	}
	return raw, nil
}
