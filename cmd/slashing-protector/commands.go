package main

import (
	"context"
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/slashprotect/cmd/slashing-protector/flags"
	"github.com/prysmaticlabs/slashprotect/consensus-types/primitives"
	"github.com/prysmaticlabs/slashprotect/validator/db/iface"
	"github.com/prysmaticlabs/slashprotect/validator/node"
	"github.com/prysmaticlabs/slashprotect/validator/slashing-protection/local"
	"github.com/prysmaticlabs/slashprotect/validator/slashing-protection/signingrecord"
	"github.com/urfave/cli/v2"
)

// exitRefused is the exit code of a check command whose request was refused.
const exitRefused = 2

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "runs the slashing protection node with its metrics and health endpoints",
	Action: func(cliCtx *cli.Context) error {
		n, err := node.New(cliCtx)
		if err != nil {
			return err
		}
		n.Start()
		return nil
	},
}

var checkBlockCommand = &cli.Command{
	Name:  "check-block",
	Usage: "decides whether a block may be signed and records it if so",
	Flags: []cli.Flag{
		flags.PublicKeyFlag,
		flags.GenesisValidatorsRootFlag,
		flags.SlotFlag,
	},
	Action: func(cliCtx *cli.Context) error {
		slot := primitives.Slot(cliCtx.Uint64(flags.SlotFlag.Name))
		return withProtector(cliCtx, func(ctx context.Context, srv *local.Service, pubKey [48]byte, root [32]byte) (bool, error) {
			return srv.MaySignBlock(ctx, pubKey, root, slot)
		})
	},
}

var checkAttestationCommand = &cli.Command{
	Name:  "check-attestation",
	Usage: "decides whether an attestation may be signed and records it if so",
	Flags: []cli.Flag{
		flags.PublicKeyFlag,
		flags.GenesisValidatorsRootFlag,
		flags.SourceEpochFlag,
		flags.TargetEpochFlag,
	},
	Action: func(cliCtx *cli.Context) error {
		source := primitives.Epoch(cliCtx.Uint64(flags.SourceEpochFlag.Name))
		target := primitives.Epoch(cliCtx.Uint64(flags.TargetEpochFlag.Name))
		return withProtector(cliCtx, func(ctx context.Context, srv *local.Service, pubKey [48]byte, root [32]byte) (bool, error) {
			return srv.MaySignAttestation(ctx, pubKey, root, source, target)
		})
	},
}

var showCommand = &cli.Command{
	Name:  "show",
	Usage: "prints the signing record of a validator, or lists the validators with a record",
	Flags: []cli.Flag{
		flags.PublicKeyFlag,
	},
	Action: func(cliCtx *cli.Context) error {
		accessor, err := node.OpenAccessor(cliCtx)
		if err != nil {
			return err
		}
		defer func() {
			if err := accessor.Close(); err != nil {
				log.WithError(err).Error("Could not close signing record storage")
			}
		}()
		if !cliCtx.IsSet(flags.PublicKeyFlag.Name) {
			return listRecords(cliCtx.Context, cliCtx.App.Writer, accessor)
		}
		pubKey, err := flags.PublicKey(cliCtx)
		if err != nil {
			return err
		}
		return showRecord(cliCtx.Context, cliCtx.App.Writer, accessor, pubKey)
	},
}

type decideFunc func(ctx context.Context, srv *local.Service, pubKey [48]byte, root [32]byte) (bool, error)

// withProtector runs one decision against the configured storage and reports it.
func withProtector(cliCtx *cli.Context, decide decideFunc) error {
	pubKey, err := flags.PublicKey(cliCtx)
	if err != nil {
		return err
	}
	root, err := flags.GenesisValidatorsRoot(cliCtx)
	if err != nil {
		return err
	}
	accessor, err := node.OpenAccessor(cliCtx)
	if err != nil {
		return err
	}
	defer func() {
		if err := accessor.Close(); err != nil {
			log.WithError(err).Error("Could not close signing record storage")
		}
	}()
	srv, err := local.NewService(cliCtx.Context, &local.Config{
		Accessor:                          accessor,
		DisableGenesisValidatorsRootCheck: cliCtx.Bool(flags.DisableGenesisValidatorsRootCheckFlag.Name),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Stop(); err != nil {
			log.WithError(err).Error("Could not stop slashing protection")
		}
	}()

	allowed, err := decide(cliCtx.Context, srv, pubKey, root)
	if err != nil {
		return err
	}
	if !allowed {
		fmt.Fprintln(cliCtx.App.Writer, aurora.Red("REFUSED").Bold())
		return cli.Exit("signing would be slashable", exitRefused)
	}
	fmt.Fprintln(cliCtx.App.Writer, aurora.Green("ALLOWED").Bold())
	return nil
}

func showRecord(ctx context.Context, w io.Writer, accessor iface.RecordAccessor, pubKey [48]byte) error {
	enc, exists, err := accessor.Read(ctx, pubKey)
	if err != nil {
		return err
	}
	if !exists {
		fmt.Fprintf(w, "%s %#x\n", aurora.Yellow("No signing record for"), pubKey)
		return nil
	}
	// Decode first so that a damaged record is reported rather than printed.
	record, err := signingrecord.Unmarshal(enc)
	if err != nil {
		return errors.Wrapf(err, "signing record of %#x", pubKey)
	}
	out, err := signingrecord.Marshal(record)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %#x\n%s", aurora.Bold("Signing record of"), pubKey, out)
	return nil
}

func listRecords(ctx context.Context, w io.Writer, accessor iface.RecordAccessor) error {
	keys, err := accessor.PublicKeys(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %d\n", aurora.Bold("Validators with a signing record:"), len(keys))
	for _, k := range keys {
		fmt.Fprintf(w, "%#x\n", k)
	}
	return nil
}
