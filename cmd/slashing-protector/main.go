// Package main runs local slashing protection for validator keys: either as a
// long-running node, or as one-shot commands against the signing records.
package main

import (
	"os"

	"github.com/prysmaticlabs/slashprotect/cmd/slashing-protector/flags"
	cmdflags "github.com/prysmaticlabs/slashprotect/cmd/flags"
	"github.com/prysmaticlabs/slashprotect/io/logs"
	"github.com/prysmaticlabs/slashprotect/runtime/version"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
	_ "go.uber.org/automaxprocs"
)

var log = logrus.WithField("prefix", "main")

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "slashing-protector"
	app.Usage = "refuses block proposals and attestations that could get a validator slashed"
	app.Version = version.Version()
	appFlags := cmdflags.WrapFlags(flags.AppFlags())
	app.Flags = appFlags
	app.Before = before(appFlags)
	app.Commands = []*cli.Command{
		runCommand,
		checkBlockCommand,
		checkAttestationCommand,
		showCommand,
	}
	return app
}

func before(appFlags []cli.Flag) cli.BeforeFunc {
	return func(cliCtx *cli.Context) error {
		// Load any flags from file, if specified.
		if cliCtx.IsSet(flags.ConfigFileFlag.Name) {
			if err := altsrc.InitInputSourceWithContext(
				appFlags,
				altsrc.NewYamlSourceFromFlagFunc(flags.ConfigFileFlag.Name),
			)(cliCtx); err != nil {
				return err
			}
		}
		return configureLogging(cliCtx)
	}
}

func configureLogging(cliCtx *cli.Context) error {
	verbosity := cliCtx.String(flags.VerbosityFlag.Name)
	level, err := logrus.ParseLevel(verbosity)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	logFileName := cliCtx.String(flags.LogFileName.Name)
	if err := logs.ConfigureFormatter(cliCtx.String(flags.LogFormat.Name), logFileName != ""); err != nil {
		return err
	}
	if logFileName != "" {
		if err := logs.ConfigurePersistentLogging(logFileName); err != nil {
			log.WithError(err).Error("Failed to configuring logging to disk.")
		}
	}
	return nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
