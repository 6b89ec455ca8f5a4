package watch

import (
	"context"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/0xPolygon/evm-tracecheck/command"
	"github.com/0xPolygon/evm-tracecheck/helper/common"
	"github.com/0xPolygon/evm-tracecheck/replay"
)

var params = &watchParams{}

func GetCommand() *cobra.Command {
	watchCmd := &cobra.Command{
		Use:           "watch",
		Short:         "Periodically replays the most recent block and reports trace health",
		PreRunE:       runPreRun,
		RunE:          runCommand,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setFlags(watchCmd)

	return watchCmd
}

func setFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&params.chain,
		command.ChainFlag,
		command.DefaultChainName,
		"the name of the chain to watch, used as the cache namespace",
	)
	cmd.Flags().StringVar(
		&params.rpcURL,
		command.RPCURLFlag,
		"",
		"the upstream JSON-RPC endpoint, defaults to "+replay.EnvRPCURL,
	)
	cmd.Flags().StringVar(
		&params.cacheDir,
		command.CacheDirFlag,
		"",
		"the directory for the upstream response cache, defaults to "+replay.EnvCacheDir,
	)
	cmd.Flags().StringVar(
		&params.engine,
		"engine",
		string(replay.TransferEngineType),
		"the registered execution engine to replay with",
	)
	cmd.Flags().DurationVar(
		&params.interval,
		command.IntervalFlag,
		mustParseDuration(command.DefaultWatchInterval),
		"the cadence of the periodic replay",
	)
	cmd.Flags().StringVar(
		&params.logLevel,
		command.LogLevelFlag,
		"INFO",
		"the log level",
	)
}

func mustParseDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		panic(err)
	}

	return d
}

func runPreRun(cmd *cobra.Command, _ []string) error {
	params.initEnv()

	return params.validate()
}

func runCommand(cmd *cobra.Command, _ []string) error {
	outputter := command.InitializeOutputter(cmd)

	logger := params.logger()

	runner, cleanup, err := params.newRunner(logger)
	if err != nil {
		outputter.SetError(err)
		outputter.WriteOutput()

		return err
	}

	defer cleanup()

	return watchLoop(
		outputter,
		runner,
		params.interval,
		params.env.CI,
		logger,
		common.GetTerminationSignalCh(),
	)
}

// watchLoop schedules replay rounds until a termination signal arrives.
// Failed rounds are reported through the logger so the surrounding
// automation can notify; in an automated environment the first failure
// ends the loop with the error and the process exits non-zero
func watchLoop(
	outputter command.OutputFormatter,
	runner resultRunner,
	interval time.Duration,
	ci bool,
	logger hclog.Logger,
	signalCh <-chan os.Signal,
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce := func() error {
		result, err := runner.run(context.Background())
		if err != nil {
			logger.Error("replay check failed", "err", err)

			return err
		}

		outputter.SetCommandResult(result)
		outputter.WriteOutput()

		return nil
	}

	if err := runOnce(); err != nil && ci {
		outputter.SetError(err)
		outputter.WriteOutput()

		return err
	}

	for {
		select {
		case <-ticker.C:
			if err := runOnce(); err != nil && ci {
				outputter.SetError(err)
				outputter.WriteOutput()

				return err
			}
		case <-signalCh:
			logger.Info("received termination signal, stopping watch")

			return nil
		}
	}
}
