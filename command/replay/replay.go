package replay

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/0xPolygon/evm-tracecheck/command"
	"github.com/0xPolygon/evm-tracecheck/replay"
)

var params = &replayParams{}

func GetCommand() *cobra.Command {
	replayCmd := &cobra.Command{
		Use:           "replay",
		Short:         "Replays a block through the execution engine and classifies its trace",
		PreRunE:       runPreRun,
		RunE:          runCommand,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setFlags(replayCmd)

	return replayCmd
}

func setFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&params.chain,
		command.ChainFlag,
		command.DefaultChainName,
		"the name of the chain the block belongs to, used as the cache namespace",
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
	cmd.Flags().Uint64Var(
		&params.blockNumber,
		command.BlockFlag,
		0,
		"the number of the block to replay",
	)
	cmd.Flags().BoolVar(
		&params.latest,
		"latest",
		false,
		"replay the most recent block instead of --block",
	)
	cmd.Flags().BoolVar(
		&params.captureMemory,
		command.MemoryFlag,
		false,
		"capture a memory snapshot on every step",
	)
	cmd.Flags().BoolVar(
		&params.captureStack,
		command.StackFlag,
		false,
		"capture a stack snapshot on every step",
	)
	cmd.Flags().StringVar(
		&params.logLevel,
		command.LogLevelFlag,
		"INFO",
		"the log level",
	)

	cmd.MarkFlagsMutuallyExclusive(command.BlockFlag, "latest")
}

func runPreRun(cmd *cobra.Command, _ []string) error {
	params.blockSet = cmd.Flags().Changed(command.BlockFlag)

	params.initEnv()

	return params.validate()
}

func runCommand(cmd *cobra.Command, _ []string) error {
	outputter := command.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	logger := params.logger()

	replayer, responseCache, err := params.newReplayer(logger)
	if err != nil {
		outputter.SetError(err)

		return err
	}

	defer closeCache(responseCache)

	ctx := context.Background()

	var (
		number = params.blockNumber
		result *ReplayResult
	)

	if params.latest {
		t, latest, err := replayer.ReplayLatest(ctx)
		if err != nil {
			outputter.SetError(err)

			return err
		}

		number = latest

		result, err = NewReplayResult(params.chain, number, t)
		if err != nil {
			outputter.SetError(err)

			return err
		}
	} else {
		t, err := replayer.ReplayBlock(ctx, number)
		if err != nil {
			outputter.SetError(err)

			return err
		}

		result, err = NewReplayResult(params.chain, number, t)
		if err != nil {
			outputter.SetError(err)

			return err
		}
	}

	outputter.SetCommandResult(result)

	return nil
}
