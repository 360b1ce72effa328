package deployer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/omxlabs/omx-deployer/pkg/deployer/broadcaster"
	"github.com/omxlabs/omx-deployer/pkg/deployer/metrics"
	"github.com/omxlabs/omx-deployer/pkg/deployer/pipeline"
	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
	"github.com/omxlabs/omx-deployer/pkg/deployer/version"
	"github.com/omxlabs/omx-deployer/pkg/env"
	oplog "github.com/omxlabs/omx-deployer/pkg/service/log"
)

type ApplyConfig struct {
	Intent      *state.Intent
	DryRun      bool
	Parallelism int
	MaxRetries  int
	Tx          broadcaster.TxConfig
	Metrics     metrics.CLIConfig
	Logger      log.Logger

	// Runner and ArtifactsFS default to the node client subprocess and the
	// OS filesystem.
	Runner      broadcaster.Runner
	ArtifactsFS afero.Fs
}

func (a *ApplyConfig) Check() error {
	if a.Intent == nil {
		return errors.New("intent must be specified")
	}
	if a.Logger == nil {
		return errors.New("logger must be specified")
	}
	if a.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", a.Parallelism)
	}
	if a.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", a.MaxRetries)
	}
	if a.Tx.Binary == "" {
		return errors.New("node client binary must be specified")
	}
	if err := a.Metrics.Check(); err != nil {
		return err
	}
	return nil
}

func ApplyCLI() func(cliCtx *cli.Context) error {
	return func(cliCtx *cli.Context) error {
		logCfg, err := oplog.ReadCLIConfig(cliCtx)
		if err != nil {
			return err
		}
		l := oplog.NewLogger(oplog.AppOut(cliCtx), logCfg)
		oplog.SetGlobalLogHandler(l.Handler())

		fs := afero.NewOsFs()
		intent, err := ReadIntent(cliCtx, fs)
		if err != nil {
			return err
		}

		tx := broadcaster.DefaultTxConfig(intent.GasPrices)
		tx.Binary = cliCtx.String(BinaryFlagName)
		tx.Node = cliCtx.String(NodeFlagName)
		tx.ChainID = cliCtx.String(ChainIDFlagName)
		tx.KeyringBackend = cliCtx.String(KeyringBackendFlagName)

		ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		out, err := Apply(ctx, ApplyConfig{
			Intent:      intent,
			DryRun:      cliCtx.Bool(DryRunFlagName),
			Parallelism: cliCtx.Int(ParallelismFlagName),
			MaxRetries:  cliCtx.Int(MaxRetriesFlagName),
			Tx:          tx,
			Metrics:     metrics.ReadCLIConfig(cliCtx),
			Logger:      l,
		})
		if err != nil {
			return err
		}
		return WriteOutput(fs, cliCtx.App.Writer, cliCtx.String(OutfileFlagName), out)
	}
}

// Apply deploys the protocol described by cfg.Intent and returns the address
// of every deployed contract by logical name.
func Apply(ctx context.Context, cfg ApplyConfig) (map[string]string, error) {
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid config for apply: %w", err)
	}

	m := metrics.NoopMetrics
	if cfg.Metrics.Enabled {
		registry := metrics.NewMetrics("apply")
		srv, err := metrics.StartServer(registry.Registry(), cfg.Metrics.ListenAddr, cfg.Metrics.ListenPort)
		if err != nil {
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
		cfg.Logger.Info("Started metrics server", "addr", srv.Addr())
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(stopCtx); err != nil {
				cfg.Logger.Error("Failed to stop metrics server", "err", err)
			}
		}()
		m = registry
	}
	recordStartup(m)

	bcaster := env.DefaultBroadcaster(env.BroadcasterConfig{
		Tx:            cfg.Tx,
		MaxRetries:    cfg.MaxRetries,
		DryRun:        cfg.DryRun,
		AddressPrefix: cfg.Intent.AddressPrefix,
		Runner:        cfg.Runner,
	}, cfg.Logger, m)

	artifacts := cfg.ArtifactsFS
	if artifacts == nil && !cfg.DryRun {
		artifacts = afero.NewOsFs()
	}
	st, err := ApplyPipeline(ctx, ApplyPipelineOpts{
		Intent: cfg.Intent,
		Env: &pipeline.Env{
			Broadcaster: bcaster,
			Logger:      cfg.Logger,
			ArtifactsFS: artifacts,
			Metrics:     m,
			Parallelism: cfg.Parallelism,
		},
	})
	if err != nil {
		return nil, err
	}
	return st.Output(), nil
}

func recordStartup(m metrics.Metricer) {
	m.RecordInfo(version.Version)
	m.RecordUp()
}

type ApplyPipelineOpts struct {
	Intent *state.Intent
	Env    *pipeline.Env
}

func ApplyPipeline(ctx context.Context, opts ApplyPipelineOpts) (*state.State, error) {
	plan, err := pipeline.DefaultPlan(opts.Intent)
	if err != nil {
		return nil, err
	}

	lgr := opts.Env.Logger
	if lgr == nil {
		lgr = log.Root()
	}
	start := time.Now()
	st := state.NewState()
	if err := plan.Run(ctx, opts.Env, opts.Intent, st); err != nil {
		lgr.Error("Deployment failed", "deployed", len(st.Output()), "err", err)
		return st, err
	}
	lgr.Info("Deployment complete", "contracts", len(st.Output()), "code_ids", len(st.CodeIDs()), "took", time.Since(start))
	return st, nil
}

// WriteOutput prints the address map as a JSON object with sorted keys and,
// when outfile is set, writes the same document there.
func WriteOutput(fs afero.Fs, w io.Writer, outfile string, out map[string]string) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if outfile == "" {
		return nil
	}
	path, err := homedir.Expand(outfile)
	if err != nil {
		return fmt.Errorf("failed to expand output path: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
