package env

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/omxlabs/omx-deployer/pkg/deployer/broadcaster"
	"github.com/omxlabs/omx-deployer/pkg/deployer/metrics"
)

type BroadcasterConfig struct {
	Tx         broadcaster.TxConfig
	MaxRetries int
	// DryRun replaces the node client with fabricated receipts.
	DryRun        bool
	AddressPrefix string
	// Runner overrides the subprocess runner. Nil runs Tx.Binary.
	Runner broadcaster.Runner
}

func DefaultBroadcaster(cfg BroadcasterConfig, lgr log.Logger, m metrics.TxMetricer) broadcaster.Broadcaster {
	if cfg.DryRun {
		lgr.Warn("Dry run, no transactions will be sent")
		return broadcaster.NoopBroadcaster(cfg.AddressPrefix)
	}
	return DefaultExecutor(cfg, lgr, m)
}

func DefaultExecutor(cfg BroadcasterConfig, lgr log.Logger, m metrics.TxMetricer) *broadcaster.Executor {
	runner := cfg.Runner
	if runner == nil {
		runner = new(broadcaster.ExecRunner)
	}
	if m == nil {
		m = metrics.NoopMetrics
	}
	return broadcaster.NewExecutor(runner, cfg.Tx,
		broadcaster.WithMaxRetries(cfg.MaxRetries),
		broadcaster.WithLogger(lgr),
		broadcaster.WithMetrics(m),
	)
}
