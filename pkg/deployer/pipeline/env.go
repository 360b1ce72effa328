package pipeline

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/afero"

	"github.com/omxlabs/omx-deployer/pkg/deployer/broadcaster"
	"github.com/omxlabs/omx-deployer/pkg/deployer/contracts"
	"github.com/omxlabs/omx-deployer/pkg/deployer/metrics"
	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
)

type Env struct {
	Broadcaster broadcaster.Broadcaster
	Logger      log.Logger
	// ArtifactsFS is checked for every artifact before it is stored. Nil
	// skips the check.
	ArtifactsFS afero.Fs
	Metrics     metrics.StageMetricer
	// Parallelism bounds how many independent stages run at once. Values
	// below 2 run the plan strictly in order.
	Parallelism int
}

func (e *Env) logger() log.Logger {
	if e.Logger == nil {
		return log.Root()
	}
	return e.Logger
}

func (e *Env) metrics() metrics.StageMetricer {
	if e.Metrics == nil {
		return metrics.NoopMetrics
	}
	return e.Metrics
}

func (e *Env) host(lgr log.Logger, intent *state.Intent) *contracts.Host {
	return contracts.NewHost(e.Broadcaster, lgr, intent.DeployerAddress, intent.DeployerWallet)
}
