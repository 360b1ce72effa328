package deployer

import (
	"github.com/urfave/cli/v2"

	"github.com/omxlabs/omx-deployer/pkg/deployer/broadcaster"
	"github.com/omxlabs/omx-deployer/pkg/deployer/metrics"
	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
	oplog "github.com/omxlabs/omx-deployer/pkg/service/log"
)

const EnvVarPrefix = "OMX"

const (
	ProfileFlagName         = "profile"
	OutfileFlagName         = "outfile"
	DryRunFlagName          = "dry-run"
	ParallelismFlagName     = "parallelism"
	MaxRetriesFlagName      = "max-retries"
	DeployerWalletFlagName  = "deployer-wallet"
	DeployerAddressFlagName = "deployer-address"
	GasPricesFlagName       = "gas-prices"
	ArtifactsFlagName       = "artifacts"
	BinaryFlagName          = "binary"
	NodeFlagName            = "node"
	ChainIDFlagName         = "chain-id"
	KeyringBackendFlagName  = "keyring-backend"
)

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

// withBareEnv also accepts the unprefixed variable used by the localnet
// scripts, e.g. DEPLOYER_WALLET next to OMX_DEPLOYER_WALLET.
func withBareEnv(name string) []string {
	return append(prefixEnvVars(name), name)
}

var (
	ProfileFlag = &cli.StringFlag{
		Name:    ProfileFlagName,
		Usage:   "Deployment profile (JSON, TOML or YAML). Defaults to the built-in localnet profile.",
		EnvVars: prefixEnvVars("PROFILE"),
	}
	OutfileFlag = &cli.StringFlag{
		Name:    OutfileFlagName,
		Usage:   "Also write the output to this file.",
		EnvVars: prefixEnvVars("OUTFILE"),
	}
	DryRunFlag = &cli.BoolFlag{
		Name:    DryRunFlagName,
		Usage:   "Walk the plan with fabricated receipts instead of sending transactions.",
		EnvVars: prefixEnvVars("DRY_RUN"),
	}
	ParallelismFlag = &cli.IntFlag{
		Name:    ParallelismFlagName,
		Usage:   "Number of independent stages to run at once. 1 runs the plan in order.",
		EnvVars: prefixEnvVars("PARALLELISM"),
		Value:   1,
	}
	MaxRetriesFlag = &cli.IntFlag{
		Name:    MaxRetriesFlagName,
		Usage:   "Number of times a failed transaction is resubmitted.",
		EnvVars: prefixEnvVars("MAX_RETRIES"),
		Value:   broadcaster.DefaultMaxRetries,
	}
	DeployerWalletFlag = &cli.StringFlag{
		Name:    DeployerWalletFlagName,
		Usage:   "Keyring name of the account uploading contract code.",
		EnvVars: withBareEnv("DEPLOYER_WALLET"),
		Value:   state.DefaultDeployerWallet,
	}
	DeployerAddressFlag = &cli.StringFlag{
		Name:    DeployerAddressFlagName,
		Usage:   "Address of the account instantiating and configuring contracts.",
		EnvVars: withBareEnv("DEPLOYER_ADDR"),
		Value:   state.DefaultDeployerAddress,
	}
	GasPricesFlag = &cli.StringFlag{
		Name:    GasPricesFlagName,
		Usage:   "Gas prices passed to every transaction.",
		EnvVars: withBareEnv("GAS_PRICES"),
		Value:   state.DefaultGasPrices,
	}
	ArtifactsFlag = &cli.StringFlag{
		Name:    ArtifactsFlagName,
		Usage:   "Directory holding the compiled contract artifacts.",
		EnvVars: append(prefixEnvVars("ARTIFACTS"), "ARTIFACTS_PATH"),
		Value:   state.DefaultArtifactsDir,
	}
	BinaryFlag = &cli.StringFlag{
		Name:    BinaryFlagName,
		Usage:   "Node client binary.",
		EnvVars: prefixEnvVars("BINARY"),
		Value:   broadcaster.DefaultBinary,
	}
	NodeFlag = &cli.StringFlag{
		Name:    NodeFlagName,
		Usage:   "RPC endpoint passed to the node client as --node.",
		EnvVars: prefixEnvVars("NODE"),
	}
	ChainIDFlag = &cli.StringFlag{
		Name:    ChainIDFlagName,
		Usage:   "Chain ID passed to the node client as --chain-id.",
		EnvVars: prefixEnvVars("CHAIN_ID"),
	}
	KeyringBackendFlag = &cli.StringFlag{
		Name:    KeyringBackendFlagName,
		Usage:   "Keyring backend passed to the node client.",
		EnvVars: prefixEnvVars("KEYRING_BACKEND"),
	}
)

var GlobalFlags = append([]cli.Flag{}, oplog.CLIFlags(EnvVarPrefix)...)

var IntentFlags = []cli.Flag{
	ProfileFlag,
	DeployerWalletFlag,
	DeployerAddressFlag,
	GasPricesFlag,
	ArtifactsFlag,
}

var ApplyFlags = append(append(append([]cli.Flag{}, IntentFlags...),
	OutfileFlag,
	DryRunFlag,
	ParallelismFlag,
	MaxRetriesFlag,
	BinaryFlag,
	NodeFlag,
	ChainIDFlag,
	KeyringBackendFlag,
), metrics.CLIFlags(EnvVarPrefix)...)

var PlanFlags = append(append([]cli.Flag{}, IntentFlags...), ParallelismFlag)

var InitFlags = []cli.Flag{
	OutfileFlag,
}
