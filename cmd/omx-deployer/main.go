package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/omxlabs/omx-deployer/pkg/deployer"
	"github.com/omxlabs/omx-deployer/pkg/deployer/inspect"
	"github.com/omxlabs/omx-deployer/pkg/deployer/version"
)

var (
	GitCommit = ""
	GitDate   = ""
)

// VersionWithMeta holds the textual version string including the metadata.
var VersionWithMeta = version.Format(version.Version, GitCommit, GitDate, version.Meta)

func main() {
	app := cli.NewApp()
	app.Version = VersionWithMeta
	app.Name = "omx-deployer"
	app.Usage = "Tool to deploy the OMX protocol contracts to a CosmWasm chain."
	app.Flags = deployer.GlobalFlags
	app.Commands = []*cli.Command{
		{
			Name:   "init",
			Usage:  "writes the default deployment profile",
			Flags:  deployer.InitFlags,
			Action: deployer.InitCLI(),
		},
		{
			Name:   "apply",
			Usage:  "deploys and configures every protocol contract",
			Flags:  deployer.ApplyFlags,
			Action: deployer.ApplyCLI(),
		},
		{
			Name:   "plan",
			Usage:  "prints the validated deployment plan without sending transactions",
			Flags:  deployer.PlanFlags,
			Action: inspect.PlanCLI,
		},
	}
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr
	err := app.Run(os.Args)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}
