package deployer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
)

// InitCLI writes the built-in localnet profile, as a starting point for a
// custom --profile.
func InitCLI() func(cliCtx *cli.Context) error {
	return func(cliCtx *cli.Context) error {
		return Init(afero.NewOsFs(), cliCtx.App.Writer, cliCtx.String(OutfileFlagName))
	}
}

func Init(fs afero.Fs, w io.Writer, outfile string) error {
	intent := state.DefaultIntent()
	if err := intent.Check(); err != nil {
		return fmt.Errorf("default profile is invalid: %w", err)
	}
	data, err := json.MarshalIndent(intent, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	data = append(data, '\n')

	if outfile == "" {
		_, err := w.Write(data)
		return err
	}
	path, err := homedir.Expand(outfile)
	if err != nil {
		return fmt.Errorf("failed to expand output path: %w", err)
	}
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return fmt.Errorf("failed to check profile %s: %w", path, err)
	}
	if exists {
		return fmt.Errorf("profile %s already exists", path)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}
