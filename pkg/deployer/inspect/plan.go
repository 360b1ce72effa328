package inspect

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/omxlabs/omx-deployer/pkg/deployer"
	"github.com/omxlabs/omx-deployer/pkg/deployer/pipeline"
	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
)

type PlanStage struct {
	Name     string   `json:"name"`
	Wave     int      `json:"wave"`
	Requires []string `json:"requires"`
	Produces []string `json:"produces"`
}

type PlanReport struct {
	Stages []PlanStage `json:"stages"`
	Waves  int         `json:"waves"`
}

func PlanCLI(cliCtx *cli.Context) error {
	intent, err := deployer.ReadIntent(cliCtx, afero.NewOsFs())
	if err != nil {
		return err
	}
	report, err := Plan(intent, cliCtx.Int(deployer.ParallelismFlagName) > 1)
	if err != nil {
		return fmt.Errorf("failed to build plan: %w", err)
	}
	return writeJSON(cliCtx.App.Writer, report)
}

// Plan describes the validated default plan for intent. With parallel set,
// stages sharing a wave number may run concurrently.
func Plan(intent *state.Intent, parallel bool) (*PlanReport, error) {
	p, err := pipeline.DefaultPlan(intent)
	if err != nil {
		return nil, err
	}

	waves := p.Waves(parallel)
	report := &PlanReport{Waves: len(waves)}
	for i, wave := range waves {
		for _, s := range wave {
			report.Stages = append(report.Stages, PlanStage{
				Name:     s.Name,
				Wave:     i,
				Requires: append([]string{}, s.Requires...),
				Produces: append([]string{}, s.Produces...),
			})
		}
	}
	return report, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
