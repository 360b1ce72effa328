package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/omxlabs/omx-deployer/pkg/deployer/contracts"
	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
)

// StoreCodeStage uploads the artifact for kind and records its code id.
func StoreCodeStage(kind state.ContractKind) Stage {
	return Stage{
		Name:     fmt.Sprintf("store-code[%s]", kind),
		Produces: []string{state.CodeKey(kind)},
		Apply: func(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
			return StoreCode(ctx, env, intent, st, kind)
		},
	}
}

func StoreCode(ctx context.Context, env *Env, intent *state.Intent, st *state.State, kind state.ContractKind) error {
	lgr := env.logger().New("stage", "store-code", "kind", kind)

	artifact := filepath.Join(intent.ArtifactsDir, kind.ArtifactFile())
	if env.ArtifactsFS != nil {
		ok, err := afero.Exists(env.ArtifactsFS, artifact)
		if err != nil {
			return fmt.Errorf("failed to check artifact %s: %w", artifact, err)
		}
		if !ok {
			return fmt.Errorf("artifact %s does not exist", artifact)
		}
	}

	lgr.Info("Storing contract code", "artifact", artifact)
	out, err := contracts.StoreCode(ctx, env.host(lgr, intent), contracts.StoreCodeInput{
		Kind: string(kind),
		Path: artifact,
	})
	if err != nil {
		return err
	}
	return st.SetCodeID(kind, out.CodeID)
}
