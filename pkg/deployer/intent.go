package deployer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/omxlabs/omx-deployer/pkg/deployer/fixedpoint"
	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
)

// ErrInexactNumber is returned for profile numbers that a JSON decoder may
// already have rounded. Large amounts must be written as decimal strings.
var ErrInexactNumber = errors.New("number is not an exact integer")

// maxExactFloat is 2^53. JSON numbers at or above it may have lost digits.
const maxExactFloat = 1 << 53

var uint128Type = reflect.TypeOf(fixedpoint.Uint128{})

func checkExactFloat(f float64) error {
	if f != math.Trunc(f) || math.Abs(f) >= maxExactFloat {
		return fmt.Errorf("%w: %v", ErrInexactNumber, f)
	}
	return nil
}

func toUint128(data any) (fixedpoint.Uint128, error) {
	switch v := data.(type) {
	case fixedpoint.Uint128:
		return v, nil
	case string:
		return fixedpoint.ParseUint128(v)
	case float64:
		if err := checkExactFloat(v); err != nil {
			return fixedpoint.Uint128{}, err
		}
		return fixedpoint.ParseUint128(fmt.Sprintf("%.0f", v))
	}
	rv := reflect.ValueOf(data)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		x := big.NewInt(rv.Int())
		if err := fixedpoint.CheckUint128(x); err != nil {
			return fixedpoint.Uint128{}, err
		}
		return fixedpoint.NewUint128(x), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fixedpoint.Uint128FromUint64(rv.Uint()), nil
	}
	return fixedpoint.Uint128{}, fmt.Errorf("cannot decode %T as an amount", data)
}

// exactNumberHook decodes amounts from strings or integers and refuses
// floats that cannot be carried into an integer field without loss.
func exactNumberHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to == uint128Type {
		return toUint128(data)
	}
	f, ok := data.(float64)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if err := checkExactFloat(f); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// LoadIntent returns the localnet profile with the settings of the profile
// file at path layered on top. Lists in the profile replace the defaults
// wholesale, as do the oracle sources; other tables are merged key by key.
// An empty path returns the defaults.
func LoadIntent(fs afero.Fs, path string) (*state.Intent, error) {
	base, err := json.Marshal(state.DefaultIntent())
	if err != nil {
		return nil, fmt.Errorf("failed to encode default profile: %w", err)
	}
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return nil, fmt.Errorf("failed to read default profile: %w", err)
	}

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand profile path: %w", err)
		}
		profile := viper.New()
		profile.SetFs(fs)
		profile.SetConfigFile(expanded)
		if err := profile.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read profile %s: %w", expanded, err)
		}
		if err := v.MergeConfigMap(profile.AllSettings()); err != nil {
			return nil, fmt.Errorf("failed to merge profile %s: %w", expanded, err)
		}
		if profile.IsSet("oraclesources") {
			v.Set("oraclesources", profile.GetStringMapString("oraclesources"))
		}
	}

	intent := new(state.Intent)
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.DecodeHookFuncType(exactNumberHook),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(intent, decodeHook); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	for i := range intent.Assets {
		a := &intent.Assets[i]
		if a.Priced() && a.OraclePrice == (fixedpoint.Fraction{}) {
			a.OraclePrice = fixedpoint.Whole(1)
		}
	}
	return intent, nil
}

// ReadIntent loads the profile named by the flags and applies the account
// and artifact flags on top of it.
func ReadIntent(cliCtx *cli.Context, fs afero.Fs) (*state.Intent, error) {
	intent, err := LoadIntent(fs, cliCtx.String(ProfileFlagName))
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{DeployerWalletFlagName, &intent.DeployerWallet},
		{DeployerAddressFlagName, &intent.DeployerAddress},
		{GasPricesFlagName, &intent.GasPrices},
		{ArtifactsFlagName, &intent.ArtifactsDir},
	}
	for _, o := range overrides {
		if cliCtx.IsSet(o.flag) {
			*o.dst = cliCtx.String(o.flag)
		}
	}

	intent.ArtifactsDir, err = homedir.Expand(intent.ArtifactsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand artifacts path: %w", err)
	}
	if err := intent.Check(); err != nil {
		return nil, fmt.Errorf("invalid intent: %w", err)
	}
	return intent, nil
}
