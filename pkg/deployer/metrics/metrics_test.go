package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics("")
	m.RecordInfo("v0.1.0")
	m.RecordUp()
	m.RecordTxAttempt("store")
	m.RecordTxAttempt("store")
	m.RecordTxResult("store", OutcomeSuccess)
	m.RecordStage("deploy-vault", time.Second, nil)
	m.RecordStage("deploy-router", time.Second, errors.New("boom"))

	require.Equal(t, float64(2), testutil.ToFloat64(m.txAttempts.WithLabelValues("store")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.txResults.WithLabelValues("store", OutcomeSuccess)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.stageFailures.WithLabelValues("deploy-router")))
	require.Equal(t, float64(0), testutil.ToFloat64(m.stageFailures.WithLabelValues("deploy-vault")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.up))
}

func TestServer(t *testing.T) {
	m := NewMetrics("test")
	m.RecordTxAttempt("instantiate")

	srv, err := StartServer(m.Registry(), "127.0.0.1", 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, srv.Stop(ctx))
	})

	res, err := http.Get("http://" + srv.Addr().String() + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `omx_deployer_test_tx_attempts_total{op="instantiate"} 1`)
}

func TestCLIConfigCheck(t *testing.T) {
	cfg := DefaultCLIConfig()
	require.NoError(t, cfg.Check())
	cfg.Enabled = true
	cfg.ListenPort = 70000
	require.ErrorIs(t, cfg.Check(), ErrInvalidPort)
}
