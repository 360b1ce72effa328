package metrics

import "time"

type noopMetrics struct{}

var NoopMetrics Metricer = new(noopMetrics)

func (*noopMetrics) RecordInfo(version string) {}
func (*noopMetrics) RecordUp()                 {}

func (*noopMetrics) RecordTxAttempt(_ string)                       {}
func (*noopMetrics) RecordTxResult(_ string, _ string)              {}
func (*noopMetrics) RecordStage(_ string, _ time.Duration, _ error) {}
