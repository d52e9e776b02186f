package metrics

type InvocationObserver interface {
	RecordInvocation(outcome string)
	RecordWriteDuration(seconds float64)
	RecordEventSize(n int)
}

type NoopObserver struct{}

func (NoopObserver) RecordInvocation(_ string)     {}
func (NoopObserver) RecordWriteDuration(_ float64) {}
func (NoopObserver) RecordEventSize(_ int)         {}
