package traffic

// ComputeUsage derives the usage between the baseline and the current sample.
//
// A counter that decreased is treated as reset and contributes 0. Received
// bytes only count in Bidirectional mode. The returned baseline equals the
// current sample. An unprimed baseline is primed and yields zero usage.
func ComputeUsage(cur Sample, prev Baseline, mode Direction) (Usage, Baseline) {
	next := NewBaseline(cur)
	if !prev.Primed {
		return Usage{}, next
	}

	var u Usage
	u.TxBytes, u.TxReset = delta(cur.TxBytes, prev.PreviousTx)
	if mode == Bidirectional {
		u.RxBytes, u.RxReset = delta(cur.RxBytes, prev.PreviousRx)
	}
	return u, next
}

func delta(cur, prev uint64) (uint64, bool) {
	if cur < prev {
		return 0, true
	}
	return cur - prev, false
}
