package types

// MempoolSnapshot holds the fee and congestion metrics of one mempool at the
// time it was fetched. Fee rates are in sat/vByte.
type MempoolSnapshot struct {
	UnconfirmedTxCount int64   `json:"unconfirmedTxCount"`
	MemoryUsageMB      float64 `json:"memoryUsageMB"`
	// MinimumFee is the purge floor. It is nil when the snapshot was built
	// from a reply variant that does not track it.
	MinimumFee          *int64 `json:"minimumFee,omitempty"`
	NoPriorityFee       int64  `json:"noPriorityFee"`
	LowPriorityFee      int64  `json:"lowPriorityFee"`
	MediumPriorityFee   int64  `json:"mediumPriorityFee"`
	HighPriorityFee     int64  `json:"highPriorityFee"`
	ProjectedBlockCount int64  `json:"projectedBlockCount"`
}

// HasPurgeFloor reports whether the snapshot exposes a purge floor.
func (s MempoolSnapshot) HasPurgeFloor() bool {
	return s.MinimumFee != nil
}
