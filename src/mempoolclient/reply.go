package mempoolclient

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/0xb10c/mempoolnote/src/types"
)

// StandardBlockVSize is the virtual size of a full block.
const StandardBlockVSize = 1000000

// FeeVariant selects how the `fees` object of a reply maps onto the priority
// tiers of a snapshot.
type FeeVariant string

const (
	// FeeVariantLegacy uses `minimumFee` as the no-priority tier and does not
	// track a purge floor.
	FeeVariantLegacy FeeVariant = "legacy"
	// FeeVariantPurgeFloor uses `economyFee` as the no-priority tier and
	// `minimumFee` as the purge floor.
	FeeVariantPurgeFloor FeeVariant = "purge-floor"
)

// ParseFeeVariant returns the FeeVariant named s.
func ParseFeeVariant(s string) (FeeVariant, error) {
	switch v := FeeVariant(s); v {
	case FeeVariantLegacy, FeeVariantPurgeFloor:
		return v, nil
	}
	return "", errors.Errorf("unknown fee variant %q", s)
}

// ErrEmptyProjection is returned when a reply contains no projected mempool
// blocks.
var ErrEmptyProjection = errors.New("reply contains no projected mempool blocks")

// ErrorMalformedSnapshot is returned when a required field of a reply is
// missing or has the wrong type.
type ErrorMalformedSnapshot struct {
	Field string
	Err   error
}

func (e *ErrorMalformedSnapshot) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed mempool reply: field %s: %s", e.Field, e.Err)
	}
	return fmt.Sprintf("malformed mempool reply: missing field %s", e.Field)
}

// IsErrorMalformedSnapshot reports whether the cause of err is an
// ErrorMalformedSnapshot.
func IsErrorMalformedSnapshot(err error) bool {
	_, ok := errors.Cause(err).(*ErrorMalformedSnapshot)
	return ok
}

// IsErrorEmptyProjection reports whether the cause of err is ErrEmptyProjection.
func IsErrorEmptyProjection(err error) bool {
	return errors.Cause(err) == ErrEmptyProjection
}

// WebsocketReply is the subset of the mempool websocket reply a snapshot is
// built from. Pointers distinguish absent fields from zero values.
type WebsocketReply struct {
	MempoolInfo *struct {
		Size  *int64   `json:"size"`
		Usage *float64 `json:"usage"`
	} `json:"mempoolInfo"`
	Fees *struct {
		FastestFee  *int64 `json:"fastestFee"`
		HalfHourFee *int64 `json:"halfHourFee"`
		HourFee     *int64 `json:"hourFee"`
		EconomyFee  *int64 `json:"economyFee"`
		MinimumFee  *int64 `json:"minimumFee"`
	} `json:"fees"`
	MempoolBlocks *[]ProjectedBlock `json:"mempool-blocks"`
}

// ProjectedBlock is one entry of `mempool-blocks`.
type ProjectedBlock struct {
	BlockVSize *float64 `json:"blockVSize"`
	NTx        int64    `json:"nTx"`
	MedianFee  float64  `json:"medianFee"`
}

func missing(field string) error {
	return &ErrorMalformedSnapshot{Field: field}
}

// ReplyToSnapshot validates a reply and converts it to a MempoolSnapshot.
func ReplyToSnapshot(r WebsocketReply, variant FeeVariant) (types.MempoolSnapshot, error) {
	var s types.MempoolSnapshot

	if r.MempoolInfo == nil {
		return s, missing("mempoolInfo")
	}
	if r.MempoolInfo.Size == nil {
		return s, missing("mempoolInfo.size")
	}
	if r.MempoolInfo.Usage == nil {
		return s, missing("mempoolInfo.usage")
	}
	if *r.MempoolInfo.Size < 0 {
		return s, &ErrorMalformedSnapshot{Field: "mempoolInfo.size", Err: errors.New("negative")}
	}
	if *r.MempoolInfo.Usage < 0 {
		return s, &ErrorMalformedSnapshot{Field: "mempoolInfo.usage", Err: errors.New("negative")}
	}

	if r.Fees == nil {
		return s, missing("fees")
	}
	fees := map[string]*int64{
		"fees.hourFee":     r.Fees.HourFee,
		"fees.halfHourFee": r.Fees.HalfHourFee,
		"fees.fastestFee":  r.Fees.FastestFee,
		"fees.minimumFee":  r.Fees.MinimumFee,
	}
	switch variant {
	case FeeVariantLegacy:
	case FeeVariantPurgeFloor:
		fees["fees.economyFee"] = r.Fees.EconomyFee
	default:
		return s, errors.Errorf("unknown fee variant %q", variant)
	}
	// sorted so the reported field is stable
	for _, name := range []string{"fees.economyFee", "fees.fastestFee", "fees.halfHourFee", "fees.hourFee", "fees.minimumFee"} {
		fee, ok := fees[name]
		if !ok {
			continue
		}
		if fee == nil {
			return s, missing(name)
		}
		if *fee < 0 {
			return s, &ErrorMalformedSnapshot{Field: name, Err: errors.New("negative fee rate")}
		}
	}

	if r.MempoolBlocks == nil {
		return s, missing("mempool-blocks")
	}
	nBlocks, err := ProjectedBlockCount(*r.MempoolBlocks)
	if err != nil {
		return s, err
	}

	s.UnconfirmedTxCount = *r.MempoolInfo.Size
	s.MemoryUsageMB = math.Round(*r.MempoolInfo.Usage / 1000000)
	s.LowPriorityFee = *r.Fees.HourFee
	s.MediumPriorityFee = *r.Fees.HalfHourFee
	s.HighPriorityFee = *r.Fees.FastestFee
	s.ProjectedBlockCount = nBlocks

	if variant == FeeVariantLegacy {
		s.NoPriorityFee = *r.Fees.MinimumFee
	} else {
		s.NoPriorityFee = *r.Fees.EconomyFee
		minimumFee := *r.Fees.MinimumFee
		s.MinimumFee = &minimumFee
	}

	return s, nil
}

// ProjectedBlockCount returns the number of blocks needed to clear the
// mempool. The last projected block collects the whole remaining backlog, so
// when it is larger than a standard block every full block it holds is
// counted in addition.
func ProjectedBlockCount(blocks []ProjectedBlock) (int64, error) {
	if len(blocks) == 0 {
		return 0, ErrEmptyProjection
	}

	for i, b := range blocks {
		if b.BlockVSize == nil {
			return 0, missing(fmt.Sprintf("mempool-blocks[%d].blockVSize", i))
		}
		if *b.BlockVSize < 0 {
			return 0, &ErrorMalformedSnapshot{
				Field: fmt.Sprintf("mempool-blocks[%d].blockVSize", i),
				Err:   errors.New("negative"),
			}
		}
	}

	n := int64(len(blocks))
	last := *blocks[len(blocks)-1].BlockVSize
	if last <= StandardBlockVSize {
		return n, nil
	}
	return n + int64(math.Floor(last/StandardBlockVSize)), nil
}
