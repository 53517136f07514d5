package cache

import (
	"time"

	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

// TTLTable implements the TTL-by-frequency-class rule. Values
// are configurable with these as the
// documented defaults.
type TTLTable struct {
	Daily time.Duration
	Monthly time.Duration
	Annual time.Duration
	Streaming time.Duration // crypto, FX
}

func DefaultTTLTable() TTLTable {
	return TTLTable{
 Daily: 1 * time.Hour,
 Monthly: 12 * time.Hour,
 Annual: 24 * time.Hour,
 Streaming: 60 * time.Second,
	}
}

// TTLFor resolves the TTL for a frequency + the crypto/FX streaming flags.
func (t TTLTable) TTLFor(freq model.Frequency, isStreaming bool) time.Duration {
	if isStreaming {
 return t.Streaming
	}
	switch freq {
	case model.FrequencyDaily, model.FrequencyWeekly:
 return t.Daily
	case model.FrequencyMonthly, model.FrequencyQuarterly:
 return t.Monthly
	case model.FrequencyAnnual:
 return t.Annual
	default:
 return t.Daily
	}
}
