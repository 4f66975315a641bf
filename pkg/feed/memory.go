package feed

import (
	"context"
	"sort"
	"time"

	"github.com/stratforge/TradeLab/pkg/strategy"
)

// MemoryProvider serves preloaded bars from memory. It backs tests and
// programmatic callers that already hold a bar sequence.
type MemoryProvider struct {
	bars []strategy.BarData
}

// NewMemoryProvider creates a provider over the given bars. The bars are
// copied and sorted by timestamp so callers may pass them in any order.
func NewMemoryProvider(bars []strategy.BarData) *MemoryProvider {
	sorted := make([]strategy.BarData, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return &MemoryProvider{bars: sorted}
}

// GetBars returns the bars matching symbol, timeframe, and time range in
// ascending timestamp order. The result is an independent copy.
func (p *MemoryProvider) GetBars(ctx context.Context, symbol string, timeframe string, start time.Time, end time.Time) ([]strategy.BarData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []strategy.BarData
	for _, bar := range p.bars {
		if bar.Symbol != symbol || bar.Timeframe != timeframe {
			continue
		}
		if bar.Timestamp.Before(start) || bar.Timestamp.After(end) {
			continue
		}
		out = append(out, bar)
	}
	return out, nil
}

var _ HistoricalDataProvider = (*MemoryProvider)(nil)
