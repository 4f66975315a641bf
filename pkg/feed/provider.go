package feed

import (
	"context"
	"time"

	"github.com/stratforge/TradeLab/pkg/strategy"
)

// HistoricalDataProvider defines the interface for historical data sources.
// Bars are returned in ascending timestamp order.
type HistoricalDataProvider interface {
	GetBars(ctx context.Context, symbol string, timeframe string, start time.Time, end time.Time) ([]strategy.BarData, error)
}
