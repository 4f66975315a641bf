package backtester

import (
	"fmt"
	"time"

	"github.com/stratforge/TradeLab/pkg/strategy"
)

// Status is the terminal state of one backtest run.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Result is the terminal output of one run. Identifier fields are opaque to
// the engine and passed through from the request for result tagging.
type Result struct {
	UserID     string `json:"user_id,omitempty"`
	StrategyID string `json:"strategy_id,omitempty"`
	Symbol     string `json:"symbol"`

	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`

	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	StartingCapital float64   `json:"starting_capital"`
	EndingCapital   float64   `json:"ending_capital"`

	Parameters strategy.Parameters `json:"parameters"`
	Metrics    Metrics             `json:"metrics"`

	// Full trade log and final portfolio snapshot, kept for audit.
	Trades         []strategy.TradeEvent `json:"trades"`
	FinalPortfolio PortfolioSnapshot     `json:"final_portfolio"`
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	if r.Status == StatusFailed {
		return fmt.Sprintf("Backtest for %s FAILED: %s", r.Symbol, r.Error)
	}

	annualized := "n/a"
	if r.Metrics.AnnualizedReturnPct != nil {
		annualized = fmt.Sprintf("%.2f%%", *r.Metrics.AnnualizedReturnPct)
	}

	return fmt.Sprintf(`
Backtest Results for %s
=======================
Period: %s to %s
Starting Capital: $%.2f
Ending Capital: $%.2f
Total Return: $%.2f (%.2f%%)
Annualized Return: %s
Max Drawdown: %.2f%%

Trade Statistics:
- Total Trades: %d
- Winning Trades: %d
- Losing Trades: %d
- Win Rate: %.1f%%
- Average Win: $%.2f
- Average Loss: $%.2f
- Largest Win: $%.2f
- Largest Loss: $%.2f
- Profit Factor: %.2f

Risk Metrics:
- Sharpe Ratio: %.2f
`,
		r.Symbol,
		r.StartDate.Format("2006-01-02"),
		r.EndDate.Format("2006-01-02"),
		r.StartingCapital,
		r.EndingCapital,
		r.Metrics.TotalReturn,
		r.Metrics.TotalReturnPct,
		annualized,
		r.Metrics.MaxDrawdownPct,
		r.Metrics.TotalTrades,
		r.Metrics.WinningTrades,
		r.Metrics.LosingTrades,
		r.Metrics.WinRate,
		r.Metrics.AvgWin,
		r.Metrics.AvgLoss,
		r.Metrics.LargestWin,
		r.Metrics.LargestLoss,
		r.Metrics.ProfitFactor,
		r.Metrics.SharpeRatio,
	)
}
