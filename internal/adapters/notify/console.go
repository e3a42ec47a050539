package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alejandrodnm/chimera/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implements ports.Reporter with a tabular session summary on stdout.
type Console struct {
	out io.Writer
	now func() time.Time
}

// NewConsole creates a reporter that writes to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout, now: time.Now}
}

// NewConsoleWriter creates a reporter for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, now: time.Now}
}

// Report prints the periodic session summary: mode, counters per mode, win
// rates, streaks and the account snapshot.
func (c *Console) Report(_ context.Context, mode domain.Mode, stats domain.Stats, account domain.AccountState) error {
	now := c.now()
	uptime := now.Sub(stats.ProcessStart)

	fmt.Fprintf(c.out, "\n[%s] session report — mode:%s uptime:%s\n",
		now.Format("15:04:05"), mode, formatDuration(uptime))

	table := tablewriter.NewWriter(c.out)
	table.Header("Scope", "Trades", "Wins", "Losses", "Win rate")
	table.Append("paper",
		fmt.Sprintf("%d", stats.PaperTrades),
		fmt.Sprintf("%d", stats.PaperWins),
		fmt.Sprintf("%d", stats.PaperLosses),
		fmt.Sprintf("%.1f%%", stats.WinRate*100),
	)
	table.Append("live",
		fmt.Sprintf("%d", stats.LiveTrades),
		fmt.Sprintf("%d", stats.LiveWins),
		fmt.Sprintf("%d", stats.LiveLosses),
		fmt.Sprintf("%.1f%%", stats.LiveWinRate*100),
	)
	table.Append("total",
		fmt.Sprintf("%d", stats.TotalTrades),
		fmt.Sprintf("%d", stats.TotalWins),
		fmt.Sprintf("%d", stats.TotalLosses),
		fmt.Sprintf("%.1f%%", domain.WinRateOf(stats.TotalWins, stats.TotalLosses)*100),
	)
	table.Render()

	fmt.Fprintf(c.out, "  balance: $%.2f | drawdown: %.1f%% | daily pnl: %.2f%% | open: %d | trades/h: %d\n",
		account.Balance, account.Drawdown*100, account.DailyPnL*100,
		account.OpenPositions, account.TradesLastHour)
	fmt.Fprintf(c.out, "  mode switches: %d | consecutive good runs: %d\n",
		stats.ModeSwitches, stats.ConsecutiveGoodRuns)

	if mode.Live() && !stats.LiveStart.IsZero() {
		fmt.Fprintf(c.out, "  live session: %s\n", formatDuration(now.Sub(stats.LiveStart)))
	}
	if !stats.RetrainingStart.IsZero() && !mode.Live() {
		fmt.Fprintf(c.out, "  last retraining started: %s\n", stats.RetrainingStart.Format("15:04:05"))
	}
	fmt.Fprintln(c.out)
	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
