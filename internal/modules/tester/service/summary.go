package service

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// SaveSummary пишет однострочную сводку по каждому прогону сетки.
func SaveSummary(reports []*Report, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create stats dir")
	}

	f, err := os.Create(filepath.Join(dir, "summary.log"))
	if err != nil {
		return errors.Wrap(err, "create summary file")
	}
	defer func() {
		_ = f.Close()
	}()

	for _, r := range reports {
		_, err := fmt.Fprintf(f, "Margin: %.2f%%, Orders: %d(%d/%d) Params: %v, %% of profit orders: %.2f\n",
			r.Profitability, r.NumOrders, r.NumProfitOrders, r.NumLossOrders, r.Params, r.ProfitOrdersPercent)
		if err != nil {
			return errors.Wrap(err, "write summary")
		}
	}
	return nil
}

// Save — детальный лог ордеров одного прогона.
func (r *Report) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create stats dir")
	}

	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("param-%v.log", r.Params)))
	if err != nil {
		return errors.Wrap(err, "create report file")
	}
	defer func() {
		_ = f.Close()
	}()

	fmt.Fprintf(f, "Orders: %d (Profit: %d/Loss: %d)\n", r.NumOrders, r.NumProfitOrders, r.NumLossOrders)
	fmt.Fprintf(f, "Profit: %.2f, Profitability: %.2f%%\n\n", r.TotalProfit, r.Profitability)

	for _, o := range r.Orders {
		_, err := fmt.Fprintf(f, "%s: Tm open: %s, Tm close: %s, Pr open: %.4f, Pr close: %.4f, Profit: %+.2f%% Close Reason: %s\n",
			o.Direction,
			o.OpenTime.Format("2006-01-02 15:04:05"),
			o.CloseTime.Format("2006-01-02 15:04:05"),
			o.OpenPrice, o.ClosePrice, o.ProfitPercent, o.Reason)
		if err != nil {
			return errors.Wrap(err, "write report")
		}
	}
	return nil
}

// Save — потиковый CSV прогона: свеча, индикаторы, параметры, команда.
func (l *StrategyLog) Save(dir string) error {
	if len(l.Ticks) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create stats dir")
	}

	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("strat-%v.csv", l.Ticks[0].Params)))
	if err != nil {
		return errors.Wrap(err, "create strategy log file")
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := f.WriteString("Time,Open,Close,Low,High,Volume,Indicator1,Indicator2,Indicator3,Indicator4,Param1,Param2,Param3,Param4,Command,Reason,SL,TP,Last Action\n"); err != nil {
		return errors.Wrap(err, "write strategy log header")
	}

	for _, t := range l.Ticks {
		cmd := string(t.Cmd)
		if cmd == "" {
			cmd = "Unspecified"
		}
		_, err := fmt.Fprintf(f, "%s,%.4f,%.4f,%.4f,%.4f,%07d,%.4f,%.4f,%.4f,%.4f,%03d,%03d,%03d,%03d,%s,%s,%.4f,%.4f,%s\n",
			t.Candle.Time.Format("2006-01-02 15:04:05"),
			t.Candle.Open, t.Candle.Close, t.Candle.Low, t.Candle.High, t.Candle.Volume,
			t.Indicators[0], t.Indicators[1], t.Indicators[2], t.Indicators[3],
			param(t.Params, 0), param(t.Params, 1), param(t.Params, 2), param(t.Params, 3),
			cmd, t.Reason, t.SL, t.TP, t.Action)
		if err != nil {
			return errors.Wrap(err, "write strategy log")
		}
	}
	return nil
}

func param(params []int, i int) int {
	if i < len(params) {
		return params[i]
	}
	return -1
}
