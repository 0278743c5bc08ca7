package models

import (
	"math"
	"testing"
	"time"
)

func candleAt(day int, hour int, close float64) Candle {
	return Candle{
		Time:  time.Date(2025, 3, day, hour, 0, 0, 0, time.UTC),
		Open:  close,
		Close: close,
		Low:   close - 1,
		High:  close + 1,
	}
}

func TestOrderOpenWhileOpenIsNoop(t *testing.T) {
	o := NewOrder()
	o.Open(DirBuy, candleAt(10, 8, 100), -1, -1, ReasonNewTrend, 1, []int{3, 10})
	o.Open(DirSell, candleAt(10, 9, 90), -1, -1, ReasonNewTrend, 2, []int{5, 20})

	if o.Direction != DirBuy || o.OpenPrice != 100 || o.Lots != 1 {
		t.Fatalf("second Open must not touch an open order: %+v", o)
	}
}

func TestOrderCloseDirectionMismatchIsNoop(t *testing.T) {
	o := NewOrder()
	o.Open(DirBuy, candleAt(10, 8, 100), -1, -1, ReasonNewTrend, 1, nil)

	var history []Order
	o.Close(DirSell, candleAt(10, 9, 110), ReasonEndTrend, 0, &history)

	if o.Status != StatusOpen || len(history) != 0 {
		t.Fatalf("close of the opposite direction must be a no-op: status=%s history=%d", o.Status, len(history))
	}
}

func TestOrderCloseProfitLong(t *testing.T) {
	o := NewOrder()
	o.Open(DirBuy, candleAt(10, 8, 100), -1, -1, ReasonNewTrend, 1, nil)

	var history []Order
	o.Close(DirBuy, candleAt(10, 12, 110), ReasonEndTrend, 0, &history)

	// 10 - 100*0.0005 - 110*0.0005 = 9.895
	if math.Abs(o.Profit-9.895) > 1e-9 {
		t.Fatalf("profit = %v, want 9.895", o.Profit)
	}
	if o.ProfitPercent != 9.9 {
		t.Fatalf("profit percent = %v, want 9.9", o.ProfitPercent)
	}
	if o.LastAction != ClosedBuy || o.Status != StatusClosed {
		t.Fatalf("state after close: action=%s status=%s", o.LastAction, o.Status)
	}
	if len(history) != 1 {
		t.Fatalf("history len = %d, want 1", len(history))
	}
}

func TestOrderCloseProfitShortWithSpread(t *testing.T) {
	o := NewOrder()
	o.Open(DirSell, candleAt(11, 8, 100), -1, -1, ReasonNewTrend, 2, nil)

	var history []Order
	o.Close(DirSell, candleAt(11, 12, 90), ReasonEndTrend, 0.5, &history)

	// 2*(100-90) - 2*100*0.0005 - 2*90*0.0005 - 2*2*0.5 = 17.81
	if math.Abs(o.Profit-17.81) > 1e-9 {
		t.Fatalf("profit = %v, want 17.81", o.Profit)
	}
	if o.ProfitPercent != 8.9 {
		t.Fatalf("profit percent = %v, want 8.9", o.ProfitPercent)
	}
}

func TestOrderCloseBySLUsesStopPrice(t *testing.T) {
	o := NewOrder()
	o.Open(DirBuy, candleAt(12, 8, 100), 95, -1, ReasonNewTrend, 1, nil)

	var history []Order
	o.Close(DirBuy, candleAt(12, 9, 93), ReasonStopLoss, 0, &history)

	if o.ClosePrice != 95 {
		t.Fatalf("SL close must use stop price, got %v", o.ClosePrice)
	}
	if o.LastAction != ClosedBuySL {
		t.Fatalf("action = %s, want %s", o.LastAction, ClosedBuySL)
	}
}

func TestOrderCloseByTPUsesTakePrice(t *testing.T) {
	o := NewOrder()
	o.Open(DirSell, candleAt(12, 8, 100), -1, 92, ReasonNewTrend, 1, nil)

	var history []Order
	o.Close(DirSell, candleAt(12, 9, 91), ReasonTakeProfit, 0, &history)

	if o.ClosePrice != 92 {
		t.Fatalf("TP close must use take price, got %v", o.ClosePrice)
	}
	if o.LastAction != ClosedSellTP {
		t.Fatalf("action = %s, want %s", o.LastAction, ClosedSellTP)
	}
}

func TestOrderHistorySnapshotIsImmutable(t *testing.T) {
	o := NewOrder()
	o.Open(DirBuy, candleAt(13, 8, 100), -1, -1, ReasonNewTrend, 1, []int{3, 10})

	var history []Order
	o.Close(DirBuy, candleAt(13, 9, 105), ReasonEndTrend, 0, &history)

	// переиспользуем ордер под новую позицию
	o.Open(DirSell, candleAt(13, 10, 104), -1, -1, ReasonChangeDir, 1, []int{7, 21})
	o.Params[0] = 999

	snap := history[0]
	if snap.Direction != DirBuy || snap.OpenPrice != 100 {
		t.Fatalf("history entry was mutated by reuse: %+v", snap)
	}
	if snap.Params[0] != 3 {
		t.Fatalf("history params were mutated: %v", snap.Params)
	}
}

func TestCandlesUntilEndOfDay(t *testing.T) {
	dayEnd := time.Date(0, 1, 1, 15, 0, 0, 0, time.UTC)

	tm := time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)
	if got := CandlesUntilEndOfDay(tm, dayEnd, Interval1Hour); got != 2 {
		t.Fatalf("13:00 -> 15:00 on 1hour = %d, want 2", got)
	}

	tm = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	if got := CandlesUntilEndOfDay(tm, dayEnd, Interval1Hour); got != 0 {
		t.Fatalf("at day end = %d, want 0", got)
	}

	tm = time.Date(2025, 3, 10, 16, 30, 0, 0, time.UTC)
	if got := CandlesUntilEndOfDay(tm, dayEnd, Interval15Min); got != 0 {
		t.Fatalf("past day end = %d, want 0", got)
	}
}
