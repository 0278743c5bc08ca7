package service

import (
	"testing"

	"backtest_bot/internal/indicator"
	"backtest_bot/internal/models"
)

func TestNewKnowsEveryName(t *testing.T) {
	ind := indicator.NewSource(nil)
	for _, name := range Names() {
		strat, err := New(name, ind)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if strat.Name() != name {
			t.Fatalf("strategy %q reports name %q", name, strat.Name())
		}
	}
}

func TestNewUnknownName(t *testing.T) {
	if _, err := New("strategy_no_such", indicator.NewSource(nil)); err == nil {
		t.Fatal("unknown strategy must be rejected")
	}
}

func TestCrossParamsOK(t *testing.T) {
	if !crossParamsOK([]int{5, 20}) {
		t.Fatal("fast < slow must pass")
	}
	if crossParamsOK([]int{20, 5}) {
		t.Fatal("fast > slow must be filtered out")
	}
	if crossParamsOK([]int{20, 20}) {
		t.Fatal("fast == slow must be filtered out")
	}
	if crossParamsOK([]int{20}) {
		t.Fatal("single param must be filtered out")
	}
}

func TestMACrossDetectsCrossUp(t *testing.T) {
	strat, _ := New(NameMACross, indicator.NewSource(nil))
	candles := mkCandles(10, 9, 8, 9, 12)

	d, err := strat.Decide(candles, []int{2, 3}, models.NewOrder(), testInstrument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Cmd != models.CmdOpenBuy || d.Trend != models.TrendUp {
		t.Fatalf("got (%s, %s), want (Open BUY, UP)", d.Cmd, d.Trend)
	}
}

func TestMACrossDetectsCrossDown(t *testing.T) {
	strat, _ := New(NameMACross, indicator.NewSource(nil))
	candles := mkCandles(10, 11, 12, 11, 8)

	d, err := strat.Decide(candles, []int{2, 3}, models.NewOrder(), testInstrument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Cmd != models.CmdOpenSell || d.Trend != models.TrendDown {
		t.Fatalf("got (%s, %s), want (Open SELL, DOWN)", d.Cmd, d.Trend)
	}
}

func TestMACrossSilentWithoutCross(t *testing.T) {
	strat, _ := New(NameMACross, indicator.NewSource(nil))
	candles := mkCandles(1, 2, 3, 4, 5, 6)

	d, err := strat.Decide(candles, []int{2, 3}, models.NewOrder(), testInstrument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Cmd != models.CmdNone {
		t.Fatalf("steady trend without a cross must stay silent, got %s", d.Cmd)
	}
	if d.Trend != models.TrendUp {
		t.Fatalf("trend hint = %s, want UP", d.Trend)
	}
}

func TestMACrossSimpleSuppressesSameDirection(t *testing.T) {
	strat, _ := New(NameMACrossSimple, indicator.NewSource(nil))
	candles := mkCandles(1, 2, 3, 4, 5, 6)

	d, err := strat.Decide(candles, []int{2, 4}, models.NewOrder(), testInstrument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Cmd != models.CmdOpenBuy {
		t.Fatalf("fast above slow must open BUY, got %s", d.Cmd)
	}

	order := models.NewOrder()
	order.Open(models.DirBuy, candles[2], -1, -1, models.ReasonNewTrend, 1, nil)
	d, err = strat.Decide(candles, []int{2, 4}, order, testInstrument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Cmd != models.CmdNone {
		t.Fatalf("signal in the open direction must be suppressed, got %s", d.Cmd)
	}
}

func TestMAVolumeNeedsVolumeSpike(t *testing.T) {
	strat, _ := New(NameMAVolume, indicator.NewSource(nil))

	candles := mkCandles(1, 2, 3, 4, 5, 6)
	d, err := strat.Decide(candles, []int{2, 4, 2}, models.NewOrder(), testInstrument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Cmd != models.CmdNone {
		t.Fatalf("flat volume must stay silent, got %s", d.Cmd)
	}

	candles[len(candles)-1].Volume = 300 // 3x против максимума последних трёх
	d, err = strat.Decide(candles, []int{2, 4, 2}, models.NewOrder(), testInstrument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Cmd != models.CmdOpenBuy {
		t.Fatalf("volume spike in an uptrend must open BUY, got %s", d.Cmd)
	}
}

func TestMAADXSLClosesInFlatMarket(t *testing.T) {
	strat, _ := New(NameMAADXSL, indicator.NewSource(nil))

	// мёртвый рынок: DM нулевые, ADX = 0
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	candles := mkCandles(closes...)

	d, err := strat.Decide(candles, []int{2, 4, 3, 10, 3}, models.NewOrder(), testInstrument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Cmd != models.CmdCloseAll || d.Reason != models.ReasonEndTrend {
		t.Fatalf("got (%s, %s), want (Close ALL, End Trend)", d.Cmd, d.Reason)
	}
}
