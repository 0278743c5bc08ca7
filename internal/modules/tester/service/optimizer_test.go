package service

import (
	"context"
	"reflect"
	"testing"

	"backtest_bot/internal/indicator"
	"backtest_bot/internal/modules/config"
	strategysvc "backtest_bot/internal/modules/strategy/service"
)

func TestExperimentsEnumeration(t *testing.T) {
	strat, err := strategysvc.New(strategysvc.NameMACross, indicator.NewSource(nil))
	if err != nil {
		t.Fatalf("strategy: %v", err)
	}

	ranges := []config.ParamRange{
		{Name: "ma_fast", Min: 5, Max: 20, Step: 5},
		{Name: "ma_slow", Min: 10, Max: 30, Step: 10},
	}

	got := Experiments(ranges, strat)

	// правая граница не включается, fast >= slow отсекает ParamsOK
	want := [][]int{
		{5, 10}, {5, 20}, {10, 20}, {15, 20},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("experiments = %v, want %v", got, want)
	}
}

func TestExperimentsEmptyRanges(t *testing.T) {
	strat, _ := strategysvc.New(strategysvc.NameMACross, indicator.NewSource(nil))
	if got := Experiments(nil, strat); got != nil {
		t.Fatalf("no ranges must give no experiments, got %v", got)
	}
}

func TestOptimizeRunsFullGrid(t *testing.T) {
	conf := testerConfig()
	conf.Strategy.Params = []config.ParamRange{
		{Name: "ma_fast", Min: 2, Max: 4, Step: 1},
		{Name: "ma_slow", Min: 5, Max: 9, Step: 2},
	}
	conf.Tester.Workers = 2

	tester := NewTester(conf, indicator.NewSource(nil), runInstrument())
	candles := risingCandles(100, 1, 30)

	reports, err := tester.Optimize(context.Background(), candles)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}

	// 2 значения fast x 2 значения slow, все комбинации валидны
	if len(reports) != 4 {
		t.Fatalf("got %d reports, want 4", len(reports))
	}
	for i := 1; i < len(reports); i++ {
		if reports[i-1].Profitability < reports[i].Profitability {
			t.Fatalf("reports must be sorted by profitability desc: %v then %v",
				reports[i-1].Profitability, reports[i].Profitability)
		}
	}
}
