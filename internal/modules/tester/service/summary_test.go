package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"backtest_bot/internal/models"
)

func TestSaveSummary(t *testing.T) {
	dir := t.TempDir()
	reports := []*Report{
		reportWithProfit(10, 5, 1, []int{5, 20}),
		reportWithProfit(-2, 3, 2, []int{10, 30}),
	}

	if err := SaveSummary(reports, dir); err != nil {
		t.Fatalf("save summary: %v", err)
	}

	bs, err := os.ReadFile(filepath.Join(dir, "summary.log"))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(bs)), "\n")
	if len(lines) != 2 {
		t.Fatalf("summary lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "Params: [5 20]") {
		t.Fatalf("first line misses params: %q", lines[0])
	}
	if !strings.Contains(lines[0], "Orders: 5(5/0)") {
		t.Fatalf("first line misses order counts: %q", lines[0])
	}
}

func TestReportSave(t *testing.T) {
	dir := t.TempDir()
	r := reportWithProfit(10, 2, 1, []int{5, 20})

	if err := r.Save(dir); err != nil {
		t.Fatalf("save report: %v", err)
	}

	bs, err := os.ReadFile(filepath.Join(dir, "param-[5 20].log"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	content := string(bs)
	if !strings.Contains(content, "Orders: 2 (Profit: 2/Loss: 0)") {
		t.Fatalf("header missing: %q", content)
	}
	if !strings.Contains(content, "Close Reason:") {
		t.Fatalf("order lines missing: %q", content)
	}
}

func TestStrategyLogSave(t *testing.T) {
	dir := t.TempDir()

	var l StrategyLog
	l.Add(TickLog{
		Candle: models.Candle{Time: reportStart, Open: 100, Close: 101, Low: 99, High: 102, Volume: 1234},
		Params: []int{5, 20},
		Cmd:    models.CmdNone,
		Reason: models.ReasonUnspecified,
		SL:     -1,
		TP:     -1,
		Action: models.DidNothing,
	})

	if err := l.Save(dir); err != nil {
		t.Fatalf("save strategy log: %v", err)
	}

	bs, err := os.ReadFile(filepath.Join(dir, "strat-[5 20].csv"))
	if err != nil {
		t.Fatalf("read strategy log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(bs)), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want header + 1 tick", len(lines))
	}
	if got := len(strings.Split(lines[0], ",")); got != 19 {
		t.Fatalf("header columns = %d, want 19", got)
	}
	if !strings.Contains(lines[1], "Unspecified") {
		t.Fatalf("empty command must render as Unspecified: %q", lines[1])
	}
	if !strings.Contains(lines[1], "0001234") {
		t.Fatalf("volume must be zero-padded: %q", lines[1])
	}
}

func TestStrategyLogSaveEmpty(t *testing.T) {
	var l StrategyLog
	if err := l.Save(t.TempDir()); err != nil {
		t.Fatalf("empty log save must be a no-op, got %v", err)
	}
}
