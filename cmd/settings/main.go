package main

import (
	"fmt"
	"os"
	"path/filepath"

	strategysvc "backtest_bot/internal/modules/strategy/service"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const defaultConfigName = "values_local.yaml"

// Генератор стартового конфига тестера: дефолты + переменные окружения.
// Результат кладётся в configs/ и правится руками под конкретный тикер.
func generateConfig(engine *viper.Viper, dir string) (string, error) {
	engine.SetDefault("candles.ticker", "SBER")
	engine.SetDefault("candles.num", 3000)
	engine.SetDefault("candles.interval", "1hour")
	engine.SetDefault("candles.end_date", "now")

	engine.SetDefault("strategy.name", strategysvc.NameMACross)
	engine.SetDefault("strategy.selection", "Profit")
	engine.SetDefault("strategy.lots", 1)
	engine.SetDefault("strategy.shorts_enabled", true)
	engine.SetDefault("strategy.params", []map[string]interface{}{
		{"name": "ma_fast", "min": 5, "max": 50, "step": 5},
		{"name": "ma_slow", "min": 10, "max": 200, "step": 10},
	})

	engine.SetDefault("tester.start_capital", 100000)
	engine.SetDefault("tester.day_start_utc", 7)
	engine.SetDefault("tester.day_end_utc", 15)
	engine.SetDefault("tester.workers", 4)

	engine.SetDefault("tuning.sl_tp_method", "percent")
	engine.SetDefault("tuning.min_orders", 5)
	engine.SetDefault("tuning.min_profit_ord_percent", 75)
	engine.SetDefault("tuning.use_indicator_cache", true)

	engine.SetDefault("stats.dir", "data/stats")

	engine.AutomaticEnv()

	bs, err := yaml.Marshal(engine.AllSettings())
	if err != nil {
		return "", errors.Wrap(err, "marshal config to yaml")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create configs dir")
	}

	target := filepath.Join(dir, defaultConfigName)
	if _, err := os.Stat(target); err == nil {
		return "", errors.Errorf("%s already exists, remove it first", target)
	}

	if err := os.WriteFile(target, bs, 0o644); err != nil {
		return "", errors.Wrap(err, "write config file")
	}
	return target, nil
}

func main() {
	engine := viper.New()

	target, err := generateConfig(engine, "configs")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println("config written to", target)
	fmt.Println("available strategies:")
	for _, name := range strategysvc.Names() {
		fmt.Println("  -", name)
	}
}
