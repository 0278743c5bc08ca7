package strategy

import (
	"backtest_bot/internal/indicator"
	"backtest_bot/internal/modules/config"

	"go.uber.org/fx"
)

// Module собирает вход стратегий в индикаторы. Кэш общий на процесс:
// комбинации параметров внутри одного тикера переиспользуют значения.
func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			func(conf *config.Config) *indicator.Cache {
				if !conf.Tuning.UseIndicatorCache {
					return nil
				}
				return indicator.NewCache(conf.Candles.Ticker)
			},
			indicator.NewSource,
		),
	)
}
