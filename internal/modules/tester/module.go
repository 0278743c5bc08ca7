package tester

import (
	"time"

	"backtest_bot/internal/models"
	"backtest_bot/internal/modules/config"
	"backtest_bot/internal/modules/tester/service"

	"go.uber.org/fx"
)

// Module собирает тестер: инструмент из настроек, раннер и репозиторий.
func Module() fx.Option {
	return fx.Module("tester",
		fx.Provide(
			func(conf *config.Config) *models.Instrument {
				return &models.Instrument{
					Ticker:        conf.Candles.Ticker,
					DayStart:      time.Date(0, 1, 1, conf.Tester.DayStartUTC, 0, 0, 0, time.UTC),
					DayEnd:        time.Date(0, 1, 1, conf.Tester.DayEndUTC, 0, 0, 0, time.UTC),
					ShortsEnabled: conf.Strategy.ShortsEnabled,
					Lot:           1,
				}
			},
			service.NewTester,
			service.NewRepository,
		),
	)
}
