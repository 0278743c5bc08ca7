package candles

import (
	"backtest_bot/internal/modules/candles/service"

	"go.uber.org/fx"
)

// Module — источник исторических свечей: Postgres + биржевой шлюз.
func Module() fx.Option {
	return fx.Module("candles",
		fx.Provide(
			service.NewRepository,
			service.NewExchange,
			service.NewService,
		),
	)
}
