package postgres

import (
	"context"

	"backtest_bot/internal/modules/config"
	"backtest_bot/pkg/db"

	"go.uber.org/fx"
)

// Module поднимает пул соединений и транзакционный менеджер.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(lc fx.Lifecycle, conf *config.Config) (db.TxManager, error) {
				pool, err := db.NewPool(context.Background(), db.PoolConfig{
					DSN: conf.DB,
				})
				if err != nil {
					return nil, err
				}
				manager := db.NewPgTxManager(pool)
				lc.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						manager.Close()
						return nil
					},
				})
				return manager, nil
			},
		),
	)
}
