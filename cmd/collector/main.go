package main

import (
	"context"
	"log"

	"backtest_bot/internal/models"
	"backtest_bot/internal/modules/candles"
	candlesvc "backtest_bot/internal/modules/candles/service"
	"backtest_bot/internal/modules/config"
	"backtest_bot/internal/modules/health"
	healthsvc "backtest_bot/internal/modules/health/service"
	"backtest_bot/internal/modules/postgres"
	"backtest_bot/internal/modules/strategy"
	"backtest_bot/internal/modules/tester"

	"backtest_bot/pkg/logger"

	"go.uber.org/fx"
)

// Коллектор пишет закрытые свечи с биржи в Postgres, чтобы тестеру
// было из чего собирать историю.
func main() {
	logger.SetServiceName("candle_collector")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		config.Module(),
		postgres.Module(),
		strategy.Module(),
		candles.Module(),
		tester.Module(),
		health.Module(),
		fx.Invoke(run),
	)
	app.Run()
}

func run(
	lc fx.Lifecycle,
	conf *config.Config,
	ex *candlesvc.Exchange,
	repo *candlesvc.Repository,
	instr *models.Instrument,
	state *healthsvc.State,
) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			interval := models.Interval(conf.Candles.Interval)
			go collect(ctx, ex, repo, instr, interval, state)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func collect(
	ctx context.Context,
	ex *candlesvc.Exchange,
	repo *candlesvc.Repository,
	instr *models.Instrument,
	interval models.Interval,
	state *healthsvc.State,
) {
	stream := ex.StreamCandles(ctx, instr.Ticker, interval)
	state.SetWSConnected(true)
	state.SetReady(true)

	for candle := range stream {
		if err := repo.SaveBatch(ctx, instr.Ticker, interval, []models.Candle{candle}); err != nil {
			logger.Error("save candle: %v", err)
			continue
		}
		state.TouchCandle(candle.Time)
		logger.Info("candle saved: %s %s close=%.4f", instr.Ticker, candle.Time.Format("2006-01-02 15:04"), candle.Close)
	}

	state.SetWSConnected(false)
	state.SetReady(false)
	logger.Warn("candle stream finished")
}
