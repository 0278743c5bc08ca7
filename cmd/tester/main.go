package main

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"backtest_bot/internal/indicator"
	"backtest_bot/internal/models"
	"backtest_bot/internal/modules/candles"
	candlesvc "backtest_bot/internal/modules/candles/service"
	"backtest_bot/internal/modules/config"
	"backtest_bot/internal/modules/postgres"
	"backtest_bot/internal/modules/strategy"
	"backtest_bot/internal/modules/tester"
	testersvc "backtest_bot/internal/modules/tester/service"
	"backtest_bot/internal/notify"

	"backtest_bot/pkg/logger"
	"backtest_bot/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	logger.SetServiceName("backtest_tester")
	tracing.SetServiceName("backtest_tester")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			// Notifier: без токена шлём в stdout
			func(conf *config.Config) notify.Notifier {
				if conf.Telegram.Token != "" && conf.Telegram.ChatID != 0 {
					if tg, err := notify.NewTelegram(conf.Telegram.Token, conf.Telegram.ChatID); err == nil {
						return tg
					}
				}
				return notify.NewStdout()
			},
		),
		config.Module(),
		postgres.Module(),
		strategy.Module(),
		candles.Module(),
		tester.Module(),
		fx.Invoke(run),
	)
	app.Run()
}

type deps struct {
	fx.In

	Conf    *config.Config
	Candles *candlesvc.Service
	Tester  *testersvc.Tester
	Repo    *testersvc.Repository
	Cache   *indicator.Cache `optional:"true"`
	Instr   *models.Instrument
	Notify  notify.Notifier
}

func run(lc fx.Lifecycle, sh fx.Shutdowner, d deps) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := backtest(context.Background(), d); err != nil {
					logger.Error("backtest failed: %v", err)
				}
				_ = sh.Shutdown()
			}()
			return nil
		},
	})
}

func backtest(ctx context.Context, d deps) error {
	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Host: d.Conf.Jaeger.Host,
		Port: d.Conf.Jaeger.Port,
	})
	if err != nil {
		return err
	}
	defer closeTracer()

	started := time.Now()

	history, err := d.Candles.Collect(ctx, d.Instr)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		logger.Error("no candles collected for %s", d.Instr.Ticker)
		return nil
	}

	if d.Cache != nil {
		if err := d.Repo.LoadIndicatorCache(ctx, d.Cache); err != nil {
			logger.Warn("indicator cache load: %v", err)
		}
	}

	d.Tester.OverrideSpread(history)

	reports, err := d.Tester.Optimize(ctx, history)
	if err != nil {
		return err
	}

	statsDir := filepath.Join(d.Conf.Stats.Dir, d.Instr.Ticker, d.Conf.Strategy.Name)
	if err := testersvc.SaveSummary(reports, statsDir); err != nil {
		logger.Warn("save summary: %v", err)
	}

	best := chooseBest(d.Conf, reports, history)

	if d.Cache != nil {
		if err := d.Repo.SaveIndicatorCache(ctx, d.Cache); err != nil {
			logger.Warn("indicator cache save: %v", err)
		}
	}

	if best == nil {
		logger.Warn("best params were not found. NO GO")
		d.Notify.Sendf("%s/%s: подходящих параметров нет", d.Instr.Ticker, d.Conf.Strategy.Name)
		return nil
	}

	if d.Conf.Tester.StrategyLog {
		if err := best.Save(statsDir); err != nil {
			logger.Warn("save best report: %v", err)
		}
		if err := best.Log.Save(statsDir); err != nil {
			logger.Warn("save strategy log: %v", err)
		}
	}

	if err := d.Repo.SaveBest(ctx, d.Instr.Ticker, d.Conf.Strategy.Name, best); err != nil {
		logger.Warn("save best params: %v", err)
	}

	logger.Info("BEST PARAMS for %s: %v (profitability %.2f%%, CAGR %.4f, Sharpe %.2f, PF %.2f, MaxDD %.2f%%)",
		d.Instr.Ticker, best.Params, best.Profitability, best.CAGR, best.Sharpe, best.ProfitFactor, 100*best.MaxDD)
	d.Notify.Sendf("%s/%s: лучшие параметры %v, доходность %.2f%%, ордеров %d (%d/%d), за %s",
		d.Instr.Ticker, d.Conf.Strategy.Name, best.Params, best.Profitability,
		best.NumOrders, best.NumProfitOrders, best.NumLossOrders, time.Since(started).Round(time.Second))

	return nil
}

func chooseBest(conf *config.Config, reports []*testersvc.Report, history []models.Candle) *testersvc.Report {
	switch conf.Strategy.Selection {
	case "Reliable":
		return testersvc.ChooseBestReliable(reports, conf.Tester.NumDays, conf.Tuning.MinOrders, conf.Tuning.MinProfitOrdPercent)
	case "Weighted":
		end := history[len(history)-1].Time
		start := end
		if conf.Tester.NumDays > 0 {
			start = end.AddDate(0, 0, -conf.Tester.NumDays)
		} else if len(reports) > 0 {
			start = reports[0].StartDate
		}
		return testersvc.ChooseBestWeighted(reports, start, end, conf.Tuning.MinOrders)
	default:
		return testersvc.ChooseBestProfit(reports, conf.Tuning.MinOrders)
	}
}
