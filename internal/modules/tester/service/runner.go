package service

import (
	"errors"

	"backtest_bot/internal/indicator"
	"backtest_bot/internal/models"
	"backtest_bot/internal/modules/config"
	strategysvc "backtest_bot/internal/modules/strategy/service"

	"backtest_bot/pkg/logger"
)

// Tester гоняет стратегию по истории: один прогон на фиксированных
// параметрах либо полный перебор сетки (см. optimizer.go).
type Tester struct {
	conf  *config.Config
	ind   *indicator.Source
	instr *models.Instrument
	st    strategysvc.Settings
}

func NewTester(conf *config.Config, ind *indicator.Source, instr *models.Instrument) *Tester {
	return &Tester{
		conf:  conf,
		ind:   ind,
		instr: instr,
		st: strategysvc.Settings{
			StopLoss:            conf.Tuning.StopLoss,
			TakeProf:            conf.Tuning.TakeProf,
			SLTPMethod:          conf.Tuning.SLTPMethod,
			TrailStops:          conf.Tuning.TrailStops,
			CloseShortsOnDayEnd: conf.Tuning.CloseShortsOnDayEnd,
			Interval:            models.Interval(conf.Candles.Interval),
		},
	}
}

// OverrideSpread переводит спред из процентов настроек в абсолют
// по последней цене. Ноль в настройках оставляет спред инструмента.
func (t *Tester) OverrideSpread(candles []models.Candle) {
	if t.conf.Tester.SpreadPercent > 0 && len(candles) > 0 {
		t.instr.Spread = t.conf.Tester.SpreadPercent * candles[len(candles)-1].Close / 100
		logger.Info("spread override: %.6f (%.2f%%)", t.instr.Spread, t.conf.Tester.SpreadPercent)
	}
}

// StartIndex — откуда начинается прогон: хвост в Candles.Num свечей,
// всё до него — разгон индикаторов.
func (t *Tester) StartIndex(candles []models.Candle) int {
	idx := len(candles) - t.conf.Candles.Num
	if idx < 1 {
		idx = 1
	}
	return idx
}

// SingleRun — один прогон стратегии с конкретными параметрами.
// Стратегия создаётся заново на каждый прогон, её состояние не
// переживает прогон.
func (t *Tester) SingleRun(candles []models.Candle, strategyName string, params []int) (*Report, error) {
	strat, err := strategysvc.New(strategyName, t.ind)
	if err != nil {
		return nil, err
	}

	order := models.NewOrder()
	var history []models.Order
	var tickLog StrategyLog

	lots := t.conf.Strategy.Lots
	if lots <= 0 {
		lots = 1
	}

	startIndex := t.StartIndex(candles)
	for i := startIndex; i < len(candles); i++ {
		d, err := strategysvc.RunStrategy(strat, t.ind, candles[:i+1], params, t.st, t.instr, order, false)
		if err != nil {
			if errors.Is(err, indicator.ErrInsufficientData) {
				// разгон: индикатору ещё не хватает истории
				continue
			}
			return nil, err
		}

		candle := candles[i]
		switch d.Cmd {
		case models.CmdOpenBuy:
			order.Close(models.DirSell, candle, d.Reason, t.instr.Spread, &history)
			order.Open(models.DirBuy, candle, d.SL, d.TP, d.Reason, lots, params)
		case models.CmdOpenSell:
			order.Close(models.DirBuy, candle, d.Reason, t.instr.Spread, &history)
			if t.conf.Strategy.ShortsEnabled {
				order.Open(models.DirSell, candle, d.SL, d.TP, d.Reason, lots, params)
			}
		case models.CmdCloseBuy:
			order.Close(models.DirBuy, candle, d.Reason, t.instr.Spread, &history)
		case models.CmdCloseSell:
			order.Close(models.DirSell, candle, d.Reason, t.instr.Spread, &history)
		case models.CmdCloseAll:
			order.Close(models.DirBuy, candle, d.Reason, t.instr.Spread, &history)
			order.Close(models.DirSell, candle, d.Reason, t.instr.Spread, &history)
		case models.CmdNone:
		default:
			logger.Error("single run: unsupported command %q", d.Cmd)
		}

		if t.conf.Tester.StrategyLog {
			tickLog.Add(TickLog{
				Candle:     candle,
				Indicators: d.Indicators,
				Params:     params,
				Cmd:        d.Cmd,
				Reason:     d.Reason,
				SL:         d.SL,
				TP:         d.TP,
				Action:     order.LastAction,
			})
		}
	}

	// конец истории: всё, что осталось открытым, закрываем принудительно
	last := candles[len(candles)-1]
	order.Close(models.DirBuy, last, models.ReasonEndTrend, t.instr.Spread, &history)
	order.Close(models.DirSell, last, models.ReasonEndTrend, t.instr.Spread, &history)

	report := NewReport(history, params, t.conf.Tester.StartCapital, &tickLog, candles[startIndex].Time, last.Time)
	report.Generate()
	report.ComputeMetrics()

	return report, nil
}
