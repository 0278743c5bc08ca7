package service

import (
	"backtest_bot/internal/indicator"
	"backtest_bot/internal/models"

	"backtest_bot/pkg/logger"
)

// Settings — поведение контроллера на один прогон.
type Settings struct {
	StopLoss            int    // процент цены, либо десятые доли ATR при методе atr; 0 — выключен
	TakeProf            int    // аналогично StopLoss
	SLTPMethod          string // percent | atr
	TrailStops          bool
	CloseShortsOnDayEnd bool
	Interval            models.Interval
}

// endOfDayClosing — пора ли закрывать шорт перед концом сессии.
func endOfDayClosing(candle models.Candle, st Settings, instr *models.Instrument) bool {
	if !st.CloseShortsOnDayEnd {
		return false
	}
	return models.CandlesUntilEndOfDay(candle.Time, instr.DayEnd, st.Interval) <= 1
}

// RunStrategy — контроллер одного тика: сперва защитные условия
// (SL, TP, конец дня), потом решение стратегии, поверх — дефолтные
// стопы, трейлинг и нормализация команды относительно текущей позиции.
func RunStrategy(
	strat Strategy,
	ind *indicator.Source,
	candles []models.Candle,
	params []int,
	st Settings,
	instr *models.Instrument,
	order *models.Order,
	onlySLTP bool,
) (models.Decision, error) {

	last := candles[len(candles)-1]

	if slCondition(last, order) {
		d := models.NewDecision(models.CmdCloseAll)
		d.Reason = models.ReasonStopLoss
		return d, nil
	}
	if tpCondition(last, order) {
		d := models.NewDecision(models.CmdCloseAll)
		d.Reason = models.ReasonTakeProfit
		return d, nil
	}

	if onlySLTP {
		return models.NewDecision(models.CmdNone), nil
	}

	eod := endOfDayClosing(last, st, instr)
	if eod && order.Direction == models.DirSell && order.Status == models.StatusOpen {
		d := models.NewDecision(models.CmdCloseSell)
		d.Reason = models.ReasonEndDay
		return d, nil
	}

	d, err := strat.Decide(candles, params, order, instr)
	if err != nil {
		return d, err
	}

	// дефолтные SL/TP, если включены в настройках и стратегия их не выставила
	if (d.Cmd == models.CmdOpenBuy || d.Cmd == models.CmdOpenSell) && st.StopLoss > 0 && d.SL < 0 {
		if d.SL, err = calcSL(ind, candles, d.Cmd, st.StopLoss, st.SLTPMethod); err != nil {
			return d, err
		}
	}
	if (d.Cmd == models.CmdOpenBuy || d.Cmd == models.CmdOpenSell) && st.TakeProf > 0 && d.TP < 0 {
		if d.TP, err = calcTP(ind, candles, d.Cmd, st.TakeProf, st.SLTPMethod); err != nil {
			return d, err
		}
	}

	// трейлинг: только при открытой позиции и молчащей стратегии
	if st.TrailStops && d.Cmd == models.CmdNone && order.Status == models.StatusOpen {
		var newSL float64
		if st.SLTPMethod == "atr" {
			newSL, err = calcSLATR(ind, candles, order.Direction, params[0], st.StopLoss)
		} else {
			newSL, err = calcSL(ind, candles, dirToOpenCmd(order.Direction), st.StopLoss, st.SLTPMethod)
		}
		if err != nil {
			return d, err
		}
		if trailStops(last, newSL, order) {
			d.SL = order.SL
		}
	}

	// нормализация команды: причина и особые случаи
	switch d.Cmd {
	case models.CmdOpenBuy:
		if order.Status == models.StatusOpen {
			switch order.Direction {
			case models.DirSell:
				d.Reason = models.ReasonChangeDir
			case models.DirBuy:
				d.Cmd = models.CmdNone
				d.Reason = models.ReasonContinue
			default:
				logger.Error("run strategy: new order BUY, open order has dir %q", order.Direction)
				d.Reason = models.ReasonUnspecified
			}
		} else {
			d.Reason = models.ReasonNewTrend
		}

	case models.CmdOpenSell:
		if order.Status == models.StatusOpen {
			if eod {
				// намеренно ALL: даже если открыт BUY
				d.Cmd = models.CmdCloseAll
				d.Reason = models.ReasonEndDay
			} else {
				switch order.Direction {
				case models.DirBuy:
					d.Reason = models.ReasonChangeDir
				case models.DirSell:
					d.Cmd = models.CmdNone
					d.Reason = models.ReasonContinue
				default:
					logger.Error("run strategy: new order SELL, open order has dir %q", order.Direction)
					d.Reason = models.ReasonUnspecified
				}
			}
		} else {
			if eod {
				d.Cmd = models.CmdNone
			} else {
				d.Reason = models.ReasonNewTrend
			}
		}

	case models.CmdCloseBuy, models.CmdCloseSell, models.CmdCloseAll:
		if order.Status == models.StatusOpen {
			if d.Reason == models.ReasonUnspecified {
				d.Reason = models.ReasonEndTrend
			}
		} else {
			d.Cmd = models.CmdNone
			d.Reason = models.ReasonUnspecified
		}

	case models.CmdNone:
		if strat.SelfManaged() {
			break
		}
		if eod {
			if order.Status == models.StatusOpen && order.Direction == models.DirSell {
				d.Cmd = models.CmdCloseSell
				d.Reason = models.ReasonEndDay
			}
		} else if order.LastAction == models.ClosedSell && order.Status == models.StatusClosed &&
			order.Reason == models.ReasonEndDay {
			// шорт, закрытый на ночь, утром восстанавливаем с теми же стопами
			d.Cmd = models.CmdOpenSell
			d.Reason = models.ReasonRestore
			d.SL = order.SL
			d.TP = order.TP
		}
	}

	return d, nil
}
