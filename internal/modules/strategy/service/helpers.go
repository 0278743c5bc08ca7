package service

import (
	"backtest_bot/internal/indicator"
	"backtest_bot/internal/models"

	"backtest_bot/pkg/logger"
)

const defaultATRPeriod = 14

// calcSL — стоп по проценту цены либо по доле ATR (slp в десятых: 15 => 1.5 ATR).
func calcSL(ind *indicator.Source, candles []models.Candle, cmd models.Command, slp int, method string) (float64, error) {
	if slp <= 0 {
		return -1, nil
	}
	last := candles[len(candles)-1].Close

	if method == "atr" {
		atr, err := ind.ATR(candles, defaultATRPeriod)
		if err != nil {
			return -1, err
		}
		switch cmd {
		case models.CmdOpenBuy:
			return last - atr*float64(slp)/10, nil
		case models.CmdOpenSell:
			return last + atr*float64(slp)/10, nil
		}
		return -1, nil
	}

	switch cmd {
	case models.CmdOpenBuy:
		return last * (1 - float64(slp)/100), nil
	case models.CmdOpenSell:
		return last * (1 + float64(slp)/100), nil
	}
	return -1, nil
}

// calcSLATR — стоп для трейлинга: slp здесь прямой множитель ATR.
func calcSLATR(ind *indicator.Source, candles []models.Candle, dir models.OrderDir, atrPeriod, slp int) (float64, error) {
	if slp <= 0 {
		return -1, nil
	}
	atr, err := ind.ATR(candles, atrPeriod)
	if err != nil {
		return -1, err
	}
	last := candles[len(candles)-1].Close
	switch dir {
	case models.DirBuy:
		return last - atr*float64(slp), nil
	case models.DirSell:
		return last + atr*float64(slp), nil
	}
	return -1, nil
}

func calcTP(ind *indicator.Source, candles []models.Candle, cmd models.Command, tpp int, method string) (float64, error) {
	if tpp <= 0 {
		return -1, nil
	}
	last := candles[len(candles)-1].Close

	if method == "atr" {
		atr, err := ind.ATR(candles, defaultATRPeriod)
		if err != nil {
			return -1, err
		}
		switch cmd {
		case models.CmdOpenBuy:
			return last + atr*float64(tpp)/10, nil
		case models.CmdOpenSell:
			return last - atr*float64(tpp)/10, nil
		}
		return -1, nil
	}

	switch cmd {
	case models.CmdOpenBuy:
		return last * (1 + float64(tpp)/100), nil
	case models.CmdOpenSell:
		return last * (1 - float64(tpp)/100), nil
	}
	return -1, nil
}

// slCondition — пробит ли стоп текущей свечой. BUY смотрит на Low,
// SELL на High: внутрисвечное движение тоже выбивает стоп.
func slCondition(candle models.Candle, order *models.Order) bool {
	if order.SL <= 0 || order.Status != models.StatusOpen {
		return false
	}
	if order.Direction == models.DirBuy && candle.Low <= order.SL {
		return true
	}
	if order.Direction == models.DirSell && candle.High >= order.SL {
		return true
	}
	return false
}

// tpCondition — тейк по цене закрытия, консервативнее стопа.
func tpCondition(candle models.Candle, order *models.Order) bool {
	if order.TP <= 0 || order.Status != models.StatusOpen {
		return false
	}
	if order.Direction == models.DirBuy && candle.Close >= order.TP {
		return true
	}
	if order.Direction == models.DirSell && candle.Close <= order.TP {
		return true
	}
	return false
}

// trailStops подтягивает стоп только в выгодную сторону.
func trailStops(candle models.Candle, newSL float64, order *models.Order) bool {
	if order.SL <= 0 || order.Status != models.StatusOpen {
		return false
	}
	if order.Direction == models.DirBuy && newSL > order.SL {
		logger.Info("trail stops: BUY price=%.4f old SL=%.4f new SL=%.4f", candle.Close, order.SL, newSL)
		order.SL = newSL
		return true
	}
	if order.Direction == models.DirSell && newSL < order.SL {
		logger.Info("trail stops: SELL price=%.4f old SL=%.4f new SL=%.4f", candle.Close, order.SL, newSL)
		order.SL = newSL
		return true
	}
	return false
}

// findPrevSwingLow ищет ближайший фрактальный минимум (минимум в окне
// из пяти свечей) справа налево. Если фрактала нет — Low последней свечи.
func findPrevSwingLow(candles []models.Candle) float64 {
	n := len(candles)
	for i := n - 3; i >= 3; i-- {
		low := candles[i].Low
		if low <= candles[i-2].Low && low <= candles[i-1].Low &&
			low <= candles[i+1].Low && low <= candles[i+2].Low {
			return low
		}
	}
	return candles[n-1].Low
}

func findPrevSwingHigh(candles []models.Candle) float64 {
	n := len(candles)
	for i := n - 3; i >= 3; i-- {
		high := candles[i].High
		if high >= candles[i-2].High && high >= candles[i-1].High &&
			high >= candles[i+1].High && high >= candles[i+2].High {
			return high
		}
	}
	return candles[n-1].High
}

func dirToOpenCmd(dir models.OrderDir) models.Command {
	switch dir {
	case models.DirBuy:
		return models.CmdOpenBuy
	case models.DirSell:
		return models.CmdOpenSell
	}
	return models.CmdNone
}
