package service

import (
	"math"

	"backtest_bot/internal/models"
)

// MACD — пересечение основной и сигнальной линий.
// params = [fast, slow, signal].
type MACD struct{ base }

func (s *MACD) Name() string { return NameMACD }

func (s *MACD) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *MACD) Decide(candles []models.Candle, params []int, _ *models.Order, _ *models.Instrument) (models.Decision, error) {
	d := models.NewDecision(models.CmdNone)

	mline, sline, _, err := s.ind.MACD(candles, params[0], params[1], params[2])
	if err != nil {
		return d, err
	}
	mlinePrev, slinePrev, _, err := s.ind.MACD(candles[:len(candles)-1], params[0], params[1], params[2])
	if err != nil {
		return d, err
	}

	switch {
	case mlinePrev < slinePrev && mline > sline:
		d.Cmd = models.CmdOpenBuy
	case mlinePrev > slinePrev && mline < sline:
		d.Cmd = models.CmdOpenSell
	default:
		if mline < sline {
			d.Trend = models.TrendDown
		} else if mline > sline {
			d.Trend = models.TrendUp
		}
	}

	d.Indicators = [4]float64{mline, sline, mlinePrev, slinePrev}
	return d, nil
}

// MACDSimple — выше/ниже сигнальной линии без пересечения.
type MACDSimple struct{ base }

func (s *MACDSimple) Name() string { return NameMACDSimple }

func (s *MACDSimple) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *MACDSimple) Decide(candles []models.Candle, params []int, order *models.Order, _ *models.Instrument) (models.Decision, error) {
	d := models.NewDecision(models.CmdNone)

	mline, sline, _, err := s.ind.MACD(candles, params[0], params[1], params[2])
	if err != nil {
		return d, err
	}

	if mline > sline {
		d.Cmd = models.CmdOpenBuy
		d.Trend = models.TrendUp
	} else if mline < sline {
		d.Cmd = models.CmdOpenSell
		d.Trend = models.TrendDown
	}

	if order.Status == models.StatusOpen {
		if order.Direction == models.DirBuy && d.Cmd == models.CmdOpenBuy {
			d.Cmd = models.CmdNone
		} else if order.Direction == models.DirSell && d.Cmd == models.CmdOpenSell {
			d.Cmd = models.CmdNone
		}
	}

	d.Indicators = [4]float64{mline, sline, -1, -1}
	return d, nil
}

// MACDSLTP — MACD с ATR-стопами. params = [fast, slow, signal, atr, sl, tp].
type MACDSLTP struct{ base }

func (s *MACDSLTP) Name() string { return NameMACDSLTP }

func (s *MACDSLTP) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *MACDSLTP) Decide(candles []models.Candle, params []int, _ *models.Order, _ *models.Instrument) (models.Decision, error) {
	d := models.NewDecision(models.CmdNone)

	mline, sline, _, err := s.ind.MACD(candles, params[0], params[1], params[2])
	if err != nil {
		return d, err
	}
	mlinePrev, slinePrev, _, err := s.ind.MACD(candles[:len(candles)-1], params[0], params[1], params[2])
	if err != nil {
		return d, err
	}
	last := candles[len(candles)-1]

	switch {
	case mlinePrev < slinePrev && mline > sline:
		d.Cmd = models.CmdOpenBuy
		d.Trend = models.TrendUp
		atr, err := s.ind.ATR(candles, params[3])
		if err != nil {
			return d, err
		}
		d.SL = last.Close - atr*float64(params[4])/10
		d.TP = last.Close + atr*float64(params[5])/10
	case mlinePrev > slinePrev && mline < sline:
		d.Cmd = models.CmdOpenSell
		d.Trend = models.TrendDown
		atr, err := s.ind.ATR(candles, params[3])
		if err != nil {
			return d, err
		}
		d.SL = last.Close + atr*float64(params[4])/10
		d.TP = last.Close - atr*float64(params[5])/10
	default:
		if mline < sline {
			d.Trend = models.TrendDown
		} else if mline > sline {
			d.Trend = models.TrendUp
		}
	}

	d.Indicators = [4]float64{mline, sline, mlinePrev, slinePrev}
	return d, nil
}

// MACDRSI — вход по пересечению MACD с фильтрами RSI и EMA200,
// выход по экстремуму RSI или затуханию гистограммы.
// params = [fast, slow, signal, rsi].
type MACDRSI struct{ base }

func (s *MACDRSI) Name() string { return NameMACDRSI }

func (s *MACDRSI) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *MACDRSI) Decide(candles []models.Candle, params []int, order *models.Order, _ *models.Instrument) (models.Decision, error) {
	d := models.NewDecision(models.CmdNone)

	macdNow, signalNow, histNow, err := s.ind.MACD(candles, params[0], params[1], params[2])
	if err != nil {
		return d, err
	}
	macdPrev, signalPrev, histPrev, err := s.ind.MACD(candles[:len(candles)-1], params[0], params[1], params[2])
	if err != nil {
		return d, err
	}
	rsiNow, err := s.ind.RSI(candles, params[3])
	if err != nil {
		return d, err
	}

	// условие фиксации прибыли для этой стратегии
	if order.Status == models.StatusOpen {
		if order.Direction == models.DirBuy && (rsiNow > 70 || math.Abs(histNow) < math.Abs(histPrev)) {
			d.Cmd = models.CmdCloseBuy
			d.Reason = models.ReasonEndTrend
			return d, nil
		}
		if order.Direction == models.DirSell && (rsiNow < 30 || math.Abs(histNow) < math.Abs(histPrev)) {
			d.Cmd = models.CmdCloseSell
			d.Reason = models.ReasonEndTrend
			return d, nil
		}
	}

	last := candles[len(candles)-1]
	switch {
	case macdNow > signalNow && macdPrev < signalPrev:
		if rsiNow >= 30 && rsiNow <= 70 {
			ema200, err := s.ind.EMA(candles, 200)
			if err != nil {
				return d, err
			}
			if last.Close > ema200 {
				d.Cmd = models.CmdOpenBuy
			}
		}
	case macdNow < signalNow && macdPrev > signalPrev:
		if rsiNow >= 30 && rsiNow <= 70 {
			ema200, err := s.ind.EMA(candles, 200)
			if err != nil {
				return d, err
			}
			if last.Close < ema200 {
				d.Cmd = models.CmdOpenSell
			}
		}
	}

	return d, nil
}

// MACDRSIZones — старший вариант MACDRSI: вход разрешён только после
// захода RSI в зону перекупленности/перепроданности. Зоны — состояние
// прогона, поэтому живут в экземпляре стратегии.
type MACDRSIZones struct {
	base

	overbought bool
	oversold   bool
}

func (s *MACDRSIZones) Name() string { return NameMACDRSIZones }

func (s *MACDRSIZones) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *MACDRSIZones) Decide(candles []models.Candle, params []int, _ *models.Order, _ *models.Instrument) (models.Decision, error) {
	d := models.NewDecision(models.CmdNone)

	macdNow, signalNow, _, err := s.ind.MACD(candles, params[0], params[1], params[2])
	if err != nil {
		return d, err
	}
	macdPrev, signalPrev, _, err := s.ind.MACD(candles[:len(candles)-1], params[0], params[1], params[2])
	if err != nil {
		return d, err
	}
	rsiNow, err := s.ind.RSI(candles, params[3])
	if err != nil {
		return d, err
	}

	if rsiNow >= 70 {
		s.oversold = false
		s.overbought = true
	} else if rsiNow <= 30 {
		s.oversold = true
		s.overbought = false
	}

	if macdNow > signalNow && macdPrev < signalPrev {
		if rsiNow > 30 && s.oversold {
			d.Cmd = models.CmdOpenBuy
		}
	} else if macdNow < signalNow && macdPrev > signalPrev {
		if rsiNow < 70 && s.overbought {
			d.Cmd = models.CmdOpenSell
		}
	}

	d.Indicators = [4]float64{macdNow, signalNow, rsiNow, -1}
	return d, nil
}
