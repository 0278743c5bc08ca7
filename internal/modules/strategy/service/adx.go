package service

import (
	"math"

	"backtest_bot/internal/models"

	"backtest_bot/pkg/logger"
)

// ADXTrend — направление по DI, вход только на растущем ADX.
// params = [adx].
type ADXTrend struct{ base }

func (s *ADXTrend) Name() string { return NameADX }

func (s *ADXTrend) Decide(candles []models.Candle, params []int, _ *models.Order, _ *models.Instrument) (models.Decision, error) {
	d := models.NewDecision(models.CmdNone)

	adx, diPlus, diMinus, err := s.ind.ADX(candles, params[0])
	if err != nil {
		return d, err
	}
	adxPrev, _, _, err := s.ind.ADX(candles[:len(candles)-1], params[0])
	if err != nil {
		return d, err
	}

	switch {
	case diPlus > diMinus && adx > diMinus && adx > adxPrev:
		d.Cmd = models.CmdOpenBuy
	case diMinus > diPlus && adx > diPlus && adx > adxPrev:
		d.Cmd = models.CmdOpenSell
	case diPlus < diMinus:
		d.Cmd = models.CmdCloseBuy
	case diMinus < diPlus:
		d.Cmd = models.CmdCloseSell
	case adx < diPlus && adx < diMinus:
		d.Cmd = models.CmdCloseAll
	}

	d.Indicators = [4]float64{adx, diPlus, diMinus, adxPrev}
	return d, nil
}

// RegimeSwitch — двухрежимная стратегия: momentum в тренде (ADX выше
// порога), mean-reversion во флэте. После закрытия по стопу повторный
// вход в ту же сторону запрещён до противоположного сигнала.
// params = [emaFast, emaSlow, rsi, stochK, stochD, adx, atr].
type RegimeSwitch struct{ base }

func (s *RegimeSwitch) Name() string { return NameRegimeSwitch }

func (s *RegimeSwitch) SelfManaged() bool { return true }

func (s *RegimeSwitch) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *RegimeSwitch) Decide(candles []models.Candle, params []int, order *models.Order, _ *models.Instrument) (models.Decision, error) {
	const (
		rsiBuy            = 30.0
		rsiSell           = 70.0
		stochBuy          = 20.0
		stochSell         = 80.0
		adxTrendThreshold = 25.0
		slMultMeanRev     = 1.0
		tpMultMeanRev     = 1.5
		slMultMomo        = 0.75
		tpMultMomo        = 2.0
	)

	d := models.NewDecision(models.CmdNone)
	if order.Status == models.StatusOpen {
		return d, nil
	}

	adx, _, _, err := s.ind.ADX(candles, params[5])
	if err != nil {
		return d, err
	}
	emaFast, emaSlow, emaFastPrev, emaSlowPrev, err := s.emaPair(candles, params[0], params[1])
	if err != nil {
		return d, err
	}
	_, _, macdHist, err := s.ind.MACD(candles, 12, 26, 9)
	if err != nil {
		return d, err
	}
	rsi, err := s.ind.RSI(candles, params[2])
	if err != nil {
		return d, err
	}
	stochK, _, err := s.ind.Stochastic(candles, params[3], params[4], 1)
	if err != nil {
		return d, err
	}
	atr, err := s.ind.ATR(candles, params[6])
	if err != nil {
		return d, err
	}

	crossUp := emaFastPrev < emaSlowPrev && emaFast > emaSlow
	crossDown := emaFastPrev > emaSlowPrev && emaFast < emaSlow

	last := candles[len(candles)-1]
	trending := adx > adxTrendThreshold

	moLong := trending && crossUp && macdHist > 0
	moShort := trending && crossDown && macdHist < 0
	mrLong := !trending && (rsi < rsiBuy || stochK < stochBuy) && last.Close <= emaFast
	mrShort := !trending && (rsi > rsiSell || stochK > stochSell) && last.Close >= emaFast

	switch {
	case moLong && order.LastAction != models.ClosedBuySL:
		d.Cmd = models.CmdOpenBuy
		d.SL = last.Close - slMultMomo*atr
		d.TP = last.Close + tpMultMomo*atr
	case moShort && order.LastAction != models.ClosedSellSL:
		d.Cmd = models.CmdOpenSell
		d.SL = last.Close + slMultMomo*atr
		d.TP = last.Close - tpMultMomo*atr
	case mrLong && order.LastAction != models.ClosedBuySL:
		d.Cmd = models.CmdOpenBuy
		d.SL = last.Close - slMultMeanRev*atr
		d.TP = last.Close + tpMultMeanRev*atr
	case mrShort && order.LastAction != models.ClosedSellSL:
		d.Cmd = models.CmdOpenSell
		d.SL = last.Close + slMultMeanRev*atr
		d.TP = last.Close - tpMultMeanRev*atr
	}

	if d.Cmd != models.CmdNone {
		logger.Info("regime switch: %s trend=%v sl=%.2f tp=%.2f", d.Cmd, trending, d.SL, d.TP)
	}

	d.Indicators = [4]float64{adx, emaFast, emaSlow, rsi}
	return d, nil
}

// TrendFollow — вход по откату к быстрой EMA в установившемся тренде
// (EMA50/EMA200 + ADX), стопы от ATR. Параметры перебора не использует.
type TrendFollow struct{ base }

func (s *TrendFollow) Name() string { return NameTrendFollow }

func (s *TrendFollow) SelfManaged() bool { return true }

func (s *TrendFollow) Decide(candles []models.Candle, _ []int, order *models.Order, _ *models.Instrument) (models.Decision, error) {
	const (
		emaFastPeriod = 50
		emaSlowPeriod = 200
		adxPeriod     = 14
		rsiPeriod     = 14
		atrPeriod     = 14
		adxThreshold  = 25.0
		slATRMult     = 1.2
		tpATRMult     = 2.5
	)

	d := models.NewDecision(models.CmdNone)

	emaFast, err := s.ind.EMA(candles, emaFastPeriod)
	if err != nil {
		return d, err
	}
	emaSlow, err := s.ind.EMA(candles, emaSlowPeriod)
	if err != nil {
		return d, err
	}
	adx, _, _, err := s.ind.ADX(candles, adxPeriod)
	if err != nil {
		return d, err
	}
	rsi, err := s.ind.RSI(candles, rsiPeriod)
	if err != nil {
		return d, err
	}
	atr, err := s.ind.ATR(candles, atrPeriod)
	if err != nil {
		return d, err
	}

	last := candles[len(candles)-1]
	nearFast := math.Abs(last.Close-emaFast) <= 0.5*atr

	switch {
	case emaFast > emaSlow && adx >= adxThreshold:
		if nearFast && rsi >= 30 && rsi <= 60 {
			d.Cmd = models.CmdOpenBuy
			d.SL = last.Close - slATRMult*atr
			d.TP = last.Close + tpATRMult*atr
		}
	case emaFast < emaSlow && adx >= adxThreshold:
		if nearFast && rsi >= 40 && rsi <= 70 {
			d.Cmd = models.CmdOpenSell
			d.SL = last.Close + slATRMult*atr
			d.TP = last.Close - tpATRMult*atr
		}
	case adx < 20 && order.Status == models.StatusOpen:
		d.Cmd = models.CmdCloseAll
	}

	d.Indicators = [4]float64{emaFast, emaSlow, adx, rsi}
	return d, nil
}
