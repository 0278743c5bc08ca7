package service

import (
	"math"

	"backtest_bot/internal/indicator"
	"backtest_bot/internal/models"

	"github.com/pkg/errors"
)

func (b base) emaPair(candles []models.Candle, fastP, slowP int) (fast, slow, fastPrev, slowPrev float64, err error) {
	if fast, err = b.ind.EMA(candles, fastP); err != nil {
		return
	}
	if slow, err = b.ind.EMA(candles, slowP); err != nil {
		return
	}
	prev := candles[:len(candles)-1]
	if fastPrev, err = b.ind.EMA(prev, fastP); err != nil {
		return
	}
	slowPrev, err = b.ind.EMA(prev, slowP)
	return
}

// EMACross — пересечение экспоненциальных средних.
type EMACross struct{ base }

func (s *EMACross) Name() string { return NameEMACross }

func (s *EMACross) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *EMACross) Decide(candles []models.Candle, params []int, _ *models.Order, _ *models.Instrument) (models.Decision, error) {
	d := models.NewDecision(models.CmdNone)

	emaFast, emaSlow, emaFastPrev, emaSlowPrev, err := s.emaPair(candles, params[0], params[1])
	if err != nil {
		return d, err
	}

	switch {
	case emaFastPrev < emaSlowPrev && emaFast > emaSlow:
		d.Cmd = models.CmdOpenBuy
	case emaFastPrev > emaSlowPrev && emaFast < emaSlow:
		d.Cmd = models.CmdOpenSell
	default:
		if emaFast < emaSlow {
			d.Trend = models.TrendDown
		} else if emaFast > emaSlow {
			d.Trend = models.TrendUp
		}
	}

	d.Indicators = [4]float64{emaFast, emaSlow, emaFastPrev, emaSlowPrev}
	return d, nil
}

// EMACrossSimple — выше/ниже без пересечения, повторный сигнал в сторону
// открытой позиции гасится.
type EMACrossSimple struct{ base }

func (s *EMACrossSimple) Name() string { return NameEMACrossSimp }

func (s *EMACrossSimple) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *EMACrossSimple) Decide(candles []models.Candle, params []int, order *models.Order, _ *models.Instrument) (models.Decision, error) {
	d := models.NewDecision(models.CmdNone)

	emaFast, err := s.ind.EMA(candles, params[0])
	if err != nil {
		return d, err
	}
	emaSlow, err := s.ind.EMA(candles, params[1])
	if err != nil {
		return d, err
	}

	if emaFast > emaSlow {
		d.Cmd = models.CmdOpenBuy
		d.Trend = models.TrendUp
	} else if emaFast < emaSlow {
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

	d.Indicators = [4]float64{emaFast, emaSlow, -1, -1}
	return d, nil
}

// TrendPullback — откат к EMA в тренде, вход по поглощению на объёме.
// params = [emaFast, emaSlow].
type TrendPullback struct{ base }

func (s *TrendPullback) Name() string { return NameTrendPullback }

func (s *TrendPullback) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *TrendPullback) Decide(candles []models.Candle, params []int, _ *models.Order, _ *models.Instrument) (models.Decision, error) {
	const (
		nearEMAThreshold = 0.005 // цена в пределах 0.5% от EMA
		volLookback      = 20
		volEdge          = 1.2
		engulfEdge       = 1.3
	)

	d := models.NewDecision(models.CmdNone)
	if len(candles) < volLookback+1 {
		return d, errors.Wrapf(indicator.ErrInsufficientData, "pullback needs %d candles", volLookback+1)
	}

	emaFast, err := s.ind.EMA(candles, params[0])
	if err != nil {
		return d, err
	}
	emaSlow, err := s.ind.EMA(candles, params[1])
	if err != nil {
		return d, err
	}

	n := len(candles)
	last, prev := candles[n-1], candles[n-2]

	trendUp := emaFast > emaSlow
	trendDown := emaFast < emaSlow

	nearEMA := func(price, ema float64) bool {
		return math.Abs(price-ema)/ema <= nearEMAThreshold
	}
	closeNearEMA := nearEMA(last.Close, emaFast) || nearEMA(last.Close, emaSlow)

	var volSum int64
	for _, c := range candles[n-volLookback-1 : n-1] {
		volSum += c.Volume
	}
	strongVolume := float64(last.Volume) > volEdge*float64(volSum)/volLookback

	body := func(c models.Candle) float64 { return math.Abs(c.Close - c.Open) }

	bullishEngulfing := prev.Close < prev.Open &&
		last.Close > last.Open &&
		last.Close > prev.Open &&
		last.Open < prev.Close &&
		body(last) > engulfEdge*body(prev)

	bearishEngulfing := prev.Close > prev.Open &&
		last.Close < last.Open &&
		last.Open > prev.Close &&
		last.Close < prev.Open &&
		body(last) > engulfEdge*body(prev)

	switch {
	case trendUp && closeNearEMA && bullishEngulfing && strongVolume:
		d.Cmd = models.CmdOpenBuy
	case trendDown && closeNearEMA && bearishEngulfing && strongVolume:
		d.Cmd = models.CmdOpenSell
	case trendDown:
		d.Cmd = models.CmdCloseBuy
	case trendUp:
		d.Cmd = models.CmdCloseSell
	}

	d.Indicators = [4]float64{emaFast, emaSlow, -1, -1}
	return d, nil
}
