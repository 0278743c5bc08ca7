package service

import (
	"backtest_bot/internal/indicator"
	"backtest_bot/internal/models"

	"github.com/pkg/errors"
)

// smaPair считает быструю/медленную SMA на текущем окне и на окне без
// последней свечи. Пересечение определяется по смене знака разницы.
func (b base) smaPair(candles []models.Candle, fastP, slowP int) (fast, slow, fastPrev, slowPrev float64, err error) {
	if fast, err = b.ind.SMA(candles, fastP); err != nil {
		return
	}
	if slow, err = b.ind.SMA(candles, slowP); err != nil {
		return
	}
	prev := candles[:len(candles)-1]
	if fastPrev, err = b.ind.SMA(prev, fastP); err != nil {
		return
	}
	slowPrev, err = b.ind.SMA(prev, slowP)
	return
}

// MACross — пересечение двух SMA: снизу вверх BUY, сверху вниз SELL.
type MACross struct{ base }

func (s *MACross) Name() string { return NameMACross }

func (s *MACross) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *MACross) Decide(candles []models.Candle, params []int, _ *models.Order, _ *models.Instrument) (models.Decision, error) {
	d := models.NewDecision(models.CmdNone)

	maFast, maSlow, maFastPrev, maSlowPrev, err := s.smaPair(candles, params[0], params[1])
	if err != nil {
		return d, err
	}

	switch {
	case maFastPrev < maSlowPrev && maFast > maSlow:
		d.Cmd = models.CmdOpenBuy
		d.Trend = models.TrendUp
	case maFastPrev > maSlowPrev && maFast < maSlow:
		d.Cmd = models.CmdOpenSell
		d.Trend = models.TrendDown
	default:
		if maFast < maSlow {
			d.Trend = models.TrendDown
		} else if maFast > maSlow {
			d.Trend = models.TrendUp
		}
	}

	d.Indicators = [4]float64{maFast, maSlow, maFastPrev, maSlowPrev}
	return d, nil
}

// MACrossSimple — без пересечения: выше/ниже и всё. Сигнал в ту же
// сторону, что открытая позиция, гасится.
type MACrossSimple struct{ base }

func (s *MACrossSimple) Name() string { return NameMACrossSimple }

func (s *MACrossSimple) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *MACrossSimple) Decide(candles []models.Candle, params []int, order *models.Order, _ *models.Instrument) (models.Decision, error) {
	d := models.NewDecision(models.CmdNone)

	maFast, err := s.ind.SMA(candles, params[0])
	if err != nil {
		return d, err
	}
	maSlow, err := s.ind.SMA(candles, params[1])
	if err != nil {
		return d, err
	}

	if maFast > maSlow {
		d.Cmd = models.CmdOpenBuy
		d.Trend = models.TrendUp
	} else if maFast < maSlow {
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

	d.Indicators = [4]float64{maFast, maSlow, -1, -1}
	return d, nil
}

// MACrossSLTP — MACross с ATR-стопами: params = [fast, slow, atr, sl, tp],
// sl/tp в десятых долях ATR.
type MACrossSLTP struct{ base }

func (s *MACrossSLTP) Name() string { return NameMACrossSLTP }

func (s *MACrossSLTP) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *MACrossSLTP) Decide(candles []models.Candle, params []int, _ *models.Order, _ *models.Instrument) (models.Decision, error) {
	d := models.NewDecision(models.CmdNone)

	maFast, maSlow, maFastPrev, maSlowPrev, err := s.smaPair(candles, params[0], params[1])
	if err != nil {
		return d, err
	}
	last := candles[len(candles)-1]

	switch {
	case maFastPrev < maSlowPrev && maFast > maSlow:
		d.Cmd = models.CmdOpenBuy
		d.Trend = models.TrendUp
		atr, err := s.ind.ATR(candles, params[2])
		if err != nil {
			return d, err
		}
		d.SL = last.Close - atr*float64(params[3])/10
		d.TP = last.Close + atr*float64(params[4])/10
	case maFastPrev > maSlowPrev && maFast < maSlow:
		d.Cmd = models.CmdOpenSell
		d.Trend = models.TrendDown
		atr, err := s.ind.ATR(candles, params[2])
		if err != nil {
			return d, err
		}
		d.SL = last.Close + atr*float64(params[3])/10
		d.TP = last.Close - atr*float64(params[4])/10
	default:
		if maFast < maSlow {
			d.Trend = models.TrendDown
		} else if maFast > maSlow {
			d.Trend = models.TrendUp
		}
	}

	return d, nil
}

// MACrossSL — стоп от последнего свинга, отодвинутый на долю ATR:
// params = [fast, slow, atr, sl].
type MACrossSL struct{ base }

func (s *MACrossSL) Name() string { return NameMACrossSL }

func (s *MACrossSL) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *MACrossSL) Decide(candles []models.Candle, params []int, _ *models.Order, _ *models.Instrument) (models.Decision, error) {
	d := models.NewDecision(models.CmdNone)

	maFast, maSlow, maFastPrev, maSlowPrev, err := s.smaPair(candles, params[0], params[1])
	if err != nil {
		return d, err
	}

	switch {
	case maFastPrev < maSlowPrev && maFast > maSlow:
		d.Cmd = models.CmdOpenBuy
		d.Trend = models.TrendUp
		atr, err := s.ind.ATR(candles, params[2])
		if err != nil {
			return d, err
		}
		d.SL = findPrevSwingLow(candles) - atr*float64(params[3])/10
	case maFastPrev > maSlowPrev && maFast < maSlow:
		d.Cmd = models.CmdOpenSell
		d.Trend = models.TrendDown
		atr, err := s.ind.ATR(candles, params[2])
		if err != nil {
			return d, err
		}
		d.SL = findPrevSwingHigh(candles) + atr*float64(params[3])/10
	default:
		if maFast < maSlow {
			d.Trend = models.TrendDown
		} else if maFast > maSlow {
			d.Trend = models.TrendUp
		}
	}

	return d, nil
}

// MAADXSL — MACrossSL c режимным фильтром: при ADX < 20 тренда нет,
// закрываем всё. params = [fast, slow, atr, sl, adx].
type MAADXSL struct{ MACrossSL }

func (s *MAADXSL) Name() string { return NameMAADXSL }

func (s *MAADXSL) Decide(candles []models.Candle, params []int, order *models.Order, instr *models.Instrument) (models.Decision, error) {
	adx, _, _, err := s.ind.ADX(candles, params[4])
	if err != nil {
		return models.NewDecision(models.CmdNone), err
	}
	if adx < 20 {
		d := models.NewDecision(models.CmdCloseAll)
		d.Reason = models.ReasonEndTrend
		return d, nil
	}
	return s.MACrossSL.Decide(candles, params, order, instr)
}

// MAVolume — всплеск объёма против трёх предыдущих свечей, направление
// по соотношению SMA. params = [fast, slow, volEdge]. Без SL/TP сверху
// эта стратегия не живёт.
type MAVolume struct{ base }

func (s *MAVolume) Name() string { return NameMAVolume }

func (s *MAVolume) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *MAVolume) Decide(candles []models.Candle, params []int, _ *models.Order, _ *models.Instrument) (models.Decision, error) {
	d := models.NewDecision(models.CmdNone)
	if len(candles) < 4 {
		return d, errors.Wrap(indicator.ErrInsufficientData, "volume lookback needs 4 candles")
	}

	n := len(candles)
	volMax := max3(candles[n-2].Volume, candles[n-3].Volume, candles[n-4].Volume)
	if float64(candles[n-1].Volume) <= float64(params[2])*float64(volMax) {
		return d, nil
	}

	maFast, err := s.ind.SMA(candles, params[0])
	if err != nil {
		return d, err
	}
	maSlow, err := s.ind.SMA(candles, params[1])
	if err != nil {
		return d, err
	}
	if maFast > maSlow {
		d.Cmd = models.CmdOpenBuy
	} else if maFast < maSlow {
		d.Cmd = models.CmdOpenSell
	}
	return d, nil
}

// MAVolumeSL — MAVolume со стопом от свинга. params = [fast, slow, volEdge, sl].
type MAVolumeSL struct{ base }

func (s *MAVolumeSL) Name() string { return NameMAVolumeSL }

func (s *MAVolumeSL) ParamsOK(params []int) bool { return crossParamsOK(params) }

func (s *MAVolumeSL) Decide(candles []models.Candle, params []int, _ *models.Order, _ *models.Instrument) (models.Decision, error) {
	const atrPeriod = 14

	d := models.NewDecision(models.CmdNone)
	if len(candles) < 4 {
		return d, errors.Wrap(indicator.ErrInsufficientData, "volume lookback needs 4 candles")
	}

	n := len(candles)
	volMax := max3(candles[n-2].Volume, candles[n-3].Volume, candles[n-4].Volume)
	if float64(candles[n-1].Volume) <= float64(params[2])*float64(volMax) {
		return d, nil
	}

	maFast, err := s.ind.SMA(candles, params[0])
	if err != nil {
		return d, err
	}
	maSlow, err := s.ind.SMA(candles, params[1])
	if err != nil {
		return d, err
	}
	if maFast > maSlow {
		d.Cmd = models.CmdOpenBuy
		atr, err := s.ind.ATR(candles, atrPeriod)
		if err != nil {
			return d, err
		}
		d.SL = findPrevSwingLow(candles) - atr*float64(params[3])/10
	} else if maFast < maSlow {
		d.Cmd = models.CmdOpenSell
		atr, err := s.ind.ATR(candles, atrPeriod)
		if err != nil {
			return d, err
		}
		d.SL = findPrevSwingHigh(candles) + atr*float64(params[3])/10
	}
	return d, nil
}

func max3(a, b, c int64) int64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
