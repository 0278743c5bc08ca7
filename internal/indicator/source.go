package indicator

import (
	"backtest_bot/internal/models"
)

// Source — вход стратегий в индикаторы: считает по окну свечей и,
// если подключен кэш, мемоизирует по времени последней свечи окна.
// Nil-кэш означает «считаем каждый раз».
type Source struct {
	cache *Cache
}

func NewSource(cache *Cache) *Source {
	return &Source{cache: cache}
}

// Cache — для владельца: проверить dirty и сохранить.
func (s *Source) Cache() *Cache { return s.cache }

// tail — последние n свечей; короткое окно возвращаем как есть,
// чтобы нижний слой сам ответил ErrInsufficientData.
func tail(candles []models.Candle, n int) []models.Candle {
	if n > 0 && len(candles) > n {
		return candles[len(candles)-n:]
	}
	return candles
}

func (s *Source) cached(key Key, compute func() (Values, error)) (Values, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v, nil
		}
	}
	vals, err := compute()
	if err != nil {
		return Values{}, err
	}
	if s.cache != nil {
		s.cache.Put(key, vals)
	}
	return vals, nil
}

func (s *Source) SMA(candles []models.Candle, period int) (float64, error) {
	if len(candles) == 0 {
		return SMA(nil, period)
	}
	key := NewKey(candles[len(candles)-1].Time, KindSMA, period)
	vals, err := s.cached(key, func() (Values, error) {
		v, err := SMA(models.Closes(tail(candles, period)), period)
		return Values{v, -1, -1, -1}, err
	})
	return vals[0], err
}

func (s *Source) EMA(candles []models.Candle, period int) (float64, error) {
	if len(candles) == 0 {
		return EMA(nil, period)
	}
	key := NewKey(candles[len(candles)-1].Time, KindEMA, period)
	vals, err := s.cached(key, func() (Values, error) {
		v, err := EMA(models.Closes(tail(candles, 2*period)), period)
		return Values{v, -1, -1, -1}, err
	})
	return vals[0], err
}

// MACD возвращает (macd, signal, histogram).
func (s *Source) MACD(candles []models.Candle, fast, slow, signal int) (float64, float64, float64, error) {
	if len(candles) == 0 {
		_, _, _, err := MACD(nil, fast, slow, signal)
		return 0, 0, 0, err
	}
	key := NewKey(candles[len(candles)-1].Time, KindMACD, fast, slow, signal)
	vals, err := s.cached(key, func() (Values, error) {
		m, sig, _, err := MACD(models.Closes(tail(candles, 2*(slow+signal))), fast, slow, signal)
		return Values{m, sig, -1, -1}, err
	})
	if err != nil {
		return 0, 0, 0, err
	}
	return vals[0], vals[1], vals[0] - vals[1], nil
}

func (s *Source) RSI(candles []models.Candle, period int) (float64, error) {
	if len(candles) == 0 {
		return RSI(nil, period)
	}
	key := NewKey(candles[len(candles)-1].Time, KindRSI, period)
	vals, err := s.cached(key, func() (Values, error) {
		v, err := RSI(models.Closes(tail(candles, period+1)), period)
		return Values{v, -1, -1, -1}, err
	})
	return vals[0], err
}

func (s *Source) ATR(candles []models.Candle, period int) (float64, error) {
	if len(candles) == 0 {
		return ATR(nil, period)
	}
	key := NewKey(candles[len(candles)-1].Time, KindATR, period)
	vals, err := s.cached(key, func() (Values, error) {
		v, err := ATR(candles, period)
		return Values{v, -1, -1, -1}, err
	})
	return vals[0], err
}

// ADX возвращает (adx, +DI, -DI).
func (s *Source) ADX(candles []models.Candle, period int) (float64, float64, float64, error) {
	if len(candles) == 0 {
		_, _, _, err := ADX(nil, nil, nil, period)
		return 0, 0, 0, err
	}
	key := NewKey(candles[len(candles)-1].Time, KindADX, period)
	vals, err := s.cached(key, func() (Values, error) {
		w := tail(candles, 4*(period+1))
		adx, plusDI, minusDI, err := ADX(models.Lows(w), models.Highs(w), models.Closes(w), period)
		return Values{adx, plusDI, minusDI, -1}, err
	})
	if err != nil {
		return 0, 0, 0, err
	}
	return vals[0], vals[1], vals[2], nil
}

// Stochastic и пивоты дешёвые, их не кэшируем.
func (s *Source) Stochastic(candles []models.Candle, kPeriod, dPeriod, smooth int) (float64, float64, error) {
	return Stochastic(models.Closes(tail(candles, kPeriod+dPeriod-1)), kPeriod, dPeriod, smooth)
}

func (s *Source) Alligator(candles []models.Candle, jawP, teethP, lipP, jawS, teethS, lipS int) ([3]float64, error) {
	return Alligator(models.MedianPrices(tail(candles, 2*jawP+jawS)), jawP, teethP, lipP, jawS, teethS, lipS)
}

func (s *Source) DailyPivotPoints(candles []models.Candle) (float64, float64, float64, float64, error) {
	return DailyPivotPoints(candles)
}
