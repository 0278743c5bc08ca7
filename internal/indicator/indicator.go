// Package indicator — чистая математика теханализа поверх хвоста
// ценового ряда. Все функции детерминированы и без побочных эффектов:
// одинаковое окно и параметры всегда дают одинаковый результат,
// на этом держится кэш и воспроизводимость бэктестов.
package indicator

import (
	"math"

	"github.com/pkg/errors"

	"backtest_bot/internal/models"
)

var (
	// ErrInsufficientData — окно короче минимально необходимого.
	// Вызывающий обязан добирать историю сам, тут ничего не чинится.
	ErrInsufficientData = errors.New("indicator: insufficient data")
	// ErrBadParams — неположительный период или несогласованные параметры.
	ErrBadParams = errors.New("indicator: bad parameters")
)

// SMA — среднее арифметическое последних period значений.
func SMA(data []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Wrapf(ErrBadParams, "sma: period=%d", period)
	}
	if len(data) < period {
		return 0, errors.Wrapf(ErrInsufficientData, "sma: len=%d, expected %d", len(data), period)
	}

	sum := 0.0
	for _, v := range data[len(data)-period:] {
		sum += v
	}
	return sum / float64(period), nil
}

// EMA — экспоненциальное среднее, k = 2/(period+1). Сеем SMA по блоку,
// предшествующему последним period значениям, затем прогоняем рекурренту
// по хвосту. Требует минимум 2*period точек.
func EMA(data []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Wrapf(ErrBadParams, "ema: period=%d", period)
	}
	if len(data) < 2*period {
		return 0, errors.Wrapf(ErrInsufficientData, "ema: len=%d, expected %d", len(data), 2*period)
	}

	k := 2.0 / (float64(period) + 1.0)
	prev, err := SMA(data[:len(data)-period], period)
	if err != nil {
		return 0, err
	}
	for _, v := range data[len(data)-period:] {
		prev = (v-prev)*k + prev
	}
	return prev, nil
}

// SMMA — сглаженное среднее Уайлдера: сеем SMA по предыдущему блоку
// period, дальше v' = (v*(period-1) + x)/period.
func SMMA(data []float64, period int) (float64, error) {
	if period < 1 {
		return 0, errors.Wrapf(ErrBadParams, "smma: period=%d", period)
	}
	if len(data) < 2*period {
		return 0, errors.Wrapf(ErrInsufficientData, "smma: len=%d, expected %d", len(data), 2*period)
	}

	prev := 0.0
	for _, v := range data[len(data)-2*period : len(data)-period] {
		prev += v
	}
	prev /= float64(period)

	for _, v := range data[len(data)-period:] {
		prev = (prev*float64(period-1) + v) / float64(period)
	}
	return prev, nil
}

// Alligator — три SMMA (jaw/teeth/lips) со сдвигами в прошлое.
// Вход — медианные цены (High+Low)/2.
func Alligator(data []float64, jawP, teethP, lipP, jawS, teethS, lipS int) ([3]float64, error) {
	var gator [3]float64
	if jawP < 1 || teethP < 1 || lipP < 1 || jawS < 1 || teethS < 1 || lipS < 1 {
		return gator, errors.Wrapf(ErrBadParams, "alligator: %d/%d/%d shifts %d/%d/%d", jawP, teethP, lipP, jawS, teethS, lipS)
	}
	minLen := jawP*2 + jawS
	if len(data) < minLen {
		return gator, errors.Wrapf(ErrInsufficientData, "alligator: len=%d, expected %d", len(data), minLen)
	}

	var err error
	if gator[0], err = SMMA(data[:len(data)-jawS], jawP); err != nil {
		return gator, err
	}
	if gator[1], err = SMMA(data[:len(data)-teethS], teethP); err != nil {
		return gator, err
	}
	if gator[2], err = SMMA(data[:len(data)-lipS], lipP); err != nil {
		return gator, err
	}
	return gator, nil
}

// MACD возвращает (macd, signal, histogram). Короткая история MACD
// строится на signal*2 смещениях назад, сигнальная линия — EMA по ней.
func MACD(data []float64, fast, slow, signal int) (float64, float64, float64, error) {
	if fast < 1 || slow < 1 || signal < 1 {
		return 0, 0, 0, errors.Wrapf(ErrBadParams, "macd: %d/%d/%d", fast, slow, signal)
	}
	if len(data) < 2*slow+2*signal {
		return 0, 0, 0, errors.Wrapf(ErrInsufficientData, "macd: len=%d, expected %d", len(data), 2*slow+2*signal)
	}

	hist := make([]float64, signal*2)
	for i := 0; i < signal*2; i++ {
		window := data[:len(data)-i]
		emaFast, err := EMA(window[len(window)-2*fast:], fast)
		if err != nil {
			return 0, 0, 0, err
		}
		emaSlow, err := EMA(window[len(window)-2*slow:], slow)
		if err != nil {
			return 0, 0, 0, err
		}
		hist[signal*2-1-i] = emaFast - emaSlow
	}

	signalLine, err := EMA(hist, signal)
	if err != nil {
		return 0, 0, 0, err
	}
	macd := hist[len(hist)-1]
	return macd, signalLine, macd - signalLine, nil
}

// RSI по последним period изменениям цены. Когда сумма потерь нулевая
// (рынок рос весь период) — ровно 100, а не деление на ноль.
func RSI(data []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Wrapf(ErrBadParams, "rsi: period=%d", period)
	}
	if len(data) < period+1 {
		return 0, errors.Wrapf(ErrInsufficientData, "rsi: len=%d, expected %d", len(data), period+1)
	}

	gain, loss := 0.0, 0.0
	for i := len(data) - period; i < len(data); i++ {
		delta := data[i] - data[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}

	if loss == 0 {
		return 100.0, nil
	}
	rs := gain / loss
	return 100 - (100 / (1 + rs)), nil
}

// Stochastic возвращает (%K, %D). Нулевой размах окна даёт %K = 0 —
// валидное состояние рынка, не ошибка.
func Stochastic(data []float64, kPeriod, dPeriod, smooth int) (float64, float64, error) {
	if kPeriod < 1 || dPeriod < 1 || smooth < 1 {
		return 0, 0, errors.Wrapf(ErrBadParams, "stochastic: %d/%d/%d", kPeriod, dPeriod, smooth)
	}
	if len(data) < kPeriod || len(data) < kPeriod+dPeriod-1 {
		return 0, 0, errors.Wrapf(ErrInsufficientData, "stochastic: len=%d, expected %d", len(data), kPeriod+dPeriod-1)
	}

	percentK := rawK(data, kPeriod, 0)

	recentK := make([]float64, dPeriod)
	for i := 0; i < dPeriod; i++ {
		recentK[i] = rawK(data, kPeriod, i)
	}

	// %D — среднее последних smooth значений %K в скользящем окне dPeriod
	// (хвост списка — самые глубокие смещения, как и в эталонной формуле).
	start := dPeriod - smooth
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, v := range recentK[start:] {
		sum += v
	}
	return percentK, sum / float64(smooth), nil
}

// rawK — %K со смещением offset свечей назад.
func rawK(data []float64, kPeriod, offset int) float64 {
	window := data[len(data)-kPeriod-offset : len(data)-offset]
	low, high := window[0], window[0]
	for _, v := range window {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	if high == low {
		return 0
	}
	return (data[len(data)-1-offset] - low) / (high - low) * 100
}

// TrueRange — максимум из трёх разбросов свечи относительно прошлого закрытия.
func TrueRange(high, low, closePrev float64) float64 {
	tr := high - low
	if d := math.Abs(high - closePrev); d > tr {
		tr = d
	}
	if d := math.Abs(low - closePrev); d > tr {
		tr = d
	}
	return tr
}

// ADX возвращает (adx, +DI, -DI). Сглаживание Уайлдера: TR через SMA-окна,
// DM через SMMA-окна, DX добивается финальным SMMA.
func ADX(low, high, close []float64, period int) (float64, float64, float64, error) {
	if period <= 0 {
		return 0, 0, 0, errors.Wrapf(ErrBadParams, "adx: period=%d", period)
	}
	if len(low) != len(high) || len(low) != len(close) {
		return 0, 0, 0, errors.Wrapf(ErrBadParams, "adx: len mismatch %d:%d:%d", len(low), len(high), len(close))
	}
	if len(low) < 2*(period+1) {
		return 0, 0, 0, errors.Wrapf(ErrInsufficientData, "adx: len=%d, expected %d", len(low), 2*(period+1))
	}

	n := len(low)
	trList := make([]float64, 0, n-1)
	plusDM := make([]float64, 0, n-1)
	minusDM := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		trList = append(trList, TrueRange(high[i], low[i], close[i-1]))

		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		plus, minus := 0.0, 0.0
		if up > down && up > 0 {
			plus = up
		}
		if down > up && down > 0 {
			minus = down
		}
		plusDM = append(plusDM, plus)
		minusDM = append(minusDM, minus)
	}

	trSmoothed := make([]float64, 0, len(trList)-period+1)
	for i := 0; i+period <= len(trList); i++ {
		v, err := SMA(trList[i:i+period], period)
		if err != nil {
			return 0, 0, 0, err
		}
		trSmoothed = append(trSmoothed, v)
	}

	smoothDM := func(dm []float64) ([]float64, error) {
		out := make([]float64, 0, len(dm)-2*period+1)
		for i := 0; i+2*period <= len(dm); i++ {
			v, err := SMMA(dm[i:i+2*period], period)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	plusSmoothed, err := smoothDM(plusDM)
	if err != nil {
		return 0, 0, 0, err
	}
	minusSmoothed, err := smoothDM(minusDM)
	if err != nil {
		return 0, 0, 0, err
	}
	trSmoothed = trSmoothed[len(trSmoothed)-len(plusSmoothed):]

	plusDI := make([]float64, len(trSmoothed))
	minusDI := make([]float64, len(trSmoothed))
	dx := make([]float64, len(trSmoothed))
	for i := range trSmoothed {
		// нулевой TR — мёртвый рынок, DI определяем нулём
		if trSmoothed[i] != 0 {
			plusDI[i] = 100 * plusSmoothed[i] / trSmoothed[i]
			minusDI[i] = 100 * minusSmoothed[i] / trSmoothed[i]
		}
		if sum := plusDI[i] + minusDI[i]; sum != 0 {
			dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
		}
	}

	adx, err := SMMA(dx, period)
	if err != nil {
		return 0, 0, 0, err
	}
	return adx, plusDI[len(plusDI)-1], minusDI[len(minusDI)-1], nil
}

// Bollinger возвращает (middle, upper, lower) = SMA ± 2σ. Дисперсия
// считается относительно скользящей SMA в каждой точке, не одной общей.
func Bollinger(data []float64, period int) (float64, float64, float64, error) {
	if period <= 0 {
		return 0, 0, 0, errors.Wrapf(ErrBadParams, "bollinger: period=%d", period)
	}
	if len(data) < 2*period {
		return 0, 0, 0, errors.Wrapf(ErrInsufficientData, "bollinger: len=%d, expected %d", len(data), 2*period)
	}

	const multiplier = 2.0
	middle, err := SMA(data, period)
	if err != nil {
		return 0, 0, 0, err
	}

	sum := 0.0
	for i := len(data) - period; i < len(data); i++ {
		pointSMA, err := SMA(data[i+1-period:i+1], period)
		if err != nil {
			return 0, 0, 0, err
		}
		d := data[i] - pointSMA
		sum += d * d
	}
	deviation := math.Sqrt(sum / float64(period))

	return middle, middle + deviation*multiplier, middle - deviation*multiplier, nil
}

// ATR — EMA(period) от true range по последним 2*period свечам.
func ATR(candles []models.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Wrapf(ErrBadParams, "atr: period=%d", period)
	}
	if len(candles) < 2*period+1 {
		return 0, errors.Wrapf(ErrInsufficientData, "atr: len=%d, expected %d", len(candles), 2*period+1)
	}

	n := len(candles)
	tr := make([]float64, 0, 2*period)
	for i := n - 2*period; i < n; i++ {
		tr = append(tr, TrueRange(candles[i].High, candles[i].Low, candles[i-1].Close))
	}
	return EMA(tr, period)
}

// DailyPivotPoints — уровни (r1, s1, r2, s2) по high/low/close предыдущего
// торгового дня. Требует полный предыдущий день в окне.
func DailyPivotPoints(candles []models.Candle) (float64, float64, float64, float64, error) {
	if len(candles) == 0 {
		return 0, 0, 0, 0, errors.Wrap(ErrInsufficientData, "pivots: empty window")
	}

	currDay := candles[len(candles)-1].Time.Day()
	prevIdx := -1
	for i := len(candles) - 1; i >= 0; i-- {
		if candles[i].Time.Day() != currDay {
			prevIdx = i
			break
		}
	}
	if prevIdx < 0 {
		return 0, 0, 0, 0, errors.Wrap(ErrInsufficientData, "pivots: no previous day in window")
	}

	prevDay := candles[prevIdx].Time.Day()
	prevClose := candles[prevIdx].Close
	prevHigh := math.Inf(-1)
	prevLow := math.Inf(1)
	for i := prevIdx; i >= 0; i-- {
		if candles[i].Time.Day() != prevDay {
			break
		}
		if candles[i].High > prevHigh {
			prevHigh = candles[i].High
		}
		if candles[i].Low < prevLow {
			prevLow = candles[i].Low
		}
	}

	p := (prevClose + prevHigh + prevLow) / 3
	r1 := 2*p - prevLow
	s1 := 2*p - prevHigh
	r2 := p + (prevHigh - prevLow)
	s2 := p - (prevHigh - prevLow)
	return r1, s1, r2, s2, nil
}
