package models

import "time"

// Candle — одна закрытая OHLCV-свеча фиксированного интервала.
// Последовательности свечей строго упорядочены по Time, без дублей;
// дырки допустимы (ночь, выходные).
type Candle struct {
	Time   time.Time
	Open   float64
	Close  float64
	Low    float64
	High   float64
	Volume int64
}

// Interval — таймфрейм свечи.
type Interval string

const (
	Interval1Min  Interval = "1min"
	Interval2Min  Interval = "2min"
	Interval3Min  Interval = "3min"
	Interval5Min  Interval = "5min"
	Interval10Min Interval = "10min"
	Interval15Min Interval = "15min"
	Interval30Min Interval = "30min"
	Interval1Hour Interval = "1hour"
	Interval2Hour Interval = "2hour"
	Interval4Hour Interval = "4hour"
	Interval1Day  Interval = "1day"
)

var intervalMinutes = map[Interval]int{
	Interval1Min:  1,
	Interval2Min:  2,
	Interval3Min:  3,
	Interval5Min:  5,
	Interval10Min: 10,
	Interval15Min: 15,
	Interval30Min: 30,
	Interval1Hour: 60,
	Interval2Hour: 120,
	Interval4Hour: 240,
	Interval1Day:  840, // торговый день ~14 часов
}

// Minutes возвращает длину интервала в минутах (0 для неизвестного).
func (i Interval) Minutes() int { return intervalMinutes[i] }

// Valid — известный ли таймфрейм.
func (i Interval) Valid() bool { return intervalMinutes[i] > 0 }

// CandlesPerHour — сколько свечей помещается в час. Для интервалов
// длиннее часа возвращает 1 (нужно только для оценки длины дня).
func (i Interval) CandlesPerHour() int {
	m := intervalMinutes[i]
	if m <= 0 || m > 60 {
		return 1
	}
	return 60 / m
}

// DayLenInCandles — количество свечей в торговом дне [dayStart, dayEnd] (часы).
func (i Interval) DayLenInCandles(dayStart, dayEnd int) int {
	if dayEnd <= dayStart {
		return 0
	}
	return (dayEnd - dayStart + 1) * i.CandlesPerHour()
}

// CandlesUntilEndOfDay — сколько свечей осталось до закрытия сессии.
// Сравниваются только времена суток: дата tm может быть исторической.
func CandlesUntilEndOfDay(tm time.Time, dayEnd time.Time, interval Interval) int {
	minutes := interval.Minutes()
	if minutes <= 0 {
		return 0
	}
	closeMin := dayEnd.Hour()*60 + dayEnd.Minute()
	nowMin := tm.Hour()*60 + tm.Minute()
	if closeMin <= nowMin {
		return 0
	}
	return (closeMin - nowMin) / minutes
}

// Closes — выжимка цен закрытия.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Lows/Highs — аналогично для Low/High (нужно ADX).
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// MedianPrices — (High+Low)/2, вход для Alligator.
func MedianPrices(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = (c.High + c.Low) / 2
	}
	return out
}
