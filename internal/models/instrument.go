package models

import "time"

// Instrument — торговый контекст тикера: сессия, спред, доступность шортов.
// Для бэктеста read-only на весь прогон.
type Instrument struct {
	Ticker string
	FIGI   string

	DayStart time.Time // начало торговой сессии (важно только время суток)
	DayEnd   time.Time // конец торговой сессии

	Spread        float64 // абсолютное значение, в валюте цены
	ShortsEnabled bool

	MinPriceStep float64
	Lot          int
}
