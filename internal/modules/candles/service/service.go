package service

import (
	"context"
	"time"

	"backtest_bot/internal/models"
	"backtest_bot/internal/modules/config"

	"backtest_bot/pkg/logger"

	"github.com/pkg/errors"
)

// workDaysRate — отношение торговых дней к календарным: через него
// количество нужных свечей переводится в календарный период.
const workDaysRate = 0.67

// Service отдаёт историю свечей для тестера: сперва из базы,
// при нехватке — дотягивает с биржи и сохраняет.
type Service struct {
	conf *config.Config
	repo *Repository
	ex   *Exchange
}

func NewService(conf *config.Config, repo *Repository, ex *Exchange) *Service {
	return &Service{conf: conf, repo: repo, ex: ex}
}

// endDate — правая граница истории: "now" либо DD-MM-YYYY из настроек.
func (s *Service) endDate() (time.Time, error) {
	if s.conf.Candles.EndDate == "" || s.conf.Candles.EndDate == "now" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse("02-01-2006", s.conf.Candles.EndDate)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "bad candles end date %q", s.conf.Candles.EndDate)
	}
	return t.UTC(), nil
}

// neededCandles — сколько свечей нужно, чтобы индикаторы с самыми
// длинными периодами успели разогнаться до начала прогона.
func (s *Service) neededCandles() int {
	maxParam := 0
	for _, p := range s.conf.Strategy.Params {
		if p.Max > maxParam {
			maxParam = p.Max
		}
	}
	return s.conf.Candles.Num + 4*maxParam + 1
}

// Collect собирает историю под текущие настройки.
func (s *Service) Collect(ctx context.Context, instr *models.Instrument) ([]models.Candle, error) {
	interval := models.Interval(s.conf.Candles.Interval)
	if !interval.Valid() {
		return nil, errors.Errorf("unknown candle interval %q", s.conf.Candles.Interval)
	}

	end, err := s.endDate()
	if err != nil {
		return nil, err
	}

	needed := s.neededCandles()
	dayLen := interval.DayLenInCandles(instr.DayStart.Hour(), instr.DayEnd.Hour())
	if dayLen <= 0 {
		return nil, errors.Errorf("wrong day length for interval %q", interval)
	}

	days := int(float64(needed)/float64(dayLen)/workDaysRate) + 1
	start := end.AddDate(0, 0, -days)

	candles, err := s.repo.LoadRange(ctx, instr.Ticker, interval, start, end)
	if err != nil {
		return nil, err
	}
	logger.Info("collect candles: %s loaded %d of %d needed (from %s to %s)",
		instr.Ticker, len(candles), needed, start.Format("2006-01-02"), end.Format("2006-01-02"))

	if len(candles) >= needed {
		return candles, nil
	}

	fetched, err := s.ex.Klines(ctx, instr.Ticker, interval, start, end)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveBatch(ctx, instr.Ticker, interval, fetched); err != nil {
		return nil, err
	}

	candles, err = s.repo.LoadRange(ctx, instr.Ticker, interval, start, end)
	if err != nil {
		return nil, err
	}
	if len(candles) < needed {
		logger.Warn("collect candles: still short after fetch: %d of %d", len(candles), needed)
	}
	return candles, nil
}
