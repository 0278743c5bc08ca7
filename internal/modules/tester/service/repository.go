package service

import (
	"context"
	"fmt"

	"backtest_bot/internal/indicator"
	"backtest_bot/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Repository — результаты перебора и кэш индикаторов в Postgres.
type Repository struct {
	txm db.TxManager
}

func NewRepository(txm db.TxManager) *Repository {
	return &Repository{txm: txm}
}

// SaveBest фиксирует победившие параметры прогона.
func (r *Repository) SaveBest(ctx context.Context, ticker, strategy string, rep *Report) error {
	const q = `
		INSERT INTO best_params (ticker, strategy, params, profitability, num_orders,
		                         profit_orders_percent, cagr, sharpe, profit_factor, max_dd,
		                         period_start, period_end, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())`

	err := r.txm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, q,
			ticker, strategy, fmt.Sprint(rep.Params),
			rep.Profitability, rep.NumOrders, rep.ProfitOrdersPercent,
			rep.CAGR, rep.Sharpe, rep.ProfitFactor, rep.MaxDD,
			rep.StartDate, rep.EndDate)
		return err
	})
	return errors.Wrap(err, "save best params")
}

// SaveIndicatorCache сбрасывает новые значения кэша в таблицу.
// Конфликты игнорируем: значение для фиксированного ключа неизменно.
func (r *Repository) SaveIndicatorCache(ctx context.Context, cache *indicator.Cache) error {
	if cache == nil || !cache.Dirty() {
		return nil
	}

	const q = `
		INSERT INTO indicator_cache (ticker, candle_time, kind, p1, p2, p3, p4, v1, v2, v3, v4)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (ticker, candle_time, kind, p1, p2, p3, p4) DO NOTHING`

	snapshot := cache.Snapshot()
	err := r.txm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for k, v := range snapshot {
			batch.Queue(q, cache.Ticker(), k.Time, string(k.Kind), k.P1, k.P2, k.P3, k.P4,
				v[0], v[1], v[2], v[3])
		}
		return tx.SendBatch(ctxTx, batch).Close()
	})
	if err != nil {
		return errors.Wrap(err, "save indicator cache")
	}

	cache.ResetDirty()
	return nil
}

// LoadIndicatorCache прогревает кэш значениями прошлых запусков.
func (r *Repository) LoadIndicatorCache(ctx context.Context, cache *indicator.Cache) error {
	if cache == nil {
		return nil
	}

	const q = `
		SELECT candle_time, kind, p1, p2, p3, p4, v1, v2, v3, v4
		FROM indicator_cache
		WHERE ticker = $1`

	rows, err := r.txm.Conn().Query(ctx, q, cache.Ticker())
	if err != nil {
		return errors.Wrap(err, "load indicator cache")
	}
	defer rows.Close()

	entries := make(map[indicator.Key]indicator.Values)
	for rows.Next() {
		var k indicator.Key
		var kind string
		var v indicator.Values
		if err := rows.Scan(&k.Time, &kind, &k.P1, &k.P2, &k.P3, &k.P4, &v[0], &v[1], &v[2], &v[3]); err != nil {
			return errors.Wrap(err, "scan indicator cache row")
		}
		k.Kind = indicator.Kind(kind)
		entries[k] = v
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterate indicator cache rows")
	}

	cache.Seed(entries)
	return nil
}
