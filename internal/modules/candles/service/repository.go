package service

import (
	"context"
	"time"

	"backtest_bot/internal/models"
	"backtest_bot/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Repository — исторические свечи в Postgres.
type Repository struct {
	txm db.TxManager
}

func NewRepository(txm db.TxManager) *Repository {
	return &Repository{txm: txm}
}

// LoadRange отдаёт свечи тикера в [from, to], отсортированные по времени.
func (r *Repository) LoadRange(ctx context.Context, ticker string, interval models.Interval, from, to time.Time) ([]models.Candle, error) {
	const q = `
		SELECT candle_time, open, close, low, high, volume
		FROM candles
		WHERE ticker = $1 AND interval = $2 AND candle_time BETWEEN $3 AND $4
		ORDER BY candle_time`

	rows, err := r.txm.Conn().Query(ctx, q, ticker, string(interval), from, to)
	if err != nil {
		return nil, errors.Wrap(err, "load candles")
	}
	defer rows.Close()

	var out []models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Time, &c.Open, &c.Close, &c.Low, &c.High, &c.Volume); err != nil {
			return nil, errors.Wrap(err, "scan candle row")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate candle rows")
	}
	return out, nil
}

// SaveBatch кладёт свечи пачкой. Повторная загрузка того же периода
// не плодит дубли: (ticker, interval, candle_time) уникален.
func (r *Repository) SaveBatch(ctx context.Context, ticker string, interval models.Interval, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	const q = `
		INSERT INTO candles (ticker, interval, candle_time, open, close, low, high, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticker, interval, candle_time) DO NOTHING`

	err := r.txm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range candles {
			batch.Queue(q, ticker, string(interval), c.Time, c.Open, c.Close, c.Low, c.High, c.Volume)
		}
		return tx.SendBatch(ctxTx, batch).Close()
	})
	return errors.Wrap(err, "save candles batch")
}
