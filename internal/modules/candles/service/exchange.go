package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"backtest_bot/internal/models"
	"backtest_bot/internal/modules/config"

	"backtest_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Exchange — REST-история и WS-поток свечей биржевого шлюза.
type Exchange struct {
	http    *http.Client
	dialer  *websocket.Dialer
	restURL string
	wsURL   string
}

func NewExchange(conf *config.Config) *Exchange {
	return &Exchange{
		http:    &http.Client{Timeout: 10 * time.Second},
		dialer:  &websocket.Dialer{},
		restURL: conf.Exchange.RestURL,
		wsURL:   conf.Exchange.WSURL,
	}
}

type klineItem struct {
	Time   int64   `json:"time"` // unix секунды открытия свечи
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Volume int64   `json:"volume"`
}

func (k klineItem) toCandle() models.Candle {
	return models.Candle{
		Time:   time.Unix(k.Time, 0).UTC(),
		Open:   k.Open,
		Close:  k.Close,
		Low:    k.Low,
		High:   k.High,
		Volume: k.Volume,
	}
}

// Klines забирает исторические свечи за период.
func (e *Exchange) Klines(ctx context.Context, ticker string, interval models.Interval, from, to time.Time) ([]models.Candle, error) {
	url := fmt.Sprintf("%s/api/v1/klines?symbol=%s&interval=%s&start=%d&end=%d",
		e.restURL, ticker, interval, from.Unix(), to.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build klines request")
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "klines request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("klines request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read klines body")
	}

	var items []klineItem
	if err := sonic.Unmarshal(body, &items); err != nil {
		return nil, errors.Wrap(err, "decode klines")
	}

	out := make([]models.Candle, 0, len(items))
	for _, it := range items {
		out = append(out, it.toCandle())
	}
	return out, nil
}

// StreamCandles — поток закрытых свечей по WS с переподключением.
// Канал закрывается по отмене контекста или после исчерпания ретраев.
func (e *Exchange) StreamCandles(ctx context.Context, ticker string, interval models.Interval) <-chan models.Candle {
	ch := make(chan models.Candle)
	go func() {
		defer close(ch)
		retry := 0
		for {
			conn, _, err := e.dialer.DialContext(ctx, e.wsURL, nil)
			if err != nil {
				retry++
				if retry > 8 {
					logger.Error("candle stream: giving up after %d retries: %v", retry, err)
					return
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Duration(300*retry) * time.Millisecond):
				}
				continue
			}
			retry = 0

			sub := fmt.Sprintf(`{"method":"sub.kline","symbol":%q,"interval":%q}`, ticker, interval)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(sub))

			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					_ = conn.Close()
					break
				}
				var frame struct {
					Channel string    `json:"channel"`
					Data    klineItem `json:"data"`
					Closed  bool      `json:"closed"`
				}
				if err := sonic.Unmarshal(msg, &frame); err != nil || frame.Channel != "push.kline" {
					continue
				}
				if !frame.Closed {
					continue
				}
				select {
				case <-ctx.Done():
					_ = conn.Close()
					return
				case ch <- frame.Data.toCandle():
				}
			}

			select {
			case <-ctx.Done():
				return
			default:
				time.Sleep(time.Second)
			}
		}
	}()
	return ch
}
