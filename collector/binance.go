package collector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/gtoxlili/echoChart/entity"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const usdtSuffix = "USDT"

var errSymbolNotFound = errors.New("symbol not found in ticker stats")

type binanceProvider struct {
	client        *futures.Client
	klineInterval string
	klineLimit    int
}

// NewBinanceSource 读取 USDT 本位永续合约的 24h 统计和 K 线
func NewBinanceSource(apiKey, secretKey, klineInterval string, klineLimit int) QuoteSource {
	return &binanceProvider{
		client:        binance.NewFuturesClient(apiKey, secretKey), // USDT-M Futures
		klineInterval: klineInterval,
		klineLimit:    klineLimit,
	}
}

func normalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.HasSuffix(s, usdtSuffix) {
		return s
	}
	return s + usdtSuffix
}

func (b *binanceProvider) Snapshot(ctx context.Context, symbol string) (Snapshot, error) {
	pair := normalizeSymbol(symbol)
	var (
		quote  entity.Quote
		closes []float64
		g, gctx = errgroup.WithContext(ctx)
	)

	g.Go(func() error {
		q, err := b.fetchQuote(gctx, pair)
		if err != nil {
			return fmt.Errorf("failed to fetch ticker for %s: %w", pair, err)
		}
		quote = q
		return nil
	})

	g.Go(func() error {
		c, err := b.fetchCloses(gctx, pair)
		if err != nil {
			return fmt.Errorf("failed to fetch klines for %s: %w", pair, err)
		}
		closes = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return lo.Empty[Snapshot](), err
	}
	quote.Symbol = strings.TrimSuffix(pair, usdtSuffix)
	return Snapshot{Quote: quote, Closes: closes, InstrumentType: entity.Future}, nil
}

func (b *binanceProvider) fetchQuote(ctx context.Context, pair string) (entity.Quote, error) {
	stats, err := b.client.NewListPriceChangeStatsService().Symbol(pair).Do(ctx)
	if err != nil {
		return entity.Quote{}, err
	}
	// 即使指定了 symbol，API 仍然返回一个切片
	for _, s := range stats {
		if s.Symbol != pair {
			continue
		}
		return entity.Quote{
			LastPrice:     parseFloat(s.LastPrice),
			Change:        parseFloat(s.PriceChange),
			ChangePercent: parseFloat(s.PriceChangePercent),
			Volume:        int64(parseFloat(s.Volume)),
			OHLC: entity.OHLC{
				Open:  parseFloat(s.OpenPrice),
				High:  parseFloat(s.HighPrice),
				Low:   parseFloat(s.LowPrice),
				Close: parseFloat(s.LastPrice),
			},
			Timestamp: s.CloseTime,
		}, nil
	}
	return entity.Quote{}, errSymbolNotFound
}

func (b *binanceProvider) fetchCloses(ctx context.Context, pair string) ([]float64, error) {
	klines, err := b.client.NewKlinesService().Symbol(pair).Interval(b.klineInterval).Limit(b.klineLimit).Do(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(klines, func(k *futures.Kline, _ int) float64 {
		return parseFloat(k.Close)
	}), nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
