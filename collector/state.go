package collector

import (
	"context"

	"github.com/gtoxlili/echoChart/entity"
)

// Snapshot 是一次性读取的行情：报价加上按时间从旧到新的收盘价
type Snapshot struct {
	Quote  entity.Quote
	Closes []float64
	// InstrumentType 为空时由 BuildMarketContext 根据代码推断
	InstrumentType entity.InstrumentType
}

type QuoteSource interface {
	Snapshot(ctx context.Context, symbol string) (Snapshot, error)
}
