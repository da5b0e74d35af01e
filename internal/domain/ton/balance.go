package ton

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync"
	"github.com/tonlotto/backend/pkg/xcontext"
)

type balanceReading struct {
	value  float64
	readAt time.Time
}

// CachedBalanceFetcher caches upstream balance readings per address within a
// staleness window so the payout flow does not hammer the public API.
type CachedBalanceFetcher struct {
	client   Client
	readings *xsync.MapOf[string, balanceReading]
}

func NewCachedBalanceFetcher(client Client) *CachedBalanceFetcher {
	return &CachedBalanceFetcher{
		client:   client,
		readings: xsync.NewMapOf[balanceReading](),
	}
}

func (f *CachedBalanceFetcher) Balance(ctx context.Context, address string) (float64, error) {
	staleness := xcontext.Configs(ctx).Ton.BalanceStaleness
	if reading, ok := f.readings.Load(address); ok {
		if time.Since(reading.readAt) < staleness {
			return reading.value, nil
		}
	}

	value, err := f.client.GetBalance(ctx, address)
	if err != nil {
		return 0, err
	}

	f.readings.Store(address, balanceReading{value: value, readAt: time.Now()})
	return value, nil
}
