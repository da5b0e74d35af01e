package ton

import (
	"context"
	"time"

	"github.com/tonlotto/backend/internal/domain"
	"github.com/tonlotto/backend/internal/model"
	"github.com/tonlotto/backend/pkg/xcontext"
)

// Watcher polls the watched contract for inbound deposits and feeds them to
// the lottery. Polling is at-least-once: the same transaction is observed on
// many consecutive scans and the ingestion deduplicates by tx hash.
type Watcher struct {
	client        Client
	lotteryDomain domain.LotteryDomain
}

func NewWatcher(client Client, lotteryDomain domain.LotteryDomain) *Watcher {
	return &Watcher{
		client:        client,
		lotteryDomain: lotteryDomain,
	}
}

func (w *Watcher) Start(ctx context.Context) {
	cfg := xcontext.Configs(ctx).Ton
	xcontext.Logger(ctx).Infof("Deposit watcher started for %s", cfg.ContractAddress)

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		w.scan(ctx)

		select {
		case <-ctx.Done():
			xcontext.Logger(ctx).Infof("Deposit watcher stopped")
			return
		case <-ticker.C:
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	cfg := xcontext.Configs(ctx).Ton
	txs, err := w.client.GetTransactions(ctx, cfg.ContractAddress, cfg.TxScanLimit)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot scan transactions: %v", err)
		return
	}

	for _, tx := range txs {
		resp, err := w.lotteryDomain.SubmitDeposit(ctx, &model.SubmitDepositRequest{
			TxHash: tx.Hash,
			Sender: tx.Sender,
			Amount: tx.Amount,
		})
		if err != nil {
			// The deposit stays unrecorded and is redelivered next scan.
			xcontext.Logger(ctx).Warnf("Cannot submit deposit %s: %v", tx.Hash, err)
			continue
		}

		if resp.Accepted {
			xcontext.Logger(ctx).Infof("Accepted deposit %s of %g TON into round %d",
				tx.Hash, tx.Amount, resp.RoundID)
		}
	}
}
