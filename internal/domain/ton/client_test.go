package ton

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonlotto/backend/pkg/testutil"
)

func Test_apiClient_GetTransactions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/getTransactions", r.URL.Path)
		require.Equal(t, "EQcontract", r.URL.Query().Get("address"))
		require.Equal(t, "10", r.URL.Query().Get("limit"))

		// toncenter lists transactions newest first.
		w.Write([]byte(`{
			"ok": true,
			"result": [
				{
					"transaction_id": {"hash": "hash3"},
					"utime": 1700000002,
					"in_msg": {"source": "EQother", "value": "2000000000"}
				},
				{
					"transaction_id": {"hash": "hash1"},
					"utime": 1700000000,
					"in_msg": {"source": "EQsender", "value": "7500000000"}
				},
				{
					"transaction_id": {"hash": "hash2"},
					"utime": 1700000001,
					"in_msg": {"source": "", "value": "0"}
				}
			]
		}`))
	}))
	defer server.Close()

	ctx := testutil.MockContext()
	client := NewClient(server.URL, "")

	txs, err := client.GetTransactions(ctx, "EQcontract", 10)
	require.NoError(t, err)

	// The outbound message carries no source and is skipped; the kept
	// transfers come back oldest first.
	require.Len(t, txs, 2)
	require.Equal(t, "hash1", txs[0].Hash)
	require.Equal(t, "EQsender", txs[0].Sender)
	require.Equal(t, int64(1700000000), txs[0].Utime)
	require.InDelta(t, 7.5, txs[0].Amount, 1e-9)
	require.Equal(t, "hash3", txs[1].Hash)
	require.InDelta(t, 2, txs[1].Amount, 1e-9)
}

func Test_apiClient_GetBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/getAddressBalance", r.URL.Path)
		w.Write([]byte(`{"ok": true, "result": "12500000000"}`))
	}))
	defer server.Close()

	ctx := testutil.MockContext()
	client := NewClient(server.URL, "")

	balance, err := client.GetBalance(ctx, "EQcontract")
	require.NoError(t, err)
	require.InDelta(t, 12.5, balance, 1e-9)
}

func Test_apiClient_GetBalance_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": false, "error": "rate limited"}`))
	}))
	defer server.Close()

	ctx := testutil.MockContext()
	client := NewClient(server.URL, "")

	_, err := client.GetBalance(ctx, "EQcontract")
	require.Error(t, err)
}

type countingClient struct {
	balance float64
	calls   int
}

func (c *countingClient) GetTransactions(context.Context, string, int) ([]Transaction, error) {
	return nil, nil
}

func (c *countingClient) GetBalance(context.Context, string) (float64, error) {
	c.calls++
	return c.balance, nil
}

func Test_CachedBalanceFetcher_WithinStaleness(t *testing.T) {
	ctx := testutil.MockContext()
	upstream := &countingClient{balance: 42}
	fetcher := NewCachedBalanceFetcher(upstream)

	for i := 0; i < 5; i++ {
		balance, err := fetcher.Balance(ctx, "EQcontract")
		require.NoError(t, err)
		require.Equal(t, float64(42), balance)
	}

	require.Equal(t, 1, upstream.calls)
}
