package ton

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tonlotto/backend/pkg/api"
	"github.com/tonlotto/backend/pkg/xcontext"
)

const nanoton = 1e9

// Transaction is one inbound transfer to the watched contract.
type Transaction struct {
	Hash   string
	Utime  int64
	Sender string

	// Amount in TON.
	Amount float64
}

// Client talks to a toncenter-compatible HTTP API.
type Client interface {
	GetTransactions(ctx context.Context, address string, limit int) ([]Transaction, error)
	GetBalance(ctx context.Context, address string) (float64, error)
}

type apiClient struct {
	generator api.Generator
	apiKey    string
}

func NewClient(apiURL, apiKey string) *apiClient {
	return &apiClient{
		generator: api.NewGenerator(apiURL),
		apiKey:    apiKey,
	}
}

func (c *apiClient) GetTransactions(
	ctx context.Context, address string, limit int,
) ([]Transaction, error) {
	query := api.Parameter{
		"address": address,
		"limit":   strconv.Itoa(limit),
	}
	if c.apiKey != "" {
		query["api_key"] = c.apiKey
	}

	resp, err := c.generator.New("/getTransactions").Query(query).GET(ctx)
	if err != nil {
		return nil, err
	}

	result, err := c.checkResult(resp)
	if err != nil {
		return nil, err
	}

	list, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("invalid type of result (%T)", result)
	}

	var txs []Transaction
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		tx, ok := c.parseTransaction(ctx, api.JSON(obj))
		if ok {
			txs = append(txs, tx)
		}
	}

	// The API lists newest first; deposits are handed over in the order
	// they happened so a cap boundary cuts off the latest ones, not the
	// earliest.
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}

	return txs, nil
}

func (c *apiClient) GetBalance(ctx context.Context, address string) (float64, error) {
	query := api.Parameter{"address": address}
	if c.apiKey != "" {
		query["api_key"] = c.apiKey
	}

	resp, err := c.generator.New("/getAddressBalance").Query(query).GET(ctx)
	if err != nil {
		return 0, err
	}

	result, err := c.checkResult(resp)
	if err != nil {
		return 0, err
	}

	s, ok := result.(string)
	if !ok {
		return 0, fmt.Errorf("invalid type of result (%T)", result)
	}

	nano, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid balance %q: %w", s, err)
	}

	return float64(nano) / nanoton, nil
}

func (c *apiClient) checkResult(resp *api.Response) (any, error) {
	if resp.Code != 200 {
		return nil, fmt.Errorf("got status code %d", resp.Code)
	}

	body, ok := resp.Body.(api.JSON)
	if !ok {
		return nil, fmt.Errorf("invalid type of body (%T)", resp.Body)
	}

	success, err := body.GetBool("ok")
	if err != nil {
		return nil, err
	}

	if !success {
		return nil, fmt.Errorf("api reported a failure: %s", string(resp.RawBody))
	}

	result, ok := body["result"]
	if !ok {
		return nil, fmt.Errorf("not found field result")
	}

	return result, nil
}

// parseTransaction keeps only inbound transfers carrying value. Outbound
// messages, external messages, and zero-value notifications are skipped.
func (c *apiClient) parseTransaction(ctx context.Context, obj api.JSON) (Transaction, bool) {
	hash, err := obj.GetString("transaction_id.hash")
	if err != nil || hash == "" {
		return Transaction{}, false
	}

	sender, err := obj.GetString("in_msg.source")
	if err != nil || sender == "" {
		return Transaction{}, false
	}

	value, err := obj.GetString("in_msg.value")
	if err != nil {
		return Transaction{}, false
	}

	nano, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Invalid value %q of tx %s", value, hash)
		return Transaction{}, false
	}

	if nano <= 0 {
		return Transaction{}, false
	}

	utime, err := obj.GetInt("utime")
	if err != nil {
		utime = 0
	}

	return Transaction{
		Hash:   hash,
		Utime:  utime,
		Sender: sender,
		Amount: float64(nano) / nanoton,
	}, true
}
