package stacks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a Stacks node's RPC endpoints and the indexer's extended
// API (Hiro-compatible).
type Client struct {
	apiURL string
	http   *http.Client
}

// NewClient creates a client for the API at apiURL, e.g.
// "https://api.testnet.hiro.so".
func NewClient(apiURL string) *Client {
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// AccountInfo is the balance and next nonce of a principal.
type AccountInfo struct {
	Balance *big.Int // micro-STX
	Nonce   uint64
}

// Account fetches the balance and nonce of principal from /v2/accounts.
func (c *Client) Account(ctx context.Context, principal string) (AccountInfo, error) {
	var resp struct {
		Balance string `json:"balance"`
		Nonce   uint64 `json:"nonce"`
	}
	path := fmt.Sprintf("/v2/accounts/%s?proof=0", url.PathEscape(principal))
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return AccountInfo{}, fmt.Errorf("failed to fetch account %s: %w", principal, err)
	}

	balance, err := parseAPIAmount(resp.Balance)
	if err != nil {
		return AccountInfo{}, fmt.Errorf("account %s has unparseable balance %q", principal, resp.Balance)
	}
	return AccountInfo{Balance: balance, Nonce: resp.Nonce}, nil
}

// ContractEvent is one entry of the extended contract events feed.
type ContractEvent struct {
	EventIndex int    `json:"event_index"`
	EventType  string `json:"event_type"`
	TxID       string `json:"tx_id"`
	ContractLog *struct {
		ContractID string `json:"contract_id"`
		Topic      string `json:"topic"`
		Value      struct {
			Repr string `json:"repr"`
			Hex  string `json:"hex"`
		} `json:"value"`
	} `json:"contract_log"`
}

// ID returns the event's dedup identity: a transaction can emit several
// events, so the tx ID alone is not unique.
func (e ContractEvent) ID() string {
	return fmt.Sprintf("%s-%d", e.TxID, e.EventIndex)
}

// ContractEvents fetches the most recent events of contractID, newest first.
func (c *Client) ContractEvents(ctx context.Context, contractID string, limit int) ([]ContractEvent, error) {
	var resp struct {
		Results []ContractEvent `json:"results"`
	}
	path := fmt.Sprintf("/extended/v1/contract/%s/events?limit=%d", url.PathEscape(contractID), limit)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch events for %s: %w", contractID, err)
	}
	return resp.Results, nil
}

// BroadcastTransaction submits a signed raw transaction and returns its ID.
func (c *Client) BroadcastTransaction(ctx context.Context, raw []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiURL+"/v2/transactions", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		var rejection struct {
			Error  string `json:"error"`
			Reason string `json:"reason"`
		}
		if json.Unmarshal(body, &rejection) == nil && rejection.Error != "" {
			return "", fmt.Errorf("transaction rejected: %s (%s)", rejection.Error, rejection.Reason)
		}
		return "", fmt.Errorf("transaction rejected: status %d: %s", resp.StatusCode, body)
	}

	// The node answers with the txid as a JSON string.
	var txid string
	if err := json.Unmarshal(body, &txid); err != nil {
		txid = strings.Trim(string(body), "\"\n ")
	}
	if !strings.HasPrefix(txid, "0x") {
		txid = "0x" + txid
	}
	return txid, nil
}

// TransactionStatus fetches the indexer's status for a transaction
// ("pending", "success", "abort_by_response", ...).
func (c *Client) TransactionStatus(ctx context.Context, txid string) (string, error) {
	var resp struct {
		TxStatus string `json:"tx_status"`
	}
	if err := c.getJSON(ctx, "/extended/v1/tx/"+url.PathEscape(txid), &resp); err != nil {
		return "", fmt.Errorf("failed to fetch transaction %s: %w", txid, err)
	}
	return resp.TxStatus, nil
}

// WaitForTransaction polls until the transaction leaves the mempool or ctx
// expires. A non-success terminal status is returned as an error.
func (c *Client) WaitForTransaction(ctx context.Context, txid string, pollInterval time.Duration) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.TransactionStatus(ctx, txid)
		if err == nil {
			switch status {
			case "success":
				return nil
			case "pending", "":
				// keep waiting
			default:
				return fmt.Errorf("transaction %s failed with status %s", txid, status)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// parseAPIAmount handles the node's hex ("0x...") and the indexer's decimal
// amount encodings.
func parseAPIAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	var (
		v  *big.Int
		ok bool
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, ok = new(big.Int).SetString(s[2:], 16)
	} else {
		v, ok = new(big.Int).SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("unparseable amount %q", s)
	}
	return v, nil
}
