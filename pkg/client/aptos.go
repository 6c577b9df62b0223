package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/time/rate"
)

const (
	DefaultNodeURL      = "https://fullnode.testnet.aptoslabs.com/v1"
	DefaultPollInterval = 500 * time.Millisecond
	defaultHTTPTimeout  = 15 * time.Second
)

// AptosClient talks to an Aptos fullnode REST API
type AptosClient struct {
	baseURL      string
	http         *http.Client
	limiter      *rate.Limiter
	pollInterval time.Duration
	logger       *slog.Logger
}

// Option configures an AptosClient
type Option func(*AptosClient)

func WithHTTPClient(h *http.Client) Option {
	return func(c *AptosClient) { c.http = h }
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *AptosClient) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(c *AptosClient) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *AptosClient) { c.logger = l }
}

// NewAptosClient creates a client for the node at nodeURL. The /v1 suffix
// is added when missing.
func NewAptosClient(nodeURL string, opts ...Option) *AptosClient {
	if nodeURL == "" {
		nodeURL = DefaultNodeURL
	}
	nodeURL = strings.TrimRight(nodeURL, "/")
	if !strings.HasSuffix(nodeURL, "/v1") {
		nodeURL += "/v1"
	}

	c := &AptosClient{
		baseURL:      nodeURL,
		http:         &http.Client{Timeout: defaultHTTPTimeout},
		limiter:      rate.NewLimiter(rate.Limit(10), 10),
		pollInterval: DefaultPollInterval,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the versioned API root the client targets
func (c *AptosClient) BaseURL() string {
	return c.baseURL
}

// Ledger returns the node's current ledger info
func (c *AptosClient) Ledger(ctx context.Context) (*LedgerInfo, error) {
	var info LedgerInfo
	if err := c.do(ctx, http.MethodGet, "", nil, &info); err != nil {
		return nil, fmt.Errorf("failed to get ledger info: %w", err)
	}
	return &info, nil
}

// View calls a Move view function and returns its raw return values
func (c *AptosClient) View(ctx context.Context, req *ViewRequest) ([]json.RawMessage, error) {
	if req.TypeArguments == nil {
		req.TypeArguments = []string{}
	}
	if req.Arguments == nil {
		req.Arguments = []any{}
	}

	var out []json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/view", req, &out); err != nil {
		return nil, fmt.Errorf("view %s failed: %w", req.Function, err)
	}
	return out, nil
}

// Account returns the on-chain account resource summary
func (c *AptosClient) Account(ctx context.Context, address string) (*AccountInfo, error) {
	var info AccountInfo
	if err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(address), nil, &info); err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}
	return &info, nil
}

// EstimateGasPrice returns the node's suggested gas unit price
func (c *AptosClient) EstimateGasPrice(ctx context.Context) (uint64, error) {
	var est gasEstimate
	if err := c.do(ctx, http.MethodGet, "/estimate_gas_price", nil, &est); err != nil {
		return 0, fmt.Errorf("failed to estimate gas price: %w", err)
	}
	return est.GasEstimate, nil
}

// EncodeSubmission returns the BCS signing message for an unsigned
// transaction, as computed by the node.
func (c *AptosClient) EncodeSubmission(ctx context.Context, req *TransactionRequest) ([]byte, error) {
	var encoded string
	if err := c.do(ctx, http.MethodPost, "/transactions/encode_submission", req, &encoded); err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	msg, err := hexutil.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid signing message %q: %w", encoded, err)
	}
	return msg, nil
}

// SubmitTransaction sends a signed transaction and returns its hash
func (c *AptosClient) SubmitTransaction(ctx context.Context, txn *SignedTransaction) (string, error) {
	var pending Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions", txn, &pending); err != nil {
		return "", fmt.Errorf("failed to submit transaction: %w", err)
	}
	if pending.Hash == "" {
		return "", fmt.Errorf("failed to submit transaction: node returned no hash")
	}

	c.logger.Debug("transaction submitted", "hash", pending.Hash, "sender", txn.Sender)
	return pending.Hash, nil
}

// TransactionByHash looks up a transaction. Unknown hashes return
// ErrTransactionNotFound.
func (c *AptosClient) TransactionByHash(ctx context.Context, hash string) (*Transaction, error) {
	var txn Transaction
	err := c.do(ctx, http.MethodGet, "/transactions/by_hash/"+url.PathEscape(hash), nil, &txn)
	if IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, hash)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", hash, err)
	}
	return &txn, nil
}

// WaitForTransaction polls until the transaction is committed or ctx ends.
// A committed transaction whose VM status is not success is returned
// together with ErrTransactionFailed. When ctx ends first the returned
// error wraps ctx.Err(). Throttling and 5xx responses are retried.
func (c *AptosClient) WaitForTransaction(ctx context.Context, hash string) (*Transaction, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		txn, err := c.TransactionByHash(ctx, hash)
		switch {
		case err == nil && !txn.IsPending():
			if !txn.Success {
				return txn, fmt.Errorf("%w: %s", ErrTransactionFailed, txn.VMStatus)
			}
			return txn, nil
		case err == nil, errors.Is(err, ErrTransactionNotFound):
			// not committed yet
		case ctx.Err() != nil:
			// fall through to the deadline below
		default:
			var apiErr *APIError
			if errors.As(err, &apiErr) && !IsRetryable(err) {
				return nil, err
			}
			c.logger.Debug("transaction lookup failed, retrying", "hash", hash, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not committed: %w", hash, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *AptosClient) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

// FormatU64 renders a u64 the way the REST API expects it
func FormatU64(v uint64) string {
	return strconv.FormatUint(v, 10)
}
