// Package wallet holds the local signing identity used to authorize swaps.
package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"

	"aptos-swap/pkg/client"
)

const (
	DefaultMaxGasAmount = 20000
	DefaultTTL          = 10 * time.Minute

	ed25519Scheme = 0x00
	keyPrefix     = "ed25519-priv-"
)

var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrDeclined     = errors.New("signature declined")
)

// Chain is the node surface needed to build a transaction for signing
type Chain interface {
	Account(ctx context.Context, address string) (*client.AccountInfo, error)
	EstimateGasPrice(ctx context.Context) (uint64, error)
	EncodeSubmission(ctx context.Context, req *client.TransactionRequest) ([]byte, error)
}

// ConfirmFunc is consulted before every signature. Returning false
// declines the request.
type ConfirmFunc func(payload *client.EntryFunctionPayload) bool

// LocalWallet signs with an ed25519 key held in memory. A wallet created
// without a key reports itself as not connected.
type LocalWallet struct {
	chain   Chain
	key     ed25519.PrivateKey
	address string
	maxGas  uint64
	ttl     time.Duration
	confirm ConfirmFunc
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*LocalWallet)

func WithMaxGas(units uint64) Option {
	return func(w *LocalWallet) {
		if units > 0 {
			w.maxGas = units
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(w *LocalWallet) {
		if ttl > 0 {
			w.ttl = ttl
		}
	}
}

func WithConfirm(fn ConfirmFunc) Option {
	return func(w *LocalWallet) { w.confirm = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(w *LocalWallet) { w.logger = l }
}

// New loads a wallet from a hex private key: a 32 byte seed or a 64 byte
// expanded key, with or without 0x and the "ed25519-priv-" prefix. An
// empty key yields a disconnected wallet.
func New(chain Chain, privateKey string, opts ...Option) (*LocalWallet, error) {
	w := &LocalWallet{
		chain:  chain,
		maxGas: DefaultMaxGasAmount,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	privateKey = strings.TrimSpace(privateKey)
	if privateKey == "" {
		return w, nil
	}

	key, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	w.key = key
	w.address = DeriveAddress(key.Public().(ed25519.PublicKey))
	return w, nil
}

func parsePrivateKey(s string) (ed25519.PrivateKey, error) {
	s = strings.TrimPrefix(s, keyPrefix)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}

	raw, err := hexutil.Decode(strings.ToLower(s))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("invalid private key: got %d bytes, want %d or %d", len(raw), ed25519.SeedSize, ed25519.PrivateKeySize)
	}
}

// DeriveAddress returns the account address of a single-key ed25519
// account, sha3-256(public key || scheme).
func DeriveAddress(pub ed25519.PublicKey) string {
	buf := make([]byte, 0, len(pub)+1)
	buf = append(buf, pub...)
	buf = append(buf, ed25519Scheme)
	sum := sha3.Sum256(buf)
	return hexutil.Encode(sum[:])
}

// Generate creates a fresh key and returns its seed in hex with the address
func Generate() (privateKey, address string, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", err
	}
	return hexutil.Encode(priv.Seed()), DeriveAddress(pub), nil
}

func (w *LocalWallet) IsConnected() bool {
	return w.key != nil
}

func (w *LocalWallet) Address() (string, error) {
	if !w.IsConnected() {
		return "", ErrNotConnected
	}
	return w.address, nil
}

// PublicKey returns the 0x-hex public key, empty when disconnected
func (w *LocalWallet) PublicKey() string {
	if !w.IsConnected() {
		return ""
	}
	return hexutil.Encode(w.key.Public().(ed25519.PublicKey))
}

// SignTransaction wraps payload in a transaction for this account and
// signs it. It returns ErrDeclined when the confirm hook refuses.
func (w *LocalWallet) SignTransaction(ctx context.Context, payload *client.EntryFunctionPayload) (*client.SignedTransaction, error) {
	if !w.IsConnected() {
		return nil, ErrNotConnected
	}
	if w.confirm != nil && !w.confirm(payload) {
		return nil, ErrDeclined
	}

	account, err := w.chain.Account(ctx, w.address)
	if err != nil {
		if client.IsNotFound(err) {
			return nil, fmt.Errorf("account %s does not exist on chain, fund it first: %w", w.address, err)
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	gasPrice, err := w.chain.EstimateGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	req := client.TransactionRequest{
		Sender:                  w.address,
		SequenceNumber:          account.SequenceNumber,
		MaxGasAmount:            client.FormatU64(w.maxGas),
		GasUnitPrice:            client.FormatU64(gasPrice),
		ExpirationTimestampSecs: client.FormatU64(uint64(w.now().Add(w.ttl).Unix())),
		Payload:                 payload,
	}

	msg, err := w.chain.EncodeSubmission(ctx, &req)
	if err != nil {
		return nil, err
	}

	sig := ed25519.Sign(w.key, msg)
	w.logger.Debug("transaction signed", "function", payload.Function, "sequence", req.SequenceNumber)

	return &client.SignedTransaction{
		TransactionRequest: req,
		Signature:          client.NewEd25519Signature(w.PublicKey(), hexutil.Encode(sig)),
	}, nil
}
