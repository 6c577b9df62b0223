package swap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aptos-swap/pkg/client"
	"aptos-swap/pkg/wallet"
)

// Signer authorizes payloads for the connected account
type Signer interface {
	IsConnected() bool
	SignTransaction(ctx context.Context, payload *client.EntryFunctionPayload) (*client.SignedTransaction, error)
}

// Network submits signed transactions and reports their outcome
type Network interface {
	SubmitTransaction(ctx context.Context, txn *client.SignedTransaction) (string, error)
	WaitForTransaction(ctx context.Context, hash string) (*client.Transaction, error)
}

// Result is what a submission produced. Hash is empty when the
// transaction never reached the node.
type Result struct {
	Hash        string
	Transaction *client.Transaction
}

// Submit signs payload, submits it once and waits up to timeout for it to
// commit. The wait is not tied to ctx cancellation: once submitted, the
// outcome is always awaited. Nothing is ever resubmitted.
func Submit(ctx context.Context, signer Signer, network Network, payload *client.EntryFunctionPayload, timeout time.Duration) (*Result, error) {
	res := &Result{}

	signed, err := signer.SignTransaction(ctx, payload)
	if err != nil {
		return res, classifySignError(err)
	}

	hash, err := network.SubmitTransaction(ctx, signed)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrSubmission, err)
	}
	res.Hash = hash

	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	txn, err := network.WaitForTransaction(waitCtx, hash)
	res.Transaction = txn
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return res, fmt.Errorf("%w: %s not committed after %s", ErrFinalityTimeout, hash, timeout)
		}
		return res, err
	}
	return res, nil
}

func classifySignError(err error) error {
	switch {
	case errors.Is(err, wallet.ErrDeclined):
		return fmt.Errorf("%w: %w", ErrSignatureDeclined, err)
	case errors.Is(err, wallet.ErrNotConnected):
		return fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	default:
		return fmt.Errorf("%w: %w", ErrSubmission, err)
	}
}
