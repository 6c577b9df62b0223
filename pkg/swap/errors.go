package swap

import "errors"

// Rejections returned synchronously by ExecuteSwap. No transaction is
// attempted and the status does not change.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUninitializedPool = errors.New("pool is not initialized")
	ErrUnauthenticated   = errors.New("wallet not connected")
	ErrSwapInProgress    = errors.New("a swap is already in progress")
	ErrUnprotectedSwap   = errors.New("swaps without a minimum output are disabled in configuration")
)

// Failures reported on the Error status event of an attempt
var (
	ErrSignatureDeclined = errors.New("signature declined")
	ErrSubmission        = errors.New("transaction submission failed")
	ErrFinalityTimeout   = errors.New("timed out waiting for finality")
)
