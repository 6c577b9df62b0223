package client

import "encoding/json"

const (
	entryFunctionPayloadType = "entry_function_payload"
	ed25519SignatureType     = "ed25519_signature"
	pendingTransactionType   = "pending_transaction"
)

// ViewRequest calls a read-only Move view function
type ViewRequest struct {
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

// EntryFunctionPayload calls a public entry function
type EntryFunctionPayload struct {
	Type          string   `json:"type"`
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

// NewEntryFunctionPayload builds a payload calling function with the given
// type and value arguments. u64 values must be passed as decimal strings.
func NewEntryFunctionPayload(function string, typeArgs []string, args ...any) *EntryFunctionPayload {
	if typeArgs == nil {
		typeArgs = []string{}
	}
	if args == nil {
		args = []any{}
	}
	return &EntryFunctionPayload{
		Type:          entryFunctionPayloadType,
		Function:      function,
		TypeArguments: typeArgs,
		Arguments:     args,
	}
}

// TransactionRequest is an unsigned user transaction
type TransactionRequest struct {
	Sender                  string                `json:"sender"`
	SequenceNumber          string                `json:"sequence_number"`
	MaxGasAmount            string                `json:"max_gas_amount"`
	GasUnitPrice            string                `json:"gas_unit_price"`
	ExpirationTimestampSecs string                `json:"expiration_timestamp_secs"`
	Payload                 *EntryFunctionPayload `json:"payload"`
}

type Signature struct {
	Type      string `json:"type"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

// NewEd25519Signature wraps 0x-prefixed hex key and signature
func NewEd25519Signature(publicKey, signature string) *Signature {
	return &Signature{Type: ed25519SignatureType, PublicKey: publicKey, Signature: signature}
}

// SignedTransaction is a transaction ready for submission
type SignedTransaction struct {
	TransactionRequest
	Signature *Signature `json:"signature"`
}

// Transaction is the subset of the node's transaction view we use. Pending
// transactions carry only the request fields and a hash.
type Transaction struct {
	Type           string          `json:"type"`
	Hash           string          `json:"hash"`
	Version        string          `json:"version,omitempty"`
	Success        bool            `json:"success"`
	VMStatus       string          `json:"vm_status,omitempty"`
	Sender         string          `json:"sender,omitempty"`
	SequenceNumber string          `json:"sequence_number,omitempty"`
	GasUsed        string          `json:"gas_used,omitempty"`
	Timestamp      string          `json:"timestamp,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// IsPending reports whether the node has not yet committed the transaction
func (t *Transaction) IsPending() bool {
	return t.Type == pendingTransactionType
}

type AccountInfo struct {
	SequenceNumber    string `json:"sequence_number"`
	AuthenticationKey string `json:"authentication_key"`
}

type LedgerInfo struct {
	ChainID         uint8  `json:"chain_id"`
	Epoch           string `json:"epoch"`
	LedgerVersion   string `json:"ledger_version"`
	LedgerTimestamp string `json:"ledger_timestamp"`
}

type gasEstimate struct {
	GasEstimate uint64 `json:"gas_estimate"`
}
