package swap

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of the swap controller
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// IsTerminal reports whether s ends an attempt
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusError
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Message is the user-facing text for a status
func (s Status) Message() string {
	switch s {
	case StatusPending:
		return "Transaction is Pending..."
	case StatusSuccess:
		return "Transaction Successful"
	case StatusError:
		return "Transaction Failed"
	default:
		return ""
	}
}

// StatusEvent is published on every transition
type StatusEvent struct {
	Status   Status    `json:"status"`
	IntentID string    `json:"intent_id,omitempty"`
	TxHash   string    `json:"tx_hash,omitempty"`
	Message  string    `json:"message,omitempty"`
	Err      error     `json:"-"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

func newEvent(status Status, intentID, txHash string, err error) StatusEvent {
	ev := StatusEvent{
		Status:   status,
		IntentID: intentID,
		TxHash:   txHash,
		Message:  status.Message(),
		Err:      err,
		At:       time.Now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}
