package feed

import (
	"encoding/json"
	"time"
)

// ChangeMessage announces a committed transaction mutation to other
// instances so their live queries for the same user fire again. It
// carries only identifiers; receivers re-query the backend for truth.
type ChangeMessage struct {
	UID       string    `json:"uid"`
	Op        string    `json:"op"`
	TxID      string    `json:"tx_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage creates a change message for a mutation.
func NewChangeMessage(uid, op, txID string) *ChangeMessage {
	return &ChangeMessage{
		UID:       uid,
		Op:        op,
		TxID:      txID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
