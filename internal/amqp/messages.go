package amqp

import (
	"encoding/json"
	"time"
)

// TransactionChangeMessage announces one committed store mutation. It carries
// only the operation and id; consumers fetch the current collection state
// themselves, so a lost message at worst delays a mirror refresh.
type TransactionChangeMessage struct {
	Op        string    `json:"op"`
	ID        int64     `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionChangeMessage creates a change message stamped with now.
func NewTransactionChangeMessage(op string, id int64) *TransactionChangeMessage {
	return &TransactionChangeMessage{
		Op:        op,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionChangeMessageFromJSON creates a message from JSON bytes
func TransactionChangeMessageFromJSON(data []byte) (*TransactionChangeMessage, error) {
	var msg TransactionChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
