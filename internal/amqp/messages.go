package amqp

import (
	"encoding/json"
	"time"
)

// ChangeMessage announces a mutation of the transaction list. It carries no
// transaction data; consumers read the store themselves.
type ChangeMessage struct {
	Operation     string    `json:"operation"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Count         int       `json:"count"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewChangeMessage(operation, transactionID string, count int, at time.Time) *ChangeMessage {
	return &ChangeMessage{
		Operation:     operation,
		TransactionID: transactionID,
		Count:         count,
		Timestamp:     at.UTC(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
