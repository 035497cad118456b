package amqp

import (
	"encoding/json"
	"time"
)

// Message kinds for operation sync. An upsert carries only the operation id;
// the worker fetches the current row from the database, so a message is never
// stale. A delete carries the id of a row that no longer exists.
const (
	KindUpsert = "upsert"
	KindDelete = "delete"
)

// OperationSyncMessage asks the export worker to reconcile one operation with
// the external export target.
type OperationSyncMessage struct {
	OperationID string    `json:"operation_id"`
	Kind        string    `json:"kind"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewUpsertMessage creates a sync message for a created or updated operation
func NewUpsertMessage(operationID string) *OperationSyncMessage {
	return &OperationSyncMessage{
		OperationID: operationID,
		Kind:        KindUpsert,
		Timestamp:   time.Now(),
	}
}

// NewDeleteMessage creates a sync message for a removed operation
func NewDeleteMessage(operationID string) *OperationSyncMessage {
	return &OperationSyncMessage{
		OperationID: operationID,
		Kind:        KindDelete,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *OperationSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func OperationSyncMessageFromJSON(data []byte) (*OperationSyncMessage, error) {
	var msg OperationSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
