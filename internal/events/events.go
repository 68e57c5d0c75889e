// Package events publishes household record changes to RabbitMQ so external
// consumers (exports, notifications) can react without polling the database.
// Publishing is best-effort: a broker outage never fails the originating
// request.
package events

import (
	"encoding/json"
	"time"
)

// Record kinds carried in the routing envelope.
const (
	KindExpense = "expense"
	KindSaving  = "saving"
	KindBill    = "bill"
	KindDebt    = "debt"
	KindMember  = "member"
)

// Operations.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
	OpPaid    = "paid"
	OpRepaid  = "repaid"
)

// Event is the wire envelope for one record change.
type Event struct {
	Kind      string    `json:"kind"`
	Op        string    `json:"op"`
	RecordID  string    `json:"recordId"`
	FamilyID  string    `json:"familyId"`
	Timestamp time.Time `json:"timestamp"`
}

func New(kind, op, recordID, familyID string) Event {
	return Event{
		Kind:      kind,
		Op:        op,
		RecordID:  recordID,
		FamilyID:  familyID,
		Timestamp: time.Now().UTC(),
	}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func FromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
