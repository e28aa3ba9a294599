package amqp

import (
	"encoding/json"
	"time"
)

// RefreshMessage asks the worker to re-pull one catalog entity from the CMS.
// It carries only the entity name; the worker fetches the records itself.
type RefreshMessage struct {
	Entity    string    `json:"entity"` // "products", "orders" or "categories", "" means all
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRefreshMessage(entity, reason string) *RefreshMessage {
	return &RefreshMessage{
		Entity:    entity,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
