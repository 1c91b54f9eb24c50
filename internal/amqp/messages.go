package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ImportRequestMessage asks the worker to import a workbook into the
// SQLite snapshot. Sheet overrides the configured worksheet when set.
type ImportRequestMessage struct {
	Path        string    `json:"path"`
	Sheet       string    `json:"sheet,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewImportRequestMessage creates a request stamped with the current time.
func NewImportRequestMessage(path, sheet string) *ImportRequestMessage {
	return &ImportRequestMessage{
		Path:        path,
		Sheet:       sheet,
		RequestedAt: time.Now().UTC(),
	}
}

// Validate reports a request that cannot be processed.
func (m *ImportRequestMessage) Validate() error {
	if strings.TrimSpace(m.Path) == "" {
		return errors.New("import request without workbook path")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ImportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportRequestMessageFromJSON decodes and validates a message body.
func ImportRequestMessageFromJSON(data []byte) (*ImportRequestMessage, error) {
	var msg ImportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
