package kafka

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/laurel/pkg/models"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Parsed content
	ClientRecord *models.ClientRecord
}

// ParseClientRecord parses the message value as a client record
func (m *IncomingMessage) ParseClientRecord() error {
	var record models.ClientRecord
	if err := json.Unmarshal(m.Value, &record); err != nil {
		return err
	}
	m.ClientRecord = &record
	return nil
}

// GetSourceSystem returns the source system of the record
func (m *IncomingMessage) GetSourceSystem() string {
	if m.ClientRecord != nil && m.ClientRecord.SourceSystem != "" {
		return m.ClientRecord.SourceSystem
	}
	// Fallback to header
	return m.Headers["source_system"]
}

// GetSourceClientID returns the source system's key for the client
func (m *IncomingMessage) GetSourceClientID() string {
	if m.ClientRecord != nil && m.ClientRecord.SourceClientID != "" {
		return m.ClientRecord.SourceClientID
	}
	return m.Key
}
