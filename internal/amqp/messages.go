package amqp

import (
	"encoding/json"
	"time"
)

// BucketChangedMessage tells the mirror worker that a month's rows changed.
// It carries only the bucket label and the action; the worker reloads the
// whole bucket from the database, so a lost duplicate costs one extra export
// and nothing else.
type BucketChangedMessage struct {
	Bucket    string    `json:"bucket"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBucketChangedMessage(bucket, action string) *BucketChangedMessage {
	return &BucketChangedMessage{
		Bucket:    bucket,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *BucketChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BucketChangedMessageFromJSON(data []byte) (*BucketChangedMessage, error) {
	var msg BucketChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
