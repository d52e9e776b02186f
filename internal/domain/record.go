package domain

import (
	"strconv"
	"time"
)

// Record is one message delivered by a queue-backed host. Its Value is the
// JSON event passed to the handler.
type Record struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int32
	Offset    int64
	Headers   map[string]string
	Timestamp time.Time
}

// ID identifies the record within its log as topic/partition/offset.
func (r Record) ID() string {
	return r.Topic + "/" + strconv.FormatInt(int64(r.Partition), 10) + "/" + strconv.FormatInt(r.Offset, 10)
}
