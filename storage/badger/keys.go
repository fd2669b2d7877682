package badger

import (
	"encoding/binary"

	"github.com/poiesic/memovault/core"
)

// Key prefixes for different data types
const (
	eventPrefix      = "evt:"
	eventIDSeq       = "evtseq"
	checkpointPrefix = "memochk:"
	latestKey        = "memolatest"
)

// makeEventKey generates a key for an event by ID.
// Format: prefix:id, big-endian so lexicographic order is insertion order.
func makeEventKey(id core.ID) []byte {
	buf := make([]byte, len(eventPrefix)+8)
	offset := copy(buf, eventPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeCheckpointKey generates a key for a memo's pipeline checkpoint.
func makeCheckpointKey(name string) []byte {
	return []byte(checkpointPrefix + name)
}
