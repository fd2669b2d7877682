package core

import (
	"path/filepath"
	"strings"
	"time"
)

// ID is a unique identifier for journal entries.
// It is generated from database sequences.
type ID uint64

// Well-known metadata keys written by the extraction stage.
const (
	MetaTimestamp = "timestamp"
	MetaLocation  = "location"
	MetaSpeaker   = "speaker"
)

// Metadata is the payload of a KindMetadata record: string keys mapped to
// primitive values (string, bool, nil, integers and floats).
//
// After a round trip through storage, integral numbers come back as int64
// and all other numbers as float64.
type Metadata map[string]any

// Clone returns a shallow copy of the mapping.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Equal reports whether two mappings hold the same keys and values.
// Numbers are compared by value regardless of their Go type.
func (m Metadata) Equal(other Metadata) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		ov, ok := other[k]
		if !ok || !primitiveEqual(v, ov) {
			return false
		}
	}
	return true
}

// String returns the string value stored under key, or "" if the key is
// absent or not a string.
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

func primitiveEqual(a, b any) bool {
	ai, aInt := asInt64(a)
	bi, bInt := asInt64(b)
	if aInt && bInt {
		return ai == bi
	}
	af, aNum := asFloat64(a)
	bf, bNum := asFloat64(b)
	if aNum || bNum {
		if !aNum || !bNum {
			return false
		}
		// A float32 survives encoding only to float32 precision.
		if isFloat32(a) || isFloat32(b) {
			return float32(af) == float32(bf)
		}
		return af == bf
	}
	return a == b
}

func isFloat32(v any) bool {
	_, ok := v.(float32)
	return ok
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), n <= 1<<63-1
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= 1<<63-1
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	if i, ok := asInt64(v); ok {
		return float64(i), true
	}
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// IsPrimitive reports whether v may be stored as a Metadata value.
func IsPrimitive(v any) bool {
	switch v.(type) {
	case nil, string, bool:
		return true
	}
	_, ok := asFloat64(v)
	return ok
}

// Memo is a source recording handed to the pipeline.
type Memo struct {
	Name       string    // Stable record name, usually derived from the file name
	AudioPath  string    // Location of the source audio (or transcript) file
	RecordedAt time.Time // Optional recording time; zero if unknown
}

// NameFromPath derives a record name from a file path: the base name up to
// its first dot. "memos/memo001.m4a" becomes "memo001".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return base
}

// Op is the storage operation an Event describes.
type Op int

const (
	OpSave Op = iota + 1
	OpLoad
)

func (o Op) String() string {
	switch o {
	case OpSave:
		return "save"
	case OpLoad:
		return "load"
	default:
		return "unknown"
	}
}

// Event is an observability record of a single save or load attempt.
// It never contains payload data or raw error text.
type Event struct {
	Id         ID
	Op         Op
	Kind       RecordKind
	Name       string
	Bytes      int64  // Bytes written or read; 0 if the attempt failed before I/O
	Success    bool
	ErrorClass string // See Classify
	At         time.Time
}

// Stage is a pipeline step that has completed for a memo.
type Stage uint8

const (
	StageTranscribed Stage = 1 << iota
	StageMetadata
	StageSummarized

	// StagesAll is the set of every stage; a memo is complete when it has all of them.
	StagesAll = StageTranscribed | StageMetadata | StageSummarized
)

func (s Stage) String() string {
	switch s {
	case StageTranscribed:
		return "transcribed"
	case StageMetadata:
		return "metadata"
	case StageSummarized:
		return "summarized"
	default:
		return "none"
	}
}

// Checkpoint tracks which pipeline stages have completed for a memo.
type Checkpoint struct {
	Name      string
	Stages    Stage
	UpdatedAt time.Time
}

// Has reports whether the given stage has completed.
func (c *Checkpoint) Has(stage Stage) bool {
	return c != nil && c.Stages&stage == stage
}

// Complete reports whether every stage has completed.
func (c *Checkpoint) Complete() bool {
	return c.Has(StagesAll)
}
