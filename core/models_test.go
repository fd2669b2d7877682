package core

import (
	"errors"
	"testing"
)

func TestRecordKind_Policy(t *testing.T) {
	tests := []struct {
		kind      RecordKind
		dir       string
		extension string
		encrypted bool
	}{
		{KindTranscription, "transcription", ".txt", true},
		{KindSummary, "summary", ".txt", false},
		{KindMetadata, "metadata", ".json", true},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			if !tt.kind.Valid() {
				t.Fatalf("%v should be valid", tt.kind)
			}
			if got := tt.kind.Dir(); got != tt.dir {
				t.Errorf("Dir() = %q, want %q", got, tt.dir)
			}
			if got := tt.kind.Extension(); got != tt.extension {
				t.Errorf("Extension() = %q, want %q", got, tt.extension)
			}
			if got := tt.kind.Encrypted(); got != tt.encrypted {
				t.Errorf("Encrypted() = %v, want %v", got, tt.encrypted)
			}
			if got := tt.kind.String(); got != tt.dir {
				t.Errorf("String() = %q, want %q", got, tt.dir)
			}
		})
	}
}

func TestRecordKind_ZeroValueInvalid(t *testing.T) {
	var k RecordKind
	if k.Valid() {
		t.Error("zero RecordKind should be invalid")
	}
	if err := ValidateKind(k); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ValidateKind(0) = %v, want ErrUnknownKind", err)
	}
}

func TestKinds_DirectoriesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Kinds() {
		if seen[k.Dir()] {
			t.Errorf("duplicate directory %q", k.Dir())
		}
		seen[k.Dir()] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 kinds, got %d", len(seen))
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q) error: %v", k, err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v", k, got)
		}
	}

	got, err := ParseKind("  Metadata ")
	if err != nil || got != KindMetadata {
		t.Errorf("ParseKind is not case-insensitive: %v, %v", got, err)
	}

	if _, err := ParseKind("audio"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(audio) error = %v, want ErrUnknownKind", err)
	}
}

func TestMetadata_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Metadata
		want bool
	}{
		{"identical", Metadata{"a": "x"}, Metadata{"a": "x"}, true},
		{"int vs int64", Metadata{"ts": 1700000000}, Metadata{"ts": int64(1700000000)}, true},
		{"int vs float64", Metadata{"ts": 3}, Metadata{"ts": 3.0}, true},
		{"fraction", Metadata{"ts": 3.5}, Metadata{"ts": 3.5}, true},
		{"float32 vs float64", Metadata{"c": float32(0.1)}, Metadata{"c": 0.1}, true},
		{"float32 differs", Metadata{"c": float32(0.1)}, Metadata{"c": 0.2}, false},
		{"different value", Metadata{"a": "x"}, Metadata{"a": "y"}, false},
		{"different keys", Metadata{"a": "x"}, Metadata{"b": "x"}, false},
		{"different length", Metadata{"a": "x"}, Metadata{"a": "x", "b": nil}, false},
		{"number vs string", Metadata{"a": 1}, Metadata{"a": "1"}, false},
		{"bools", Metadata{"a": true}, Metadata{"a": true}, true},
		{"nils", Metadata{"a": nil}, Metadata{"a": nil}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Equal(tt.a); got != tt.want {
				t.Errorf("Equal() not symmetric: %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetadata_Clone(t *testing.T) {
	m := Metadata{"speaker": "Speaker 1"}
	c := m.Clone()
	c["speaker"] = "Changed"
	if m.String("speaker") != "Speaker 1" {
		t.Error("Clone shares storage with original")
	}
	if Metadata(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestNameFromPath(t *testing.T) {
	tests := map[string]string{
		"memos/memo001.m4a":        "memo001",
		"/abs/path/Recording.1.wav": "Recording",
		"plain":                    "plain",
	}
	for in, want := range tests {
		if got := NameFromPath(in); got != want {
			t.Errorf("NameFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckpoint_Stages(t *testing.T) {
	var nilCp *Checkpoint
	if nilCp.Has(StageTranscribed) {
		t.Error("nil checkpoint should have no stages")
	}

	cp := &Checkpoint{Name: "memo001", Stages: StageTranscribed | StageMetadata}
	if !cp.Has(StageTranscribed) || !cp.Has(StageMetadata) {
		t.Error("expected transcribed and metadata stages")
	}
	if cp.Has(StageSummarized) || cp.Complete() {
		t.Error("checkpoint should not be complete")
	}

	cp.Stages |= StageSummarized
	if !cp.Complete() {
		t.Error("checkpoint should be complete")
	}
}
