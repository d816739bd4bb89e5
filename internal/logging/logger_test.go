package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriter_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %s", buf.String())
	}
	log.Warn("kept", "loan_id", "L1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not json: %v (%s)", err, buf.String())
	}
	if rec["msg"] != "kept" || rec["loan_id"] != "L1" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewWithWriter_BadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "loud")
	log.Debug("no")
	log.Info("yes")
	if !bytes.Contains(buf.Bytes(), []byte(`"yes"`)) || bytes.Contains(buf.Bytes(), []byte(`"no"`)) {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}
