// Package audit keeps an append-only JSONL trail of gate activity: every
// applied override and a summary record per run. The trail is never
// rewritten; entries only accumulate.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/complygate/complygate/internal/override"
	"github.com/complygate/complygate/internal/types"
)

// Record is one audit event. Kind is "override" or "run".
type Record struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// override events
	RuleID        string `json:"rule_id,omitempty"`
	RequestedBy   string `json:"requested_by,omitempty"`
	Justification string `json:"justification,omitempty"`
	Suppressed    int    `json:"suppressed,omitempty"`

	// run events
	RunRef       string              `json:"run_ref,omitempty"`
	GateFailed   bool                `json:"gate_failed,omitempty"`
	Violations   int                 `json:"violations,omitempty"`
	Warnings     int                 `json:"warnings,omitempty"`
	ClassCounts  map[types.Class]int `json:"class_counts,omitempty"`
	FilesScanned int                 `json:"files_scanned,omitempty"`
}

// Log appends records to a JSONL file.
type Log struct {
	path string
}

// New places the audit trail under .git when root is a checkout, to keep it
// out of accidental commits, otherwise as a dotfile in the root.
func New(root string) *Log {
	gitDir := filepath.Join(root, ".git")
	path := filepath.Join(root, ".complygate_audit.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		path = filepath.Join(gitDir, "complygate_audit.jsonl")
	}
	return &Log{path: path}
}

// At uses an explicit file path instead of the root-derived default.
func At(path string) *Log { return &Log{path: path} }

// Append writes records to the end of the trail. Permissions are owner-only:
// justifications can reference internal tickets and people.
func (l *Log) Append(records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, r := range records {
		if r.Timestamp.IsZero() {
			r.Timestamp = time.Now().UTC()
		}
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("write audit record: %w", err)
		}
	}
	return nil
}

// AppendOverrides records every applied override.
func (l *Log) AppendOverrides(applied []override.Applied) error {
	records := make([]Record, 0, len(applied))
	for _, a := range applied {
		records = append(records, Record{
			Kind:          "override",
			Timestamp:     a.Timestamp,
			RuleID:        a.RuleID,
			RequestedBy:   a.RequestedBy,
			Justification: a.Justification,
			Suppressed:    a.Suppressed,
		})
	}
	return l.Append(records...)
}

// History returns all records, newest first. Undecodable lines are skipped
// rather than failing the whole read.
func (l *Log) History() ([]Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var records []Record
	dec := json.NewDecoder(f)
	for dec.More() {
		var r Record
		if err := dec.Decode(&r); err != nil {
			continue
		}
		records = append(records, r)
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}
