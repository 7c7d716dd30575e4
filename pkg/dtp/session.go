package dtp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bim2twin/dtpfix/pkg/types"
)

// Session log operation kinds. Each kind has a structural inverse used by
// the reverter.
const (
	OpDeleteField = "delete_field"
	OpAddField    = "add_field"
	OpLinkEdge    = "link_edge"
	OpUnlinkEdge  = "unlink_edge"
	OpDeleteNode  = "delete_node"
	OpCreateNode  = "create_node"
)

// SessionEntry records one mutation with enough information to invert it.
// DeleteNode entries carry a full pre-delete snapshot of the node.
type SessionEntry struct {
	Seq       int         `json:"seq"`
	Timestamp time.Time   `json:"ts"`
	Op        string      `json:"op"`
	IRI       string      `json:"iri"`
	Field     string      `json:"field,omitempty"`
	Label     string      `json:"label,omitempty"`
	Target    string      `json:"target,omitempty"`
	OldValue  any         `json:"old,omitempty"`
	NewValue  any         `json:"new,omitempty"`
	Node      *types.Node `json:"node,omitempty"`
	Simulated bool        `json:"simulated,omitempty"`
}

// sessionFilePrefix keeps lexicographic directory order equal to
// chronological order: session-<UTC timestamp>-<uuid8>.jsonl.
const sessionFilePrefix = "session-"

// SessionWriter appends mutation entries to a JSONL log file, one flush
// per entry so a crash loses at most the in-flight mutation.
type SessionWriter struct {
	path string
	file *os.File
	seq  int
}

// NewSessionWriter creates the log directory if needed and opens a fresh
// session file for this run.
func NewSessionWriter(dir string) (*SessionWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session log dir: %w", err)
	}
	runID := uuid.NewString()[:8]
	name := fmt.Sprintf("%s%s-%s.jsonl", sessionFilePrefix, time.Now().UTC().Format("20060102T150405"), runID)
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create session log: %w", err)
	}
	return &SessionWriter{path: path, file: file}, nil
}

// Path returns the session log file path.
func (w *SessionWriter) Path() string {
	return w.path
}

// Append writes one entry, assigning its sequence number.
func (w *SessionWriter) Append(entry SessionEntry) error {
	w.seq++
	entry.Seq = w.seq
	entry.Timestamp = time.Now().UTC()
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode session entry: %w", err)
	}
	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write session entry: %w", err)
	}
	return w.file.Sync()
}

// Close closes the underlying file. A session with no entries is removed
// so revert directories only contain logs of runs that mutated something.
func (w *SessionWriter) Close() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	if w.seq == 0 {
		return os.Remove(w.path)
	}
	return nil
}

// ReadSessionLog parses a JSONL session log in file order.
func ReadSessionLog(path string) ([]SessionEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}
	defer file.Close()

	var entries []SessionEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var entry SessionEntry
		if err := json.Unmarshal([]byte(text), &entry); err != nil {
			return nil, fmt.Errorf("session log %s line %d: %w", path, line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session log %s: %w", path, err)
	}
	return entries, nil
}

// ListSessionLogs returns the session log files under dir in filename,
// hence chronological, order.
func ListSessionLogs(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, sessionFilePrefix+"*.jsonl"))
	if err != nil {
		return nil, err
	}
	// Glob results are already sorted lexicographically.
	return matches, nil
}
