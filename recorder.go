package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// RecordEntry is one line of a match recording
type RecordEntry struct {
	Tick   uint64        `json:"tick"`
	Events []EngineEvent `json:"events,omitempty"`
	State  GameState     `json:"state"`
}

// Recorder writes one compressed JSONL file per match
type Recorder struct {
	baseDir string
	room    string

	mu   sync.Mutex
	path string
	f    *os.File
	enc  *zstd.Encoder
	w    *bufio.Writer
}

// NewRecorder creates a recorder for a room. Nothing is written until Start.
func NewRecorder(baseDir, room string) *Recorder {
	return &Recorder{baseDir: baseDir, room: room}
}

// Start opens a new recording for a match that began at startMs. Any open
// recording is closed first.
func (r *Recorder) Start(mapID string, startMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.baseDir, 0o755); err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	path := filepath.Join(r.baseDir, fmt.Sprintf("%s-%s-%d.jsonl.zst", r.room, mapID, startMs))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("recorder: %w", err)
	}
	r.path = path
	r.f = f
	r.enc = enc
	r.w = bufio.NewWriterSize(enc, 64*1024)
	return nil
}

// Path returns the file of the current or last recording
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Write appends one entry. It is a no-op when no recording is open.
func (r *Recorder) Write(e RecordEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := r.w.Write(b); err != nil {
		return err
	}
	return r.w.WriteByte('\n')
}

// Close finishes the current recording
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked()
}

func (r *Recorder) closeLocked() error {
	var err error
	if r.w != nil {
		err = r.w.Flush()
	}
	if r.enc != nil {
		if cerr := r.enc.Close(); err == nil {
			err = cerr
		}
		r.enc = nil
	}
	if r.f != nil {
		_ = r.f.Close()
		r.f = nil
	}
	r.w = nil
	return err
}

// ReadRecording decodes every entry of a finished recording
func ReadRecording(path string) ([]RecordEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}
	defer dec.Close()

	var out []RecordEntry
	jd := json.NewDecoder(bufio.NewReader(dec))
	for {
		var e RecordEntry
		if err := jd.Decode(&e); err == io.EOF {
			break
		} else if err != nil {
			return out, fmt.Errorf("recorder: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
