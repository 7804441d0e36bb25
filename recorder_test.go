package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecorderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, "room")

	if err := r.Write(RecordEntry{Tick: 1}); err != nil {
		t.Fatalf("write before start should be a no-op, got %v", err)
	}
	if err := r.Start("duel", 1234); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if want := filepath.Join(dir, "room-duel-1234.jsonl.zst"); r.Path() != want {
		t.Errorf("expected path %s, got %s", want, r.Path())
	}

	e := newTestEngine()
	e.AddPlanetSpec(PlanetSpec{ID: "a", Owner: 1})
	for i := 1; i <= 3; i++ {
		state := e.Update(int64(i * 50))
		if err := r.Write(RecordEntry{Tick: uint64(i), Events: e.DrainEvents(), State: state}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close should be harmless, got %v", err)
	}

	entries, err := ReadRecording(r.Path())
	if err != nil {
		t.Fatalf("ReadRecording: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[2].Tick != 3 || entries[2].State.Time != 150 || entries[2].State.Planets[0].ID != "a" {
		t.Errorf("unexpected last entry %+v", entries[2])
	}
}

func TestRecorderStartReplacesOpenFile(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, "room")
	r.Start("classic", 1)
	r.Write(RecordEntry{Tick: 1})
	first := r.Path()

	if err := r.Start("classic", 2); err != nil {
		t.Fatal(err)
	}
	r.Close()

	entries, err := ReadRecording(first)
	if err != nil || len(entries) != 1 {
		t.Errorf("first recording should be finished, got %d entries (%v)", len(entries), err)
	}
	files, _ := os.ReadDir(dir)
	if len(files) != 2 {
		t.Errorf("expected 2 recordings, got %d", len(files))
	}
}

func TestReadRecordingMissing(t *testing.T) {
	_, err := ReadRecording(filepath.Join(t.TempDir(), "nope.zst"))
	if err == nil || !strings.HasPrefix(err.Error(), "recorder:") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}
