package wal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestWAL(t *testing.T) (*CompressedWAL, string) {
	t.Helper()
	dir := t.TempDir()
	w, err := NewCompressedWAL(dir)
	if err != nil {
		t.Fatalf("Failed to create compressed WAL: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w, dir
}

func TestNewCompressedWAL(t *testing.T) {
	w, _ := newTestWAL(t)

	if w.GetCurrentLSN() != 0 {
		t.Errorf("Expected initial LSN 0, got %d", w.GetCurrentLSN())
	}
}

func TestCompressedWAL_AppendChunk(t *testing.T) {
	w, _ := newTestWAL(t)

	res, err := w.AppendChunk([]Record{
		{OpType: OpAddVertex, Data: []byte(`{"id":1}`)},
		{OpType: OpAddVertex, Data: []byte(`{"id":2}`)},
	})
	if err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	// two records plus the commit marker
	if res.LastLSN != 3 {
		t.Errorf("Expected last LSN 3, got %d", res.LastLSN)
	}
	if res.BytesUncompressed != 16 {
		t.Errorf("Expected 16 uncompressed bytes, got %d", res.BytesUncompressed)
	}
}

func TestCompressedWAL_Replay(t *testing.T) {
	w, _ := newTestWAL(t)

	chunks := [][]string{{"a", "b"}, {"c"}}
	for _, chunk := range chunks {
		var recs []Record
		for _, d := range chunk {
			recs = append(recs, Record{OpType: OpAddVertex, Data: []byte(d)})
		}
		if _, err := w.AppendChunk(recs); err != nil {
			t.Fatalf("Failed to append: %v", err)
		}
	}

	var got []string
	err := w.Replay(func(e *Entry) error {
		got = append(got, string(e.Data))
		return nil
	})
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	if strings.Join(got, ",") != "a,b,c" {
		t.Errorf("Replay = %v, want [a b c]", got)
	}
}

func TestCompressedWAL_ReopenRecoversLSN(t *testing.T) {
	dir := t.TempDir()

	w, err := NewCompressedWAL(dir)
	if err != nil {
		t.Fatalf("Failed to create WAL: %v", err)
	}
	if _, err := w.AppendChunk([]Record{{OpType: OpAddEdge, Data: []byte("e1")}}); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	w2, err := NewCompressedWAL(dir)
	if err != nil {
		t.Fatalf("Failed to reopen WAL: %v", err)
	}
	defer w2.Close()

	if w2.GetCurrentLSN() != 2 {
		t.Errorf("Expected recovered LSN 2, got %d", w2.GetCurrentLSN())
	}

	res, err := w2.AppendChunk([]Record{{OpType: OpAddEdge, Data: []byte("e2")}})
	if err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	if res.LastLSN != 4 {
		t.Errorf("Expected LSN 4 after reopen, got %d", res.LastLSN)
	}
}

func TestCompressedWAL_TornTailIsDiscarded(t *testing.T) {
	dir := t.TempDir()

	w, err := NewCompressedWAL(dir)
	if err != nil {
		t.Fatalf("Failed to create WAL: %v", err)
	}
	if _, err := w.AppendChunk([]Record{{OpType: OpAddVertex, Data: []byte("kept")}}); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	path := w.Path()
	w.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	committedSize := info.Size()

	// Simulate a crash halfway through writing the next chunk
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.Write([]byte{0, 0, 0, 0, 0, 0, 0, 3, byte(OpAddVertex), 0, 0})
	f.Close()

	w2, err := NewCompressedWAL(dir)
	if err != nil {
		t.Fatalf("Failed to reopen WAL with torn tail: %v", err)
	}
	defer w2.Close()

	var got []string
	if err := w2.Replay(func(e *Entry) error {
		got = append(got, string(e.Data))
		return nil
	}); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(got) != 1 || got[0] != "kept" {
		t.Errorf("Replay = %v, want [kept]", got)
	}

	info, err = os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != committedSize {
		t.Errorf("torn tail not cut: size %d, want %d", info.Size(), committedSize)
	}
}

func TestCompressedWAL_ChecksumMismatch(t *testing.T) {
	dir := t.TempDir()

	w, err := NewCompressedWAL(dir)
	if err != nil {
		t.Fatalf("Failed to create WAL: %v", err)
	}
	if _, err := w.AppendChunk([]Record{{OpType: OpAddVertex, Data: []byte("payload")}}); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	w.Close()

	path := filepath.Join(dir, walFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	raw[13] ^= 0xFF // first data byte of the first entry
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewCompressedWAL(dir); err == nil {
		t.Fatal("Expected checksum error on reopen")
	}
}

func TestCompressedWAL_Truncate(t *testing.T) {
	w, _ := newTestWAL(t)

	if _, err := w.AppendChunk([]Record{{OpType: OpAddVertex, Data: []byte("x")}}); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	if err := w.Truncate(); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}

	if w.GetCurrentLSN() != 0 {
		t.Errorf("Expected LSN 0 after truncate, got %d", w.GetCurrentLSN())
	}
	entries, err := w.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries after truncate, got %d", len(entries))
	}
}

func TestCompressedWAL_Statistics(t *testing.T) {
	w, _ := newTestWAL(t)

	data := []byte(strings.Repeat("compressible ", 100))
	if _, err := w.AppendChunk([]Record{{OpType: OpSetVertexProperty, Data: data}}); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	stats := w.GetStatistics()
	if stats.Chunks != 1 {
		t.Errorf("Chunks = %d, want 1", stats.Chunks)
	}
	if stats.TotalWrites != 2 {
		t.Errorf("TotalWrites = %d, want 2", stats.TotalWrites)
	}
	if stats.CompressionRatio <= 0 {
		t.Errorf("Expected positive compression ratio, got %f", stats.CompressionRatio)
	}
}

func TestCompressedWAL_Closed(t *testing.T) {
	w, _ := newTestWAL(t)
	w.Close()

	if _, err := w.AppendChunk(nil); err != ErrClosed {
		t.Errorf("AppendChunk after close = %v, want ErrClosed", err)
	}
}
