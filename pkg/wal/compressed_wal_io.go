package wal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"time"

	"github.com/golang/snappy"
)

// entryOverhead is the fixed size of an encoded entry without data:
// [LSN:8][OpType:1][DataLen:4][Checksum:4][Timestamp:8]
const entryOverhead = 8 + 1 + 4 + 4 + 8

// AppendChunk appends records followed by a commit marker, then flushes and
// syncs once. An empty chunk still writes the marker.
func (w *CompressedWAL) AppendChunk(records []Record) (AppendResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return AppendResult{}, ErrClosed
	}

	startLSN := w.currentLSN
	now := time.Now().Unix()
	var res AppendResult

	all := make([]Record, 0, len(records)+1)
	all = append(all, records...)
	all = append(all, Record{OpType: OpCommitChunk})
	for _, rec := range all {
		w.currentLSN++
		compressed := snappy.Encode(nil, rec.Data)

		entry := Entry{
			LSN:       w.currentLSN,
			OpType:    rec.OpType,
			Data:      compressed,
			Checksum:  crc32.ChecksumIEEE(compressed),
			Timestamp: now,
		}
		if err := w.writeEntry(&entry); err != nil {
			w.currentLSN = startLSN
			return AppendResult{}, fmt.Errorf("failed to write WAL entry: %w", err)
		}

		res.BytesUncompressed += len(rec.Data)
		res.BytesCompressed += len(compressed)
	}

	if err := w.writer.Flush(); err != nil {
		w.currentLSN = startLSN
		return AppendResult{}, fmt.Errorf("failed to flush WAL: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return AppendResult{}, fmt.Errorf("failed to sync WAL: %w", err)
	}

	w.totalWrites += uint64(len(all))
	w.chunks++
	w.bytesUncompressed += uint64(res.BytesUncompressed)
	w.bytesCompressed += uint64(res.BytesCompressed)

	res.LastLSN = w.currentLSN
	return res, nil
}

// writeEntry writes an entry to the buffered writer.
// Format: [LSN:8][OpType:1][DataLen:4][Data:N][Checksum:4][Timestamp:8]
func (w *CompressedWAL) writeEntry(entry *Entry) error {
	if err := binary.Write(w.writer, binary.BigEndian, entry.LSN); err != nil {
		return err
	}
	if err := w.writer.WriteByte(byte(entry.OpType)); err != nil {
		return err
	}
	if err := binary.Write(w.writer, binary.BigEndian, uint32(len(entry.Data))); err != nil {
		return err
	}
	if _, err := w.writer.Write(entry.Data); err != nil {
		return err
	}
	if err := binary.Write(w.writer, binary.BigEndian, entry.Checksum); err != nil {
		return err
	}
	return binary.Write(w.writer, binary.BigEndian, entry.Timestamp)
}

// readEntry reads one entry and decompresses its data. A torn entry at the
// end of the file is reported as io.ErrUnexpectedEOF.
func readEntry(reader *bufio.Reader) (*Entry, int64, error) {
	entry := &Entry{}

	if err := binary.Read(reader, binary.BigEndian, &entry.LSN); err != nil {
		return nil, 0, err
	}

	opTypeByte, err := reader.ReadByte()
	if err != nil {
		return nil, 0, io.ErrUnexpectedEOF
	}
	entry.OpType = OpType(opTypeByte)

	var dataLen uint32
	if err := binary.Read(reader, binary.BigEndian, &dataLen); err != nil {
		return nil, 0, io.ErrUnexpectedEOF
	}

	compressed := make([]byte, dataLen)
	if _, err := io.ReadFull(reader, compressed); err != nil {
		return nil, 0, io.ErrUnexpectedEOF
	}

	if err := binary.Read(reader, binary.BigEndian, &entry.Checksum); err != nil {
		return nil, 0, io.ErrUnexpectedEOF
	}
	if crc32.ChecksumIEEE(compressed) != entry.Checksum {
		return nil, 0, fmt.Errorf("checksum mismatch for entry %d", entry.LSN)
	}

	if err := binary.Read(reader, binary.BigEndian, &entry.Timestamp); err != nil {
		return nil, 0, io.ErrUnexpectedEOF
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decompress WAL entry %d: %w", entry.LSN, err)
	}
	entry.Data = data

	return entry, int64(entryOverhead) + int64(dataLen), nil
}

// scan reads every committed entry. It returns the byte size of the
// committed prefix so recovery can cut off whatever follows it.
func (w *CompressedWAL) scan() ([]*Entry, int64, error) {
	file, err := os.Open(w.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	var (
		committed     []*Entry
		pending       []*Entry
		offset        int64
		committedSize int64
	)

	for {
		entry, n, err := readEntry(reader)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, 0, err
		}
		offset += n
		pending = append(pending, entry)
		if entry.OpType == OpCommitChunk {
			committed = append(committed, pending...)
			pending = pending[:0]
			committedSize = offset
		}
	}

	return committed, committedSize, nil
}

// ReadAll returns the entries of every committed chunk, markers included
func (w *CompressedWAL) ReadAll() ([]*Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if err := w.writer.Flush(); err != nil {
		return nil, err
	}

	entries, _, err := w.scan()
	return entries, err
}

// Replay calls handler for every committed record in log order. Commit
// markers are not passed to the handler.
func (w *CompressedWAL) Replay(handler func(*Entry) error) error {
	entries, err := w.ReadAll()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.OpType == OpCommitChunk {
			continue
		}
		if err := handler(entry); err != nil {
			return err
		}
	}
	return nil
}
