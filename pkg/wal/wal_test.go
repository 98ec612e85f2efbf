package wal

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

type testRecord struct {
	Seq  int
	Note string
}

func TestWriteThenReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")

	w, err := NewWAL(path)
	if err != nil {
		t.Fatalf("NewWAL: %v", err)
	}
	defer w.Close()

	want := []testRecord{
		{Seq: 1, Note: "first"},
		{Seq: 2, Note: "second"},
		{Seq: 3, Note: "third"},
	}
	for i := range want {
		if err := w.Write(&want[i]); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	var got []testRecord
	err = w.ReadAll(func(jsonRaw []byte) error {
		var rec testRecord
		if err := json.Unmarshal(jsonRaw, &rec); err != nil {
			return err
		}
		got = append(got, rec)
		return nil
	})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("read %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReadAllEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")

	w, err := NewWAL(path)
	if err != nil {
		t.Fatalf("NewWAL: %v", err)
	}
	defer w.Close()

	count := 0
	err = w.ReadAll(func([]byte) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if count != 0 {
		t.Errorf("read %d records from empty file, want 0", count)
	}
}

func TestReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")

	first, err := NewWAL(path)
	if err != nil {
		t.Fatalf("NewWAL: %v", err)
	}
	if err := first.Write(&testRecord{Seq: 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := NewWAL(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if err := second.Write(&testRecord{Seq: 2}); err != nil {
		t.Fatalf("Write after reopen: %v", err)
	}

	var seqs []int
	err = second.ReadAll(func(jsonRaw []byte) error {
		var rec testRecord
		if err := json.Unmarshal(jsonRaw, &rec); err != nil {
			return err
		}
		seqs = append(seqs, rec.Seq)
		return nil
	})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(seqs) != 2 || seqs[0] != 1 || seqs[1] != 2 {
		t.Errorf("seqs = %v, want [1 2]", seqs)
	}
}
