package journal

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type record struct {
	ID     int    `json:"id"`
	Amount string `json:"amount"`
}

func openTemp(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.log")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j, path
}

func TestWriteAndReadAll(t *testing.T) {
	j, _ := openTemp(t)
	for i := 1; i <= 3; i++ {
		if err := j.Write(record{ID: i, Amount: "1.5"}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	var got []record
	err := j.ReadAll(func(raw json.RawMessage) error {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 || got[0].ID != 1 || got[2].ID != 3 {
		t.Fatalf("unexpected records %+v", got)
	}

	// 讀取後仍可繼續追加
	if err := j.Write(record{ID: 4}); err != nil {
		t.Fatalf("write after read: %v", err)
	}
}

func TestReopenAppends(t *testing.T) {
	j, path := openTemp(t)
	if err := j.Write(record{ID: 1}); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if err := reopened.Write(record{ID: 2}); err != nil {
		t.Fatal(err)
	}

	count := 0
	if err := ReadFile(path, func(json.RawMessage) error { count++; return nil }); err != nil {
		t.Fatalf("read file: %v", err)
	}
	if count != 2 {
		t.Fatalf("records = %d, want 2", count)
	}
}

func TestConcurrentWritesKeepLinesIntact(t *testing.T) {
	j, path := openTemp(t)
	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer wg.Done()
			if err := j.Write(record{ID: id, Amount: "10.0000"}); err != nil {
				t.Errorf("write: %v", err)
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool)
	err := ReadFile(path, func(raw json.RawMessage) error {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		seen[r.ID] = true
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(seen) != n {
		t.Fatalf("distinct records = %d, want %d", len(seen), n)
	}
}

func TestClosedJournal(t *testing.T) {
	j, _ := openTemp(t)
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := j.Write(record{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestReadFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.log")
	if err := os.WriteFile(path, []byte("{\"id\":1}\n{not json\n"), FileModeReadOnly); err != nil {
		t.Fatal(err)
	}
	count := 0
	err := ReadFile(path, func(json.RawMessage) error { count++; return nil })
	if err == nil {
		t.Fatal("expected decode error")
	}
	if count != 1 {
		t.Fatalf("records before error = %d, want 1", count)
	}
}
