// ABOUTME: Tests for the in-memory PCM source
// ABOUTME: Checks offset tracking across reads, seeks and a concurrent reader
package media

import (
	"io"
	"sync"
	"testing"
)

func TestPCMSourceOffset(t *testing.T) {
	s := newPCMSource(make([]byte, 100))

	buf := make([]byte, 30)
	if _, err := s.Read(buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got := s.Offset(); got != 30 {
		t.Errorf("expected offset 30, got %d", got)
	}

	if _, err := s.Seek(80, io.SeekStart); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	if got := s.Offset(); got != 80 {
		t.Errorf("expected offset 80, got %d", got)
	}

	n, _ := s.Read(buf)
	if n != 20 || s.Offset() != 100 {
		t.Errorf("expected short read of 20 to the end, got %d at %d", n, s.Offset())
	}
	if _, err := s.Read(buf); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}

	if _, err := s.Seek(-1, io.SeekStart); err == nil {
		t.Error("expected error seeking before start")
	}
	if got := s.Offset(); got != 100 {
		t.Errorf("failed seek moved offset to %d", got)
	}
}

func TestPCMSourceConcurrentRead(t *testing.T) {
	s := newPCMSource(make([]byte, 4096))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]byte, 64)
		for {
			if _, err := s.Read(buf); err != nil {
				return
			}
		}
	}()

	last := int64(0)
	for last < 4096 {
		off := s.Offset()
		if off < last {
			t.Fatalf("offset went backward: %d -> %d", last, off)
		}
		last = off
	}
	wg.Wait()
}
