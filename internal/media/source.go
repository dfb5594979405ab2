// ABOUTME: In-memory PCM source shared between the oto mixer and the clip player
// ABOUTME: Tracks the read offset under its own lock since oto reads without the player's lock
package media

import (
	"bytes"
	"io"
	"sync"
)

// pcmSource is an io.ReadSeeker over clip bytes whose offset can be read
// while the mixer goroutine is reading
type pcmSource struct {
	mu     sync.Mutex
	reader *bytes.Reader
	offset int64
}

func newPCMSource(data []byte) *pcmSource {
	return &pcmSource{reader: bytes.NewReader(data)}
}

func (s *pcmSource) Read(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.reader.Read(buf)
	s.offset += int64(n)
	return n, err
}

func (s *pcmSource) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, err := s.reader.Seek(offset, whence)
	if err != nil {
		return pos, err
	}
	s.offset = pos
	return pos, nil
}

// Offset returns how many bytes the mixer has consumed
func (s *pcmSource) Offset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

var _ io.ReadSeeker = (*pcmSource)(nil)
