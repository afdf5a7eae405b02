package compute

import "fmt"

// Readback copies the full contents of buf to a new host slice. The copy is
// blocking.
func (s *Session) Readback(buf *ImageBuffer) ([]byte, error) {
	if buf == nil || buf.Buffer == nil {
		return nil, fmt.Errorf("%w: no buffer", ErrReadback)
	}
	host := make([]byte, buf.ByteSize())
	if err := s.queue.ReadBuffer(buf.Buffer, host); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadback, err)
	}
	return host, nil
}
