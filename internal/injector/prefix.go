package injector

import "io"

type prefixState int

const (
	prefixPending prefixState = iota
	forwarding
)

// prefixReader yields prefix exactly once and then forwards reads to src.
// Nothing from src is read until the prefix has been fully delivered.
type prefixReader struct {
	state  prefixState
	prefix []byte
	src    io.Reader
}

func newPrefixReader(prefix string, src io.Reader) *prefixReader {
	return &prefixReader{prefix: []byte(prefix), src: src}
}

func (r *prefixReader) Read(p []byte) (int, error) {
	if r.state == prefixPending {
		if len(p) == 0 {
			return 0, nil
		}
		n := copy(p, r.prefix)
		r.prefix = r.prefix[n:]
		if len(r.prefix) == 0 {
			r.state = forwarding
			r.prefix = nil
		}
		return n, nil
	}
	return r.src.Read(p)
}

// Close releases the wrapped source if it can be closed
func (r *prefixReader) Close() error {
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
