package httpclient

import (
	"bytes"
	"io"
)

// chunkSize is the read granularity of ReadLimited.
const chunkSize = 8 << 10

// ReadLimited reads r into memory, failing with ErrCodeTooLarge as soon as
// more than limit bytes have arrived. At most limit+chunkSize bytes are ever
// held. sizeHint preallocates when the length is announced and within limit.
func ReadLimited(r io.Reader, limit, sizeHint int64) ([]byte, error) {
	var buf bytes.Buffer
	if sizeHint > 0 && sizeHint <= limit {
		buf.Grow(int(sizeHint))
	}
	chunk := make([]byte, chunkSize)
	var total int64
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > limit {
				return nil, NewTooLargeError(limit)
			}
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
