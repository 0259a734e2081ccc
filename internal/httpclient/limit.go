package httpclient

import (
	"fmt"
	"io"
)

// DefaultMaxResponseBytes bounds a single provider response body; upstream
// SSE streams are read incrementally and are not subject to this cap.
const DefaultMaxResponseBytes = 32 << 20 // 32 MiB

// ResponseTooLargeError is returned by ReadAllWithLimit when body exceeds
// limit bytes.
type ResponseTooLargeError struct {
	Limit int64
}

func (e *ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response body exceeds %d byte limit", e.Limit)
}

// ReadAllWithLimit reads at most limit+1 bytes from r, returning
// ResponseTooLargeError if the body was truncated.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	lr := io.LimitReader(r, limit+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, &ResponseTooLargeError{Limit: limit}
	}
	return data, nil
}
