package utils

import "io"

// maxDrain bounds what DrainClose reads from a body before closing it.
const maxDrain = 64 << 10

// DrainClose discards what is left of a response body, up to 64KiB, then
// closes it so the transport can reuse the connection. Errors are ignored.
func DrainClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, maxDrain))
	_ = rc.Close()
}
