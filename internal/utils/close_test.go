package utils

import (
	"io"
	"strings"
	"testing"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestDrainClose(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader(strings.Repeat("x", 1024))}

	DrainClose(body)

	if !body.closed {
		t.Error("body should be closed")
	}
	if n, _ := io.Copy(io.Discard, body); n != 0 {
		t.Errorf("expected the body to be drained, %d bytes left", n)
	}
}
