package httpx

import (
	"bytes"
	"net/http"
)

// ResponseBuffer holds a response in memory until Flush copies it to a real
// writer, so a handler can be run against a synthetic request.
type ResponseBuffer struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func NewResponseBuffer() *ResponseBuffer {
	return &ResponseBuffer{header: http.Header{}}
}

func (b *ResponseBuffer) Header() http.Header { return b.header }

func (b *ResponseBuffer) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *ResponseBuffer) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *ResponseBuffer) Flush(w http.ResponseWriter) error {
	header := w.Header()
	for key, values := range b.header {
		header[key] = values
	}
	if b.status != 0 {
		w.WriteHeader(b.status)
	}
	_, err := w.Write(b.body.Bytes())
	return err
}
