package apiclient

import (
	"bytes"
	"io"
	"net/http"
)

// Request describes an outbound call. Path is resolved against the client's
// base URL unless it is already absolute. Body is held as bytes so the
// request can be replayed verbatim after a refresh.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// NewRequest builds a request descriptor. A nil body sends no body.
func NewRequest(method, path string, body []byte) *Request {
	return &Request{
		Method: method,
		Path:   path,
		Header: make(http.Header),
		Body:   body,
	}
}

// Clone returns a deep copy so hooks never mutate the caller's descriptor.
func (r *Request) Clone() *Request {
	c := &Request{
		Method: r.Method,
		Path:   r.Path,
		Header: r.Header.Clone(),
	}
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}
	return c
}

func (r *Request) bodyReader() io.Reader {
	if r.Body == nil {
		return nil
	}
	return bytes.NewReader(r.Body)
}

// pendingRequest is an in-flight request captured for a possible replay.
// It lives for one Do call and is never reused.
type pendingRequest struct {
	original *Request
	retried  bool
}
