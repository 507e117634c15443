// Package resttest provides a scripted rest.Sender for tests.
package resttest

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/tidwall/gjson"

	"ndfcctl/rest"
)

// Reply is one canned controller answer.
type Reply struct {
	Code int
	Body string
	Err  error
}

func OK(body string) Reply {
	return Reply{Code: http.StatusOK, Body: body}
}

func Status(code int, body string) Reply {
	return Reply{Code: code, Body: body}
}

func Fail(err error) Reply {
	return Reply{Err: err}
}

// Sender answers requests from per-endpoint reply queues. The last reply of
// a queue is repeated once the queue is drained.
type Sender struct {
	mu       sync.Mutex
	replies  map[string][]Reply
	requests []rest.Request
}

func NewSender() *Sender {
	return &Sender{replies: make(map[string][]Reply)}
}

func key(verb, path string) string {
	return verb + " " + path
}

// On queues replies for verb and path (path includes any query string).
func (s *Sender) On(verb, path string, replies ...Reply) *Sender {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(verb, path)
	s.replies[k] = append(s.replies[k], replies...)
	return s
}

func (s *Sender) Send(ctx context.Context, req rest.Request) (rest.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if err := ctx.Err(); err != nil {
		return rest.Response{}, err
	}
	k := key(req.Verb, req.Path)
	queue := s.replies[k]
	if len(queue) == 0 {
		return rest.Response{}, fmt.Errorf("resttest: unexpected request %s", k)
	}
	reply := queue[0]
	if len(queue) > 1 {
		s.replies[k] = queue[1:]
	}
	if reply.Err != nil {
		return rest.Response{}, reply.Err
	}
	body := reply.Body
	if body == "" {
		body = "{}"
	}
	return rest.Response{
		ReturnCode:  reply.Code,
		Message:     http.StatusText(reply.Code),
		Method:      req.Verb,
		RequestPath: req.Path,
		Data:        gjson.Parse(body),
	}, nil
}

// Requests returns every request sent so far.
func (s *Sender) Requests() []rest.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]rest.Request(nil), s.requests...)
}

// Sent returns the requests matching verb and path.
func (s *Sender) Sent(verb, path string) []rest.Request {
	var res []rest.Request
	for _, req := range s.Requests() {
		if req.Verb == verb && req.Path == path {
			res = append(res, req)
		}
	}
	return res
}

// Payload returns the payload of the last request matching verb and path.
func (s *Sender) Payload(verb, path string) gjson.Result {
	sent := s.Sent(verb, path)
	if len(sent) == 0 {
		return gjson.Result{}
	}
	return gjson.Parse(sent[len(sent)-1].Payload)
}
