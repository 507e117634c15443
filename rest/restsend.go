package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	DefaultTimeout      = 300 * time.Second
	DefaultSendInterval = 5 * time.Second
)

var validVerbs = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// RestSend resends a request at a fixed interval until the Handler reports
// success or the attempt budget (Timeout / SendInterval) is spent.
type RestSend struct {
	Timeout      time.Duration
	SendInterval time.Duration
	CheckMode    bool
	Handler      Handler

	sender    Sender
	log       logrus.FieldLogger
	responses []Response
	results   []Result
}

func NewRestSend(sender Sender, log logrus.FieldLogger) *RestSend {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RestSend{
		Timeout:      DefaultTimeout,
		SendInterval: DefaultSendInterval,
		Handler:      Evaluate,
		sender:       sender,
		log:          log,
	}
}

// Attempts is the number of sends Commit makes before giving up.
func (r *RestSend) Attempts() int {
	if r.SendInterval <= 0 || r.Timeout <= 0 {
		return 1
	}
	n := int(r.Timeout / r.SendInterval)
	if r.Timeout%r.SendInterval != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Commit sends req and returns the last Response with its Result.
// An error is returned only when no Response could be obtained at all.
func (r *RestSend) Commit(ctx context.Context, req Request) (Response, Result, error) {
	if !validVerbs[req.Verb] {
		return Response{}, Result{}, fmt.Errorf("invalid verb %q", req.Verb)
	}
	if req.Path == "" {
		return Response{}, Result{}, errors.New("request path is required")
	}
	handler := r.Handler
	if handler == nil {
		handler = Evaluate
	}
	if r.CheckMode && req.Verb != http.MethodGet {
		res := Response{
			ReturnCode:  http.StatusOK,
			Message:     "OK",
			Method:      req.Verb,
			RequestPath: req.Path,
			Data:        gjson.Parse("{}"),
			CheckMode:   true,
		}
		result := handler(res)
		r.record(res, result)
		r.log.WithFields(logrus.Fields{
			"verb": req.Verb,
			"path": req.Path,
		}).Info("Check mode: request not sent")
		return res, result, nil
	}

	var (
		res     Response
		result  Result
		lastErr error
		got     bool
	)
	attempts := r.Attempts()
	for i := 1; i <= attempts; i++ {
		current, err := r.sender.Send(ctx, req)
		if err != nil {
			lastErr = err
			r.log.WithFields(logrus.Fields{
				"verb":    req.Verb,
				"path":    req.Path,
				"attempt": fmt.Sprintf("%d of %d", i, attempts),
			}).Warn(err.Error())
		} else {
			got = true
			res = current
			result = handler(res)
			r.record(res, result)
			if result.Success {
				return res, result, nil
			}
			r.log.WithFields(logrus.Fields{
				"verb":        req.Verb,
				"path":        req.Path,
				"return code": res.ReturnCode,
				"message":     res.Message,
				"attempt":     fmt.Sprintf("%d of %d", i, attempts),
			}).Debug("Unsuccessful controller response")
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return res, result, ctx.Err()
		case <-time.After(r.SendInterval):
		}
	}
	if !got {
		return Response{}, Result{}, lastErr
	}
	return res, result, nil
}

func (r *RestSend) record(res Response, result Result) {
	r.responses = append(r.responses, res)
	r.results = append(r.results, result)
}

// History returns every Response and Result seen so far, oldest first.
func (r *RestSend) History() ([]Response, []Result) {
	return append([]Response(nil), r.responses...), append([]Result(nil), r.results...)
}
