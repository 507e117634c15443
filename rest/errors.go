package rest

import "fmt"

// ControllerError is an unsuccessful controller reply.
type ControllerError struct {
	Verb       string
	Path       string
	ReturnCode int
	Message    string
	Detail     string
}

func NewControllerError(req Request, res Response) *ControllerError {
	return &ControllerError{
		Verb:       req.Verb,
		Path:       req.Path,
		ReturnCode: res.ReturnCode,
		Message:    res.Message,
		Detail:     res.ErrorText(),
	}
}

func (e *ControllerError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Verb, e.Path, e.ReturnCode, e.Message)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
