package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type JSON = gjson.Result

// Request is a single controller call. Query strings belong in Path.
type Request struct {
	Verb    string
	Path    string
	Payload string
}

// Response is a controller reply normalized to the fields every caller inspects.
type Response struct {
	ReturnCode  int
	Message     string
	Method      string
	RequestPath string
	Data        JSON
	CheckMode   bool
}

func newResponse(res *http.Response, body []byte) Response {
	return Response{
		ReturnCode:  res.StatusCode,
		Message:     reason(res),
		Method:      res.Request.Method,
		RequestPath: res.Request.URL.String(),
		Data:        parseData(body),
	}
}

// reason returns the reason phrase without the status code, e.g. "Not Found".
func reason(res *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(res.Status, fmt.Sprint(res.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(res.StatusCode)
}

func parseData(body []byte) JSON {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return gjson.Parse("{}")
	}
	if !gjson.Valid(trimmed) {
		raw, _ := sjson.Set("{}", "INVALID_JSON", trimmed)
		return gjson.Parse(raw)
	}
	return gjson.Parse(trimmed)
}

// ErrorText returns the controller's own description of a failure, if any.
func (r Response) ErrorText() string {
	for _, path := range []string{"message", "error.message", "error", "ERROR", "errors.0.message"} {
		if v := r.Data.Get(path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	if raw := strings.TrimSpace(r.Data.Raw); raw != "" && raw != "{}" && raw != "[]" {
		return raw
	}
	return ""
}

// MarshalJSON : marshal response in the controller's dict layout
func (r Response) MarshalJSON() ([]byte, error) {
	data := json.RawMessage("{}")
	if r.Data.Raw != "" {
		data = json.RawMessage(r.Data.Raw)
	}
	out := map[string]interface{}{
		"RETURN_CODE":  r.ReturnCode,
		"MESSAGE":      r.Message,
		"METHOD":       r.Method,
		"REQUEST_PATH": r.RequestPath,
		"DATA":         data,
	}
	if r.CheckMode {
		out["CHECK_MODE"] = true
	}
	return json.Marshal(out)
}
