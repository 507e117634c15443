package rest

import (
	"net/http"

	"github.com/tidwall/gjson"
)

// Result is the verdict on a Response.
type Result struct {
	Success bool
	Found   bool
	Changed bool
}

var successCodes = map[int]bool{
	http.StatusOK:          true,
	http.StatusCreated:     true,
	http.StatusAccepted:    true,
	http.StatusNoContent:   true,
	http.StatusMultiStatus: true,
}

// Handler turns a Response into a Result.
type Handler func(Response) Result

// Evaluate is the default Handler.
//
// A GET answered with 404 "Not Found" succeeded but found nothing. Writes
// fail when the controller reports an error in the body, even with a 2xx code.
func Evaluate(res Response) Result {
	if res.CheckMode {
		return Result{Success: true, Found: true}
	}
	if res.Method == http.MethodGet {
		return evaluateGet(res)
	}
	return evaluateWrite(res)
}

func evaluateGet(res Response) Result {
	if res.ReturnCode == http.StatusNotFound && res.Message == "Not Found" {
		return Result{Success: true}
	}
	if !successCodes[res.ReturnCode] || res.Message != "OK" {
		return Result{}
	}
	return Result{Success: true, Found: true}
}

func evaluateWrite(res Response) Result {
	if !successCodes[res.ReturnCode] {
		return Result{}
	}
	if res.Data.Get("ERROR").Exists() {
		return Result{}
	}
	// Some endpoints answer 200 with {"error": {...}}.
	if e := res.Data.Get("error"); e.Exists() && e.Type != gjson.Null {
		return Result{}
	}
	return Result{Success: true, Changed: true}
}
