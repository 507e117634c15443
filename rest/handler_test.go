package rest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		res  Response
		want Result
	}{
		{"get ok", Response{Method: "GET", ReturnCode: 200, Message: "OK", Data: gjson.Parse(`[]`)}, Result{Success: true, Found: true}},
		{"get not found", Response{Method: "GET", ReturnCode: 404, Message: "Not Found"}, Result{Success: true}},
		{"get server error", Response{Method: "GET", ReturnCode: 500, Message: "Internal Server Error"}, Result{}},
		{"get odd message", Response{Method: "GET", ReturnCode: 200, Message: "Partial"}, Result{}},
		{"post ok", Response{Method: "POST", ReturnCode: 200, Message: "OK", Data: gjson.Parse(`{}`)}, Result{Success: true, Changed: true}},
		{"put multi status", Response{Method: "PUT", ReturnCode: 207, Message: "Multi-Status"}, Result{Success: true, Changed: true}},
		{"delete bad request", Response{Method: "DELETE", ReturnCode: 400, Message: "Bad Request"}, Result{}},
		{"post error body", Response{Method: "POST", ReturnCode: 200, Message: "OK", Data: gjson.Parse(`{"error":{"message":"x"}}`)}, Result{}},
		{"post null error", Response{Method: "POST", ReturnCode: 200, Message: "OK", Data: gjson.Parse(`{"error":null}`)}, Result{Success: true, Changed: true}},
		{"post ERROR key", Response{Method: "POST", ReturnCode: 200, Message: "OK", Data: gjson.Parse(`{"ERROR":"oops"}`)}, Result{}},
		{"check mode", Response{Method: "POST", ReturnCode: 200, Message: "OK", CheckMode: true}, Result{Success: true, Found: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.res))
		})
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		data string
		want string
	}{
		{`{"message":"Fabric f1 already exists"}`, "Fabric f1 already exists"},
		{`{"error":{"message":"nested"}}`, "nested"},
		{`{"error":"Bad Request","status":400}`, "Bad Request"},
		{`{"errors":[{"message":"first"}]}`, "first"},
		{`{"error":"Conflict","errors":[{"message":"first"}]}`, "Conflict"},
		{`{"ERROR":"VRF in use","errors":[{"message":"first"}]}`, "VRF in use"},
		{`{"failureList":["sw1"]}`, `{"failureList":["sw1"]}`},
		{`{}`, ""},
	}
	for _, tt := range tests {
		res := Response{Data: gjson.Parse(tt.data)}
		assert.Equal(t, tt.want, res.ErrorText(), tt.data)
	}
}

func TestResponseMarshalJSON(t *testing.T) {
	res := Response{
		ReturnCode:  200,
		Message:     "OK",
		Method:      "GET",
		RequestPath: "https://nd/x",
		Data:        gjson.Parse(`{"k":"v"}`),
	}
	b, err := json.Marshal(res)
	require.NoError(t, err)
	out := gjson.ParseBytes(b)
	assert.Equal(t, int64(200), out.Get("RETURN_CODE").Int())
	assert.Equal(t, "GET", out.Get("METHOD").Str)
	assert.Equal(t, "v", out.Get("DATA.k").Str)
	assert.False(t, out.Get("CHECK_MODE").Exists())

	b, err = json.Marshal(Response{CheckMode: true})
	require.NoError(t, err)
	assert.Equal(t, "{}", gjson.GetBytes(b, "DATA").Raw)
	assert.True(t, gjson.GetBytes(b, "CHECK_MODE").Bool())
}
