package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(Config{
		Host:           srv.URL,
		Username:       "admin",
		Password:       "secret",
		Insecure:       true,
		RequestTimeout: 5 * time.Second,
	}, newTestLogger())
	require.NoError(t, err)
	return c
}

func loginHandler(t *testing.T, logins *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(logins, 1)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "admin", gjson.GetBytes(body, "userName").Str)
		assert.Equal(t, "secret", gjson.GetBytes(body, "userPasswd").Str)
		assert.Equal(t, "local", gjson.GetBytes(body, "domain").Str)
		_, _ = w.Write([]byte(`{"jwttoken":"abc123"}`))
	}
}

func TestClientSendLogsInAndAuthorizes(t *testing.T) {
	var logins int32
	mux := http.NewServeMux()
	mux.HandleFunc("/login", loginHandler(t, &logins))
	mux.HandleFunc("/appcenter/test", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"a": 1}`))
	})
	srv := httptest.NewTLSServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)
	res, err := c.Send(context.Background(), Request{Verb: http.MethodGet, Path: "/appcenter/test"})
	require.NoError(t, err)
	assert.Equal(t, 200, res.ReturnCode)
	assert.Equal(t, "OK", res.Message)
	assert.Equal(t, http.MethodGet, res.Method)
	assert.Equal(t, srv.URL+"/appcenter/test", res.RequestPath)
	assert.Equal(t, int64(1), res.Data.Get("a").Int())

	_, err = c.Send(context.Background(), Request{Verb: http.MethodGet, Path: "/appcenter/test"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&logins))
}

func TestClientLoginFailure(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	err := c.Login(context.Background())
	require.Error(t, err)
	assert.Equal(t, "login failed: HTTP response: 401 Unauthorized", err.Error())
}

func TestClientLoginWithoutToken(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	err := c.Login(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token")
}

func TestClientReloginOnUnauthorized(t *testing.T) {
	var logins, calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/login", loginHandler(t, &logins))
	mux.HandleFunc("/appcenter/test", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	srv := httptest.NewTLSServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)
	res, err := c.Send(context.Background(), Request{Verb: http.MethodGet, Path: "/appcenter/test"})
	require.NoError(t, err)
	assert.Equal(t, 200, res.ReturnCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&logins))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClientResponseBodies(t *testing.T) {
	var logins int32
	mux := http.NewServeMux()
	mux.HandleFunc("/login", loginHandler(t, &logins))
	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write(body)
	})
	srv := httptest.NewTLSServer(mux)
	defer srv.Close()
	c := newTestClient(t, srv)
	ctx := context.Background()

	res, err := c.Send(ctx, Request{Verb: http.MethodGet, Path: "/text"})
	require.NoError(t, err)
	assert.Equal(t, "not json", res.Data.Get("INVALID_JSON").Str)

	res, err = c.Send(ctx, Request{Verb: http.MethodGet, Path: "/missing"})
	require.NoError(t, err)
	assert.Equal(t, 404, res.ReturnCode)
	assert.Equal(t, "Not Found", res.Message)
	assert.Equal(t, "{}", res.Data.Raw)

	res, err = c.Send(ctx, Request{Verb: http.MethodPost, Path: "/echo", Payload: `{"x":"y"}`})
	require.NoError(t, err)
	assert.Equal(t, "y", res.Data.Get("x").Str)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	require.Error(t, err)
}

func TestNewURL(t *testing.T) {
	c, err := NewClient(Config{Host: "10.1.1.1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://10.1.1.1/login", c.newURL("/login"))
	assert.Equal(t, "https://10.1.1.1/login", c.newURL("login"))
}
