package rest

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	DefaultDomain         = "local"
	DefaultRequestTimeout = 30 * time.Second
)

// Sender delivers one Request to the controller.
type Sender interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// Config : controller address and login details
type Config struct {
	Host           string
	Username       string
	Password       string
	Domain         string
	Insecure       bool
	RequestTimeout time.Duration
}

// Client is an authenticated HTTP session with a Nexus Dashboard controller.
type Client struct {
	httpClient *http.Client
	cfg        Config
	log        logrus.FieldLogger

	mu    sync.Mutex
	token string
}

func NewClient(cfg Config, log logrus.FieldLogger) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("controller host is required")
	}
	if cfg.Domain == "" {
		cfg.Domain = DefaultDomain
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	cookieJar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.Insecure,
	}
	httpClient := http.Client{
		Timeout:   cfg.RequestTimeout,
		Jar:       cookieJar,
		Transport: transport,
	}
	return &Client{
		httpClient: &httpClient,
		cfg:        cfg,
		log:        log,
	}, nil
}

func (c *Client) newURL(path string) string {
	host := strings.TrimSuffix(c.cfg.Host, "/")
	if !strings.HasPrefix(host, "https://") && !strings.HasPrefix(host, "http://") {
		host = "https://" + host
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return host + path
}

// Login authenticates against the Nexus Dashboard and stores the JWT.
func (c *Client) Login(ctx context.Context) error {
	data := "{}"
	data, _ = sjson.Set(data, "userName", c.cfg.Username)
	data, _ = sjson.Set(data, "userPasswd", c.cfg.Password)
	data, _ = sjson.Set(data, "domain", c.cfg.Domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.newURL("/login"), strings.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.log.Debug(fmt.Sprintf("POST request to %s", "/login"))
	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "login failed")
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: HTTP response: %s", res.Status)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "login failed")
	}
	token := gjson.GetBytes(body, "jwttoken").Str
	if token == "" {
		token = gjson.GetBytes(body, "token").Str
	}
	if token == "" {
		return errors.New("login failed: no token in controller reply")
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.log.WithFields(logrus.Fields{
		"host":   c.cfg.Host,
		"user":   c.cfg.Username,
		"domain": c.cfg.Domain,
	}).Info("Authentication successful.")
	return nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Send issues the request, logging in first when there is no session yet.
// An expired session (401) triggers one fresh login and one resend.
func (c *Client) Send(ctx context.Context, req Request) (Response, error) {
	if c.currentToken() == "" {
		if err := c.Login(ctx); err != nil {
			return Response{}, err
		}
	}
	res, err := c.do(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if res.ReturnCode == http.StatusUnauthorized {
		c.log.Warn("Session rejected by controller, logging in again")
		if err := c.Login(ctx); err != nil {
			return Response{}, err
		}
		return c.do(ctx, req)
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, req Request) (Response, error) {
	var body io.Reader
	if req.Payload != "" {
		body = strings.NewReader(req.Payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Verb, c.newURL(req.Path), body)
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.currentToken())
	c.log.Debug(fmt.Sprintf("%s request to %s", req.Verb, req.Path))
	httpRes, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, errors.Wrapf(err, "%s %s", req.Verb, req.Path)
	}
	defer httpRes.Body.Close()
	data, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return Response{}, errors.Wrapf(err, "%s %s", req.Verb, req.Path)
	}
	return newResponse(httpRes, data), nil
}
