// Package ndfc implements Nexus Dashboard Fabric Controller operations on top
// of rest.RestSend: fabrics, VRFs, networks, policies, switch discovery,
// inventory and image policies.
package ndfc

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"ndfcctl/rest"
)

type JSON = gjson.Result

const (
	aboutVersionPath = "/appcenter/cisco/ndfc/api/about/version"
	apiV1            = "/appcenter/cisco/ndfc/api/v1"
	controlPath      = apiV1 + "/lan-fabric/rest/control"
	topDownPath      = apiV1 + "/lan-fabric/rest/top-down/fabrics"
	inventoryPath    = apiV1 + "/lan-fabric/rest/inventory"
	imagePath        = apiV1 + "/imagemanagement/rest"
)

const (
	DefaultPollInterval = 10 * time.Second
	DefaultPollAttempts = 4
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotReachable  = errors.New("not reachable")
)

// Client runs controller operations. It is not safe for concurrent use; the
// underlying RestSend keeps a request history.
type Client struct {
	// PollInterval and PollAttempts bound the reachability wait.
	PollInterval time.Duration
	PollAttempts int

	rs  *rest.RestSend
	log logrus.FieldLogger
}

func New(rs *rest.RestSend, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		PollInterval: DefaultPollInterval,
		PollAttempts: DefaultPollAttempts,
		rs:           rs,
		log:          log,
	}
}

// send commits a write and maps an unsuccessful reply to *rest.ControllerError.
func (c *Client) send(ctx context.Context, verb, path, payload string) (rest.Response, error) {
	req := rest.Request{Verb: verb, Path: path, Payload: payload}
	res, result, err := c.rs.Commit(ctx, req)
	if err != nil {
		return res, err
	}
	if !result.Success {
		return res, rest.NewControllerError(req, res)
	}
	return res, nil
}

// get returns the reply body, or ErrNotFound (wrapped with what) on a 404.
func (c *Client) get(ctx context.Context, path, what string) (JSON, error) {
	req := rest.Request{Verb: http.MethodGet, Path: path}
	res, result, err := c.rs.Commit(ctx, req)
	if err != nil {
		return JSON{}, err
	}
	if !result.Success {
		return JSON{}, rest.NewControllerError(req, res)
	}
	if !result.Found {
		return JSON{}, errors.Wrap(ErrNotFound, what)
	}
	return res.Data, nil
}

func pathOf(base string, segments ...string) string {
	res := base
	for _, s := range segments {
		res += "/" + url.PathEscape(s)
	}
	return res
}
