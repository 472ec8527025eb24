package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/cpacia/bouncer/version"
	"github.com/cpacia/proxyclient"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"io"
	"io/ioutil"
	"net/http"
	"time"
)

// maxResponseSize caps the number of bytes read from a single reply.
const maxResponseSize = 4 << 20

var log = logging.MustGetLogger("RPC")

// Request is implemented by every typed RPC request. The action is
// serialized in the request's "action" field.
type Request interface {
	RPCAction() string
}

// Endpoint builds the node URL from its parts.
func Endpoint(protocol, host, port string) string {
	return fmt.Sprintf("%s://%s:%s", protocol, host, port)
}

// Client is the transport to the wallet node. It performs one HTTP POST
// per call and decodes the JSON reply into the provided response. It
// holds no state other than its configuration and is safe for
// concurrent use.
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient returns a new Client for the given endpoint. Every call is
// bounded by timeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	client := proxyclient.NewHttpClient()
	client.Timeout = timeout
	return &Client{
		endpoint: endpoint,
		client:   client,
	}
}

// NewClientWithHTTPClient returns a Client which uses the provided http
// client. This is mostly useful for testing.
func NewClientWithHTTPClient(endpoint string, client *http.Client) *Client {
	return &Client{
		endpoint: endpoint,
		client:   client,
	}
}

// Endpoint returns the node URL this client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Call sends the request to the node and decodes the reply into
// response. Only transport failures are returned as errors. A reply
// carrying an "error" field is a successful call; it is up to the
// caller to inspect it.
func (c *Client) Call(ctx context.Context, request Request, response interface{}) error {
	action := request.RPCAction()

	body, err := json.Marshal(request)
	if err != nil {
		return &TransportError{Action: action, Err: errors.Wrap(err, "encoding request")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Action: action, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	log.Debugf("Calling %s on %s", action, c.endpoint)
	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &TransportError{Action: action, Err: errors.Wrap(err, "reading reply")}
	}

	if err := json.Unmarshal(data, response); err != nil {
		return &TransportError{
			Action: action,
			Err:    errors.Wrapf(err, "malformed reply (status %d)", resp.StatusCode),
		}
	}
	return nil
}
