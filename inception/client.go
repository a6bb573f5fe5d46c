package inception

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/tidwall/gjson"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

type inceptionError string

func (e inceptionError) Error() string {
	return string(e)
}

const (
	ErrRequestFailed  = inceptionError("request to inception panel failed")
	ErrUnauthorized   = inceptionError("inception session is not authorised")
	ErrLoginFailed    = inceptionError("inception login failed")
	ErrInvalidCommand = inceptionError("invalid inception command")
	ErrUnknownKind    = inceptionError("unknown inception entity kind")
)

const DefaultRequestTimeout = 10 * time.Second

const summary = "summary"

type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

type Config struct {
	Host           string
	Username       string
	Password       string
	PIN            string
	RequestTimeout int
}

// Client talks to the REST API of an Inception panel. The login session is held by the client, each client may
// be logged in as a different user.
type Client struct {
	client  Doer
	baseURL *url.URL
	timeout time.Duration

	username string
	password string
	pin      string

	sessionLock sync.RWMutex
	session     string

	logger logwrap.Logger
}

func New(cfg Config, client Doer) (*Client, error) {
	baseURL, err := url.Parse(fmt.Sprintf("http://%s/api/v1/", cfg.Host))
	if err != nil {
		return nil, fmt.Errorf("failed to parse inception host: %w", err)
	}

	if client == nil {
		client = &http.Client{}
	}

	timeout := DefaultRequestTimeout
	if cfg.RequestTimeout > 0 {
		timeout = time.Duration(cfg.RequestTimeout) * time.Second
	}

	return &Client{
		client:   client,
		baseURL:  baseURL,
		timeout:  timeout,
		username: cfg.Username,
		password: cfg.Password,
		pin:      cfg.PIN,
		logger:   logwrap.New(discard.Discard()),
	}, nil
}

func (c *Client) WithLogWrapLogger(l logwrap.Logger) {
	c.logger = l
}

// Login authenticates against the panel, replacing any existing session.
func (c *Client) Login(ctx context.Context) error {
	result, err := c.do(ctx, http.MethodPost, "authentication/login", map[string]string{
		"Username": c.username,
		"Password": c.password,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	userID := result.Get("UserID").String()
	if userID == "" {
		return fmt.Errorf("%w: response did not contain a session", ErrLoginFailed)
	}

	c.sessionLock.Lock()
	c.session = userID
	c.sessionLock.Unlock()

	c.logger.LogInfo(ctx, "Logged in to Inception panel.", logwrap.Datum("user", c.username))

	return nil
}

func (c *Client) LoggedIn() bool {
	c.sessionLock.RLock()
	defer c.sessionLock.RUnlock()

	return c.session != ""
}

func (c *Client) SystemInfo(ctx context.Context) (gjson.Result, error) {
	return c.do(ctx, http.MethodGet, "system-info", nil)
}

// Get fetches a single entity of a kind, or the summary of all entities if id is empty.
func (c *Client) Get(ctx context.Context, kind Kind, id string) (gjson.Result, error) {
	if id == "" {
		id = summary
	}

	return c.do(ctx, http.MethodGet, fmt.Sprintf("control/%s/%s", kind, url.PathEscape(id)), nil)
}

// Control performs a control activity against an entity, invalid commands are rejected before any request is made.
func (c *Client) Control(ctx context.Context, id string, command Command) (gjson.Result, error) {
	if command == nil || !command.valid() {
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrInvalidCommand, command)
	}

	payload := activityPayload(command, id, c.pin)
	path := fmt.Sprintf("control/%s/%s/activity", command.Kind(), url.PathEscape(id))

	result, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return gjson.Result{}, err
	}

	c.logger.LogInfo(ctx, "Performed Inception control activity.", logwrap.Datum("kind", string(command.Kind())), logwrap.Datum("id", id), logwrap.Datum("command", command.String()))

	return result, nil
}

func (c *Client) Inputs(ctx context.Context) (gjson.Result, error) {
	return c.Get(ctx, KindInput, "")
}

func (c *Client) Input(ctx context.Context, id string) (gjson.Result, error) {
	return c.Get(ctx, KindInput, id)
}

func (c *Client) InputState(ctx context.Context, id string) (gjson.Result, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("control/input/%s/state", url.PathEscape(id)), nil)
}

func (c *Client) ControlInput(ctx context.Context, id string, command InputCommand) (gjson.Result, error) {
	return c.Control(ctx, id, command)
}

func (c *Client) Areas(ctx context.Context) (gjson.Result, error) {
	return c.Get(ctx, KindArea, "")
}

func (c *Client) Area(ctx context.Context, id string) (gjson.Result, error) {
	return c.Get(ctx, KindArea, id)
}

func (c *Client) ControlArea(ctx context.Context, id string, command AreaCommand) (gjson.Result, error) {
	return c.Control(ctx, id, command)
}

func (c *Client) Doors(ctx context.Context) (gjson.Result, error) {
	return c.Get(ctx, KindDoor, "")
}

func (c *Client) Door(ctx context.Context, id string) (gjson.Result, error) {
	return c.Get(ctx, KindDoor, id)
}

func (c *Client) ControlDoor(ctx context.Context, id string, command DoorCommand) (gjson.Result, error) {
	return c.Control(ctx, id, command)
}

func (c *Client) Outputs(ctx context.Context) (gjson.Result, error) {
	return c.Get(ctx, KindOutput, "")
}

func (c *Client) Output(ctx context.Context, id string) (gjson.Result, error) {
	return c.Get(ctx, KindOutput, id)
}

func (c *Client) ControlOutput(ctx context.Context, id string, command OutputCommand) (gjson.Result, error) {
	return c.Control(ctx, id, command)
}

// do issues a request against a path relative to the panel API, the path must already be escaped.
func (c *Client) do(ctx context.Context, method string, path string, body interface{}) (gjson.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("%w: failed to encode body: %v", ErrRequestFailed, err)
		}
		reader = bytes.NewReader(data)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	target := c.baseURL.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.sessionLock.RLock()
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: "LoginSessId", Value: c.session})
	}
	c.sessionLock.RUnlock()

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.LogError(ctx, "Inception request failed.", logwrap.Datum("path", path), logwrap.Err(err))
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.LogWarn(ctx, "Inception session rejected.", logwrap.Datum("path", path), logwrap.Datum("status", resp.StatusCode))
		return gjson.Result{}, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.LogError(ctx, "Inception request returned unexpected status.", logwrap.Datum("path", path), logwrap.Datum("status", resp.StatusCode))
		return gjson.Result{}, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return gjson.Result{}, nil
	}

	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("%w: response was not valid json", ErrRequestFailed)
	}

	return gjson.ParseBytes(data), nil
}
