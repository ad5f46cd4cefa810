package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-formpipe/pkg/transport"
)

// DefaultItemsPath is the backend collection for catalog items.
const DefaultItemsPath = "/equipment/catalog-items/"

var (
	// ErrMissingID is returned by Update and Delete without an item id.
	ErrMissingID = errors.New("catalog: missing item id")
	// ErrUnexpectedStatus wraps non-2xx responses.
	ErrUnexpectedStatus = errors.New("catalog: unexpected status")
)

// StatusError reports the operation and status of a rejected call.
type StatusError struct {
	Op     string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: %s: status %d", e.Op, e.Status)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Client talks to the catalog items collection through a transport adapter.
type Client struct {
	adapter transport.Adapter
	path    string
}

// NewClient binds adapter to path, or DefaultItemsPath when empty.
func NewClient(adapter transport.Adapter, path string) (*Client, error) {
	if adapter == nil {
		return nil, errors.New("catalog: missing transport")
	}
	if path == "" {
		path = DefaultItemsPath
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return &Client{adapter: adapter, path: path}, nil
}

// List returns every item.
func (c *Client) List(ctx context.Context) ([]Item, error) {
	res, err := c.adapter.Do(ctx, transport.Request{Method: http.MethodGet, Path: c.path})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, &StatusError{Op: "list", Status: res.Status}
	}
	items := []Item{}
	if err := json.Unmarshal(res.Body, &items); err != nil {
		return nil, fmt.Errorf("catalog: decode list: %w", err)
	}
	return items, nil
}

// Create posts a new item.
func (c *Client) Create(ctx context.Context, p Payload) error {
	return c.write(ctx, "create", http.MethodPost, c.path, p)
}

// Update patches the item with id.
func (c *Client) Update(ctx context.Context, id string, p Payload) error {
	path, err := c.itemPath(id)
	if err != nil {
		return err
	}
	return c.write(ctx, "update", http.MethodPatch, path, p)
}

// Delete removes the item with id.
func (c *Client) Delete(ctx context.Context, id string) error {
	path, err := c.itemPath(id)
	if err != nil {
		return err
	}
	res, err := c.adapter.Do(ctx, transport.Request{Method: http.MethodDelete, Path: path})
	if err != nil {
		return err
	}
	if !res.OK() {
		return &StatusError{Op: "delete", Status: res.Status}
	}
	return nil
}

func (c *Client) write(ctx context.Context, op, method, path string, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("catalog: encode %s: %w", op, err)
	}
	res, err := c.adapter.Do(ctx, transport.Request{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}
	if !res.OK() {
		return &StatusError{Op: op, Status: res.Status}
	}
	return nil
}

func (c *Client) itemPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrMissingID
	}
	return c.path + url.PathEscape(id) + "/", nil
}
