package ipc

import (
	"context"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

const dialTimeout = 2 * time.Second

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// call invokes method and returns early when ctx ends. The reply of an
// abandoned call is discarded by the rpc client.
func (c *Client) call(ctx context.Context, method string, req, resp any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pending := c.client.Go(ServiceName+"."+method, req, resp, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case done := <-pending.Done:
		return done.Error
	}
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call(ctx, "Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search runs research for a company and returns the resulting view.
func (c *Client) Search(ctx context.Context, company string) (*ViewResponse, error) {
	var resp ViewResponse
	if err := c.call(ctx, "Search", SearchRequest{CompanyName: company}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Click activates a graph node.
func (c *Client) Click(ctx context.Context, id string) (*ViewResponse, error) {
	var resp ViewResponse
	if err := c.call(ctx, "Click", ClickRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SwitchTab selects a panel tab.
func (c *Client) SwitchTab(ctx context.Context, tab string) (*ViewResponse, error) {
	var resp ViewResponse
	if err := c.call(ctx, "SwitchTab", SwitchTabRequest{Tab: tab}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClosePanel hides the insight panel.
func (c *Client) ClosePanel(ctx context.Context) (*ViewResponse, error) {
	var resp ViewResponse
	if err := c.call(ctx, "ClosePanel", ClosePanelRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Back returns the workspace to search mode.
func (c *Client) Back(ctx context.Context) (*ViewResponse, error) {
	var resp ViewResponse
	if err := c.call(ctx, "Back", BackRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resize changes the canvas size.
func (c *Client) Resize(ctx context.Context, width, height float64) (*ViewResponse, error) {
	var resp ViewResponse
	if err := c.call(ctx, "Resize", ResizeRequest{Width: width, Height: height}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// View fetches the current view.
func (c *Client) View(ctx context.Context) (*ViewResponse, error) {
	var resp ViewResponse
	if err := c.call(ctx, "View", ViewRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Graph fetches the rendered scene, optionally with its SVG document.
func (c *Client) Graph(ctx context.Context, svg bool) (*GraphResponse, error) {
	var resp GraphResponse
	if err := c.call(ctx, "Graph", GraphRequest{SVG: svg}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History lists past searches.
func (c *Client) History(ctx context.Context) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.call(ctx, "History", HistoryRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteHistory removes a company from history.
func (c *Client) DeleteHistory(ctx context.Context, company string) (*DeleteHistoryResponse, error) {
	var resp DeleteHistoryResponse
	if err := c.call(ctx, "DeleteHistory", DeleteHistoryRequest{CompanyName: company}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Keys reads the masked API keys.
func (c *Client) Keys(ctx context.Context) (*KeysResponse, error) {
	var resp KeysResponse
	if err := c.call(ctx, "Keys", KeysRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SaveKeys writes API keys.
func (c *Client) SaveKeys(ctx context.Context, keys map[string]string) (*SaveKeysResponse, error) {
	var resp SaveKeysResponse
	if err := c.call(ctx, "SaveKeys", SaveKeysRequest{Keys: keys}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Journal lists recorded insight outcomes.
func (c *Client) Journal(ctx context.Context, company string, limit int) (*JournalResponse, error) {
	var resp JournalResponse
	if err := c.call(ctx, "Journal", JournalRequest{Company: company, Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logs reads buffered daemon log events.
func (c *Client) Logs(ctx context.Context, req LogsRequest) (*LogsResponse, error) {
	var resp LogsResponse
	if err := c.call(ctx, "Logs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification(ctx context.Context) (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call(ctx, "TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
