package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Stop requests the daemon to stop.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Redub.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the combined daemon and session status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Redub.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns render entries optionally filtered by statuses.
func (c *Client) QueueList(statuses []string) (*QueueListResponse, error) {
	var resp QueueListResponse
	if err := c.client.Call("Redub.QueueList", QueueListRequest{Statuses: statuses}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueDescribe returns details for a single render entry.
func (c *Client) QueueDescribe(id int64) (*QueueDescribeResponse, error) {
	var resp QueueDescribeResponse
	if err := c.client.Call("Redub.QueueDescribe", QueueDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClear removes render entries, optionally only finished ones.
func (c *Client) QueueClear(finishedOnly bool) (*QueueClearResponse, error) {
	var resp QueueClearResponse
	if err := c.client.Call("Redub.QueueClear", QueueClearRequest{FinishedOnly: finishedOnly}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Import transcribes new media from a URL or local file path.
func (c *Client) Import(source, filePath string) (*StateResponse, error) {
	var resp StateResponse
	if err := c.client.Call("Redub.Import", ImportRequest{Source: source, FilePath: filePath}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AlignFull re-runs alignment over the whole job.
func (c *Client) AlignFull() (*StateResponse, error) {
	var resp StateResponse
	if err := c.client.Call("Redub.AlignFull", AlignFullRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AlignRegion re-aligns a time range.
func (c *Client) AlignRegion(start, end, margin float64) (*StateResponse, error) {
	var resp StateResponse
	req := AlignRegionRequest{Start: start, End: end, Margin: margin}
	if err := c.client.Call("Redub.AlignRegion", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetStep moves the session to a workflow step.
func (c *Client) SetStep(step string) (*StateResponse, error) {
	var resp StateResponse
	if err := c.client.Call("Redub.SetStep", SetStepRequest{Step: step}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetSelection replaces or clears the time selection.
func (c *Client) SetSelection(start, end *float64) (*StateResponse, error) {
	var resp StateResponse
	if err := c.client.Call("Redub.SetSelection", SetSelectionRequest{Start: start, End: end}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetReplaceText updates the replacement text.
func (c *Client) SetReplaceText(text string) (*StateResponse, error) {
	var resp StateResponse
	if err := c.client.Call("Redub.SetReplaceText", SetReplaceTextRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetVoice updates the voicing choice.
func (c *Client) SetVoice(req SetVoiceRequest) (*StateResponse, error) {
	var resp StateResponse
	if err := c.client.Call("Redub.SetVoice", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PatchTiming updates the timing fields that are present.
func (c *Client) PatchTiming(req PatchTimingRequest) (*StateResponse, error) {
	var resp StateResponse
	if err := c.client.Call("Redub.PatchTiming", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReplacePreview renders a preview with the current session inputs.
func (c *Client) ReplacePreview() (*StateResponse, error) {
	var resp StateResponse
	if err := c.client.Call("Redub.ReplacePreview", ReplacePreviewRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Apply commits the current preview to the final output.
func (c *Client) Apply() (*StateResponse, error) {
	var resp StateResponse
	if err := c.client.Call("Redub.Apply", ApplyRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Suggest asks for the next-step affordance.
func (c *Client) Suggest() (*SuggestResponse, error) {
	var resp SuggestResponse
	if err := c.client.Call("Redub.Suggest", SuggestRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events reads session events newer than the given sequence number.
func (c *Client) Events(since int64) (*EventsResponse, error) {
	var resp EventsResponse
	if err := c.client.Call("Redub.Events", EventsRequest{Since: since}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Voices lists selectable voices for the configured synthesis engine.
func (c *Client) Voices() (*VoicesResponse, error) {
	var resp VoicesResponse
	if err := c.client.Call("Redub.Voices", VoicesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Favorites lists the saved favorite voices.
func (c *Client) Favorites() (*FavoritesResponse, error) {
	var resp FavoritesResponse
	if err := c.client.Call("Redub.Favorites", FavoritesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
