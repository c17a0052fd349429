// Package workspace is a JSON-RPC 1.1 client for the KBase Workspace
// service, covering object download, upload and listing.
package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the production KBase workspace endpoint.
const DefaultBaseURL = "https://kbase.us/services/ws"

// RPCError is an error payload returned by the service.
type RPCError struct {
	Name    string `json:"name"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("workspace: %s (code %d)", e.Message, e.Code)
}

// Client talks to a KBase workspace service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the service endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithToken supplies a KBase auth token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a Client with sane defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ObjectRef addresses a workspace object, either by names or numeric IDs.
type ObjectRef struct {
	Workspace string `json:"workspace,omitempty"`
	Name      string `json:"name,omitempty"`
	Ref       string `json:"ref,omitempty"`
}

// ObjectData is one object returned by get_objects2.
type ObjectData struct {
	Data json.RawMessage `json:"data"`
	Info ObjectInfo      `json:"info"`
}

// ObjectInfo is the 11-tuple of object metadata the workspace returns.
type ObjectInfo struct {
	ObjectID  int
	Name      string
	Type      string
	SavedDate string
	Version   int
	SavedBy   string
	WsID      int
	Workspace string
	Checksum  string
	Size      int
	Metadata  map[string]string
}

// UnmarshalJSON decodes the positional object_info tuple.
func (i *ObjectInfo) UnmarshalJSON(data []byte) error {
	tuple := []interface{}{
		&i.ObjectID, &i.Name, &i.Type, &i.SavedDate, &i.Version,
		&i.SavedBy, &i.WsID, &i.Workspace, &i.Checksum, &i.Size, &i.Metadata,
	}
	return json.Unmarshal(data, &tuple)
}

// GetObject downloads a single object and decodes its data into dest.
func (c *Client) GetObject(ctx context.Context, ref ObjectRef, dest interface{}) (*ObjectInfo, error) {
	params := map[string]interface{}{"objects": []ObjectRef{ref}}
	var result struct {
		Data []ObjectData `json:"data"`
	}
	if err := c.call(ctx, "Workspace.get_objects2", params, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, &RPCError{Message: "empty get_objects2 response", Code: -1}
	}
	obj := result.Data[0]
	if dest != nil {
		if err := json.Unmarshal(obj.Data, dest); err != nil {
			return nil, err
		}
	}
	return &obj.Info, nil
}

// SaveObject uploads one typed object to a workspace by name.
func (c *Client) SaveObject(ctx context.Context, wsName, objName, objType string, data interface{}) (*ObjectInfo, error) {
	params := map[string]interface{}{
		"workspace": wsName,
		"objects": []map[string]interface{}{{
			"name": objName,
			"type": objType,
			"data": data,
		}},
	}
	var infos []ObjectInfo
	if err := c.call(ctx, "Workspace.save_objects", params, &infos); err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, &RPCError{Message: "empty save_objects response", Code: -1}
	}
	return &infos[0], nil
}

// ListObjects lists object metadata for a workspace, optionally filtered by
// type.
func (c *Client) ListObjects(ctx context.Context, wsName, objType string) ([]ObjectInfo, error) {
	params := map[string]interface{}{"workspaces": []string{wsName}}
	if objType != "" {
		params["type"] = objType
	}
	var infos []ObjectInfo
	if err := c.call(ctx, "Workspace.list_objects", params, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// call issues one JSON-RPC 1.1 request. Params are wrapped in a one-element
// array and the first result element is decoded into result.
func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	payload := map[string]interface{}{
		"version": "1.1",
		"id":      fmt.Sprint(time.Now().UnixNano()),
		"method":  method,
		"params":  []interface{}{params},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope struct {
		Result []json.RawMessage `json:"result"`
		Error  *RPCError         `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("workspace: decoding response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if resp.StatusCode != http.StatusOK {
		return &RPCError{Message: strings.TrimSpace(string(raw)), Code: resp.StatusCode}
	}
	if result != nil && len(envelope.Result) > 0 {
		return json.Unmarshal(envelope.Result[0], result)
	}
	return nil
}
