// Package monday is a minimal client for the three Monday.com GraphQL
// primitives the intake flow consumes: create_item, create_update and
// add_file_to_item.
package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"goodboy-intake/internal/common/config"
	"goodboy-intake/internal/common/logger"
)

// Item is a created board item.
type Item struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
}

// Update is a posted item update.
type Update struct {
	ID string `json:"id"`
}

// File is an asset attached to an item.
type File struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// User is the token owner, as reported by the me query.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

const (
	createItemMutation = `mutation create_item($board_id: ID!, $item_name: String!) {
  create_item(board_id: $board_id, item_name: $item_name) {
    id
    name
    url
    created_at
  }
}`

	createUpdateMutation = `mutation create_update($item_id: ID!, $body: String!) {
  create_update(item_id: $item_id, body: $body) {
    id
  }
}`

	addFileMutation = `mutation add_file($file: File!, $item_id: ID!) {
  add_file_to_item(item_id: $item_id, file: $file) {
    id
    name
    url
  }
}`

	meQuery = `query { me { id name email } }`
)

// Client talks to the Monday.com GraphQL API. The error list in a GraphQL
// response is authoritative over the HTTP status; the first error's message
// is the one surfaced to callers.
type Client struct {
	cfg    config.MondayConfig
	http   *http.Client
	logger logger.Logger
}

func New(cfg config.MondayConfig, log logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Millisecond},
		logger: log,
	}
}

// CreateItem creates a board item carrying only a name. Column values are
// deliberately not set; the board schema is not under this client's
// control.
func (c *Client) CreateItem(ctx context.Context, name string) (*Item, error) {
	variables := map[string]interface{}{
		"board_id":  c.cfg.BoardID,
		"item_name": name,
	}

	var payload struct {
		CreateItem *Item `json:"create_item"`
	}
	if err := c.request(ctx, createItemMutation, variables, &payload); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	if payload.CreateItem == nil {
		return nil, fmt.Errorf("create item: empty response")
	}

	c.logger.Info("monday item created", map[string]interface{}{
		"itemId":   payload.CreateItem.ID,
		"itemName": payload.CreateItem.Name,
	})
	return payload.CreateItem, nil
}

// CreateUpdate posts body as an update on an existing item.
func (c *Client) CreateUpdate(ctx context.Context, itemID, body string) (*Update, error) {
	variables := map[string]interface{}{
		"item_id": itemID,
		"body":    body,
	}

	var payload struct {
		CreateUpdate *Update `json:"create_update"`
	}
	if err := c.request(ctx, createUpdateMutation, variables, &payload); err != nil {
		return nil, fmt.Errorf("create update: %w", err)
	}
	if payload.CreateUpdate == nil {
		return nil, fmt.Errorf("create update: empty response")
	}
	return payload.CreateUpdate, nil
}

// AddFileToItem uploads one file as a multipart request with query,
// variables and file parts, the shape Monday's file endpoint expects.
func (c *Client) AddFileToItem(ctx context.Context, itemID, filename, contentType string, data []byte) (*File, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("query", addFileMutation); err != nil {
		return nil, fmt.Errorf("add file: %w", err)
	}
	variables, err := json.Marshal(map[string]interface{}{"item_id": itemID})
	if err != nil {
		return nil, fmt.Errorf("add file: %w", err)
	}
	if err := w.WriteField("variables", string(variables)); err != nil {
		return nil, fmt.Errorf("add file: %w", err)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("add file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("add file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("add file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("add file: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.APIToken)
	req.Header.Set("Content-Type", w.FormDataContentType())

	var payload struct {
		AddFileToItem *File `json:"add_file_to_item"`
	}
	if err := c.do(req, &payload); err != nil {
		return nil, fmt.Errorf("add file: %w", err)
	}
	if payload.AddFileToItem == nil {
		return nil, fmt.Errorf("add file: empty response")
	}

	c.logger.Info("file attached to monday item", map[string]interface{}{
		"itemId":   itemID,
		"fileName": filename,
		"fileId":   payload.AddFileToItem.ID,
	})
	return payload.AddFileToItem, nil
}

// TestConnection resolves the token owner. Used for a startup health log.
func (c *Client) TestConnection(ctx context.Context) (*User, error) {
	var payload struct {
		Me *User `json:"me"`
	}
	if err := c.request(ctx, meQuery, nil, &payload); err != nil {
		return nil, fmt.Errorf("test connection: %w", err)
	}
	if payload.Me == nil {
		return nil, fmt.Errorf("test connection: empty response")
	}
	return payload.Me, nil
}

func (c *Client) request(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Version", c.cfg.APIVersion)

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if unmarshalErr := json.Unmarshal(raw, &envelope); unmarshalErr == nil && len(envelope.Errors) > 0 {
		// the first error message is authoritative for display
		return fmt.Errorf("%s", envelope.Errors[0].Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet(raw))
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}

func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
