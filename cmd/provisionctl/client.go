package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/EternisAI/sketch-provisioner/internal/api/http/dto"
)

// Client talks to the provisioner HTTP API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 5 * time.Minute},
	}
}

type apiError struct {
	Status  int
	Message string
	Kind    string
}

func (e *apiError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("request failed (HTTP %d, %s): %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("request failed (HTTP %d): %s", e.Status, e.Message)
}

func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp dto.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", dto.LoginRequest{Username: username, Password: password}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) ListSketches(ctx context.Context) ([]string, error) {
	var resp dto.ListSketchesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/sketches", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sketches, nil
}

func (c *Client) GenerateLink(ctx context.Context, variant, name string) (*dto.GenerateLinkResponse, error) {
	var resp dto.GenerateLinkResponse
	if err := c.doJSON(ctx, http.MethodGet, sketchPath(variant, "generate_link", name), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListDevices(ctx context.Context) ([]dto.DeviceResponse, error) {
	var resp dto.ListDevicesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/devices", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

func (c *Client) RemoveDevice(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/devices/"+url.PathEscape(id), nil, nil)
}

// Download provisions a new device from variant and saves its archive in
// dir. It returns the written path and the minted device ID.
func (c *Client) Download(ctx context.Context, variant, name, dir string) (string, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, sketchPath(variant, "download", name), nil)
	if err != nil {
		return "", "", err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", readError(resp)
	}

	fileName := attachmentName(resp.Header.Get("Content-Disposition"), variant+".zip")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, fileName)

	out, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(path)
		return "", "", fmt.Errorf("failed to save archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", "", fmt.Errorf("failed to save archive: %w", err)
	}
	return path, resp.Header.Get("X-Device-ID"), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(resp)
	}
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func readError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(body))
	}
	return &apiError{Status: resp.StatusCode, Message: payload.Error, Kind: payload.Kind}
}

func sketchPath(variant, action, name string) string {
	path := "/api/v1/sketches/" + url.PathEscape(variant) + "/" + action
	if name != "" {
		path += "?" + url.Values{"name": {name}}.Encode()
	}
	return path
}

func attachmentName(header, fallback string) string {
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return fallback
	}
	name := filepath.Base(params["filename"])
	if name == "." || name == "/" || name == "" {
		return fallback
	}
	return name
}
