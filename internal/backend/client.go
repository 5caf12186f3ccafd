/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

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

// Client is a small HTTP client for the sync backend.
type Client struct {
	BaseURL string
	Token   string
	client  *http.Client
}

// NewClient builds a client for the given base URL, e.g. "http://localhost:8080".
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(out)
}

// AuthToken requests a bearer token for the given subject.
func (c *Client) AuthToken(ctx context.Context, subject string, ttlSeconds int64) (string, error) {
	var resp struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	req := map[string]any{"subject": subject, "ttl_seconds": ttlSeconds}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", req, &resp); err != nil {
		return "", err
	}
	c.Token = resp.Token
	return resp.Token, nil
}

// Workspace is the server-side projection of one workspace.
type Workspace struct {
	ID        int64     `json:"id"`
	StableID  string    `json:"stable_id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// ListWorkspaces returns the workspaces visible to the caller.
func (c *Client) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	var out []Workspace
	if err := c.doJSON(ctx, http.MethodGet, "/api/workspaces", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IndexSnapshotEnvelope wraps the latest uploaded index snapshot.
type IndexSnapshotEnvelope struct {
	WorkspaceID int64           `json:"workspace_id"`
	Version     int64           `json:"version"`
	CreatedAt   string          `json:"created_at"`
	Snapshot    json.RawMessage `json:"snapshot"`
}

// GetIndexSnapshot fetches the newest index snapshot for a workspace.
func (c *Client) GetIndexSnapshot(ctx context.Context, workspaceID int64) (*IndexSnapshotEnvelope, error) {
	var out IndexSnapshotEnvelope
	path := fmt.Sprintf("/api/workspaces/%d/index", workspaceID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
