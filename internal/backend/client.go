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
	"net/http"
	"net/url"
	"strings"
	"time"

	"goscreenwriter/internal/cache"
)

// Client is the HTTP client for the archive API. Script bodies are immutable
// per revision, so reads go through a small TTL cache.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
	reads   *cache.Cache
}

// NewClient creates a new archive client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		reads:   cache.New(64, 5*time.Minute),
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
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
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// cachedGet serves GET responses from the read cache when fresh.
func (c *Client) cachedGet(ctx context.Context, path string, dest any) error {
	if raw, ok := c.reads.Get(path); ok {
		return json.Unmarshal(raw, dest)
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, dest); err != nil {
		return err
	}
	if raw, err := json.Marshal(dest); err == nil {
		c.reads.Put(path, raw)
	}
	return nil
}

// FetchToken asks the server for a bearer token and stores it on the client.
func (c *Client) FetchToken(ctx context.Context, subject string, ttl time.Duration) error {
	var resp struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	body := map[string]any{"subject": subject, "ttl_seconds": int64(ttl.Seconds())}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", body, &resp); err != nil {
		return err
	}
	c.Token = resp.Token
	return nil
}

// ListScripts returns the archived scripts.
func (c *Client) ListScripts(ctx context.Context) ([]ScriptSummary, error) {
	var list []ScriptSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/scripts", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ScriptEnvelope matches the server response for the latest revision of a script.
type ScriptEnvelope struct {
	ScriptID  int64  `json:"script_id"`
	Version   int64  `json:"version"`
	CreatedAt string `json:"created_at"`
	Body      string `json:"body"`
}

// GetScript fetches the latest revision of a script. Responses are cached.
func (c *Client) GetScript(ctx context.Context, scriptID int64) (*ScriptEnvelope, error) {
	var env ScriptEnvelope
	path := fmt.Sprintf("/api/scripts/%d", scriptID)
	if err := c.cachedGet(ctx, path, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Upload pushes a serialized script to the archive as a new revision and
// invalidates any cached copy.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (id, ver int64, err error) {
	var resp struct {
		ID      int64 `json:"id"`
		Version int64 `json:"version"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/scripts", req, &resp); err != nil {
		return 0, 0, err
	}
	c.reads.Delete(fmt.Sprintf("/api/scripts/%d", resp.ID))
	return resp.ID, resp.Version, nil
}

// Search runs a remote full-text search within one archived script.
func (c *Client) Search(ctx context.Context, scriptID int64, q RemoteQuery) ([]RemoteResult, error) {
	v := url.Values{}
	if q.Text != "" {
		v.Set("q", q.Text)
	}
	if q.Speaker != "" {
		v.Set("speaker", q.Speaker)
	}
	if len(q.Formats) > 0 {
		v.Set("format", strings.Join(q.Formats, ","))
	}
	if q.Limit > 0 {
		v.Set("limit", fmt.Sprint(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", fmt.Sprint(q.Offset))
	}
	path := fmt.Sprintf("/api/scripts/%d/search", scriptID)
	if enc := v.Encode(); enc != "" {
		path += "?" + enc
	}
	var out []RemoteResult
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
