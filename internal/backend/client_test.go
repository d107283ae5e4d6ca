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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// fakeArchive serves the archive API shapes without a database.
func fakeArchive(t *testing.T, scriptGets *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/scripts", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, []ScriptSummary{{ID: 7, StableID: "s-7", Title: "Night Shift", Version: 3}})
		case http.MethodPost:
			var req UploadRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"id": 7, "version": 4})
		}
	})
	mux.HandleFunc("/api/scripts/7", func(w http.ResponseWriter, r *http.Request) {
		if scriptGets != nil {
			scriptGets.Add(1)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"script_id": 7, "version": 3, "body": "<action>archived</action>",
		})
	})
	mux.HandleFunc("/api/scripts/7/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "lamp" {
			writeJSON(w, http.StatusOK, []RemoteResult{})
			return
		}
		writeJSON(w, http.StatusOK, []RemoteResult{{LineNo: 4, Format: "dialog", Speaker: "KEEPER", Snippet: "the [lamp] must"}})
	})
	return httptest.NewServer(mux)
}

func TestClientListAndGet(t *testing.T) {
	srv := fakeArchive(t, nil)
	defer srv.Close()
	c := NewClient(srv.URL+"/", "tok")

	list, err := c.ListScripts(context.Background())
	if err != nil {
		t.Fatalf("ListScripts: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Night Shift" {
		t.Fatalf("list = %+v", list)
	}

	env, err := c.GetScript(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetScript: %v", err)
	}
	if env.Body != "<action>archived</action>" || env.Version != 3 {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestClientGetScriptCached(t *testing.T) {
	var gets atomic.Int64
	srv := fakeArchive(t, &gets)
	defer srv.Close()
	c := NewClient(srv.URL, "tok")

	for i := 0; i < 3; i++ {
		if _, err := c.GetScript(context.Background(), 7); err != nil {
			t.Fatalf("GetScript %d: %v", i, err)
		}
	}
	if n := gets.Load(); n != 1 {
		t.Fatalf("server hit %d times, want 1 (cache)", n)
	}
}

func TestClientUploadInvalidatesCache(t *testing.T) {
	var gets atomic.Int64
	srv := fakeArchive(t, &gets)
	defer srv.Close()
	c := NewClient(srv.URL, "tok")

	if _, err := c.GetScript(context.Background(), 7); err != nil {
		t.Fatalf("GetScript: %v", err)
	}
	id, ver, err := c.Upload(context.Background(), UploadRequest{StableID: "s-7", Title: "Night Shift", Body: "<action>new</action>"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != 7 || ver != 4 {
		t.Fatalf("upload result = %d/%d", id, ver)
	}
	if _, err := c.GetScript(context.Background(), 7); err != nil {
		t.Fatalf("GetScript after upload: %v", err)
	}
	if n := gets.Load(); n != 2 {
		t.Fatalf("server hit %d times, want 2 after invalidation", n)
	}
}

func TestClientSearch(t *testing.T) {
	srv := fakeArchive(t, nil)
	defer srv.Close()
	c := NewClient(srv.URL, "tok")

	res, err := c.Search(context.Background(), 7, RemoteQuery{Text: "lamp", Formats: []string{"dialog"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].Speaker != "KEEPER" {
		t.Fatalf("results = %+v", res)
	}
}
