package weaviate

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeWeaviate serves the REST and GraphQL endpoints the client touches.
type fakeWeaviate struct {
	mu       sync.Mutex
	queries  []string
	graphql  map[string]any
	objects  map[string]map[string]any
	patches  map[string]map[string]any
	classes  map[string]map[string]any
	notReady bool
}

func newFakeWeaviate() *fakeWeaviate {
	return &fakeWeaviate{
		objects: map[string]map[string]any{},
		patches: map[string]map[string]any{},
		classes: map[string]map[string]any{},
	}
}

func (f *fakeWeaviate) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return ""
	}
	return f.queries[len(f.queries)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{"error": []map[string]string{{"message": "not found"}}})
}

// objectID extracts the ID from /v1/objects/{id} or /v1/objects/{class}/{id}.
func objectID(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/v1/objects/"), "/")
	return parts[len(parts)-1]
}

func (f *fakeWeaviate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/v1/meta":
		writeJSON(w, http.StatusOK, map[string]any{"version": "1.27.0", "hostname": "http://[::]:8080"})
	case r.URL.Path == "/v1/.well-known/ready":
		if f.notReady {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.URL.Path == "/v1/.well-known/openid-configuration":
		notFound(w)
	case r.URL.Path == "/v1/graphql":
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Query string `json:"query"`
		}
		_ = json.Unmarshal(body, &req)
		f.queries = append(f.queries, req.Query)
		writeJSON(w, http.StatusOK, f.graphql)
	case r.URL.Path == "/v1/schema":
		classes := make([]any, 0, len(f.classes))
		for _, c := range f.classes {
			classes = append(classes, c)
		}
		writeJSON(w, http.StatusOK, map[string]any{"classes": classes})
	case strings.HasPrefix(r.URL.Path, "/v1/schema/"):
		name := strings.TrimPrefix(r.URL.Path, "/v1/schema/")
		c, ok := f.classes[name]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case r.URL.Path == "/v1/objects" && r.Method == http.MethodPost:
		var obj map[string]any
		_ = json.NewDecoder(r.Body).Decode(&obj)
		id, _ := obj["id"].(string)
		f.objects[id] = obj
		writeJSON(w, http.StatusOK, obj)
	case strings.HasPrefix(r.URL.Path, "/v1/objects/"):
		id := objectID(r.URL.Path)
		obj, ok := f.objects[id]
		switch r.Method {
		case http.MethodHead:
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			if !ok {
				notFound(w)
				return
			}
			writeJSON(w, http.StatusOK, obj)
		case http.MethodPatch:
			if !ok {
				notFound(w)
				return
			}
			var patch map[string]any
			_ = json.NewDecoder(r.Body).Decode(&patch)
			f.patches[id] = patch
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		notFound(w)
	}
}

func newTestClient(t *testing.T, f *fakeWeaviate) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := New(Config{Host: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}
