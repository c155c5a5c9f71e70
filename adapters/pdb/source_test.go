package pdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"enzclass/domain/core"
	"enzclass/domain/protein"
)

const fixturePDB = "HEADER    HYDROLASE\nATOM      1  N   LYS A   1\nEND\n"

// newTestServer serves a fixture structure for known IDs and 404 otherwise,
// counting requests.
func newTestServer(t *testing.T, known map[string]string) (*httptest.Server, *int64) {
	t.Helper()
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		body, ok := known[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func newTestSource(t *testing.T, server *httptest.Server) *Source {
	t.Helper()
	s, err := NewSource(t.TempDir(), WithBaseURL(server.URL+"/download/%s.pdb"))
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	return s
}

func TestSource_DownloadsAndCaches(t *testing.T) {
	server, hits := newTestServer(t, map[string]string{"/download/1lyz.pdb": fixturePDB})
	s := newTestSource(t, server)

	rec, err := s.Resolve(context.Background(), "1lyz")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if rec.ID != "1lyz" || rec.Source != "pdb" || rec.Provenance != protein.ProvenanceExperimental {
		t.Errorf("Unexpected record: %+v", rec)
	}

	content, err := os.ReadFile(rec.Path)
	if err != nil {
		t.Fatalf("Failed to read cached file: %v", err)
	}
	if string(content) != fixturePDB {
		t.Error("Cached file content differs from the served fixture")
	}

	// second resolve must hit the cache, not the network
	again, err := s.Resolve(context.Background(), "1lyz")
	if err != nil {
		t.Fatalf("Cached resolve failed: %v", err)
	}
	if again.Path != rec.Path {
		t.Errorf("Expected identical cache path, got %s vs %s", again.Path, rec.Path)
	}
	if *hits != 1 {
		t.Errorf("Expected exactly one download, server saw %d requests", *hits)
	}
}

func TestSource_NotFound(t *testing.T) {
	server, _ := newTestServer(t, nil)
	s := newTestSource(t, server)

	_, err := s.Resolve(context.Background(), "9zzz")
	if !core.IsNotFoundError(err) {
		t.Fatalf("Expected ErrNotFound for a 404, got %v", err)
	}
	if core.IsRetrievalError(err) {
		t.Error("A 404 must not be classified as retryable")
	}
}

func TestSource_ServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	s := newTestSource(t, server)

	_, err := s.Resolve(context.Background(), "1lyz")
	if !core.IsRetrievalError(err) {
		t.Fatalf("Expected a retryable retrieval error for a 500, got %v", err)
	}
}

func TestSource_NoPartialCacheOnFailure(t *testing.T) {
	server, _ := newTestServer(t, nil)
	s := newTestSource(t, server)

	_, _ = s.Resolve(context.Background(), "9zzz")

	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		t.Fatalf("Failed to list cache dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty cache after a failed download, found %d entries", len(entries))
	}
}
