package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/maven"
)

func coord(g, a, v string) maven.Coordinate {
	return maven.Coordinate{Module: maven.Module{Group: g, Artifact: a}, Version: v}
}

// fakeRegistry serves a map of repository-relative paths to file bodies
// and counts requests per path.
type fakeRegistry struct {
	mu    sync.Mutex
	files map[string][]byte
	hits  map[string]int
}

func newFakeRegistry(files map[string][]byte) *fakeRegistry {
	return &fakeRegistry{files: files, hits: map[string]int{}}
}

func (f *fakeRegistry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	body, ok := f.files[r.URL.Path]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Write(body)
}

func (f *fakeRegistry) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func newTestCache(t *testing.T, reg *fakeRegistry) *Cache {
	t.Helper()
	srv := httptest.NewServer(reg)
	t.Cleanup(srv.Close)

	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	c.SetBaseURL(srv.URL)
	return c
}

func sha(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestFetchMetadataPrefersModule(t *testing.T) {
	reg := newFakeRegistry(map[string][]byte{
		"/g/a/1.0/a-1.0.module": []byte(`{"formatVersion":"1.1"}`),
		"/g/a/1.0/a-1.0.pom":    []byte(`<project/>`),
	})
	c := newTestCache(t, reg)

	data, format, err := c.FetchMetadata(context.Background(), coord("g", "a", "1.0"))
	if err != nil {
		t.Fatalf("FetchMetadata error: %v", err)
	}
	if format != FormatModule {
		t.Errorf("format = %v, want module", format)
	}
	if string(data) != `{"formatVersion":"1.1"}` {
		t.Errorf("data = %s", data)
	}
	if reg.hitCount("/g/a/1.0/a-1.0.pom") != 0 {
		t.Error("pom should not be fetched when module exists")
	}
}

func TestFetchMetadataFallsBackToPOM(t *testing.T) {
	reg := newFakeRegistry(map[string][]byte{
		"/g/a/1.0/a-1.0.pom": []byte(`<project/>`),
	})
	c := newTestCache(t, reg)

	data, format, err := c.FetchMetadata(context.Background(), coord("g", "a", "1.0"))
	if err != nil {
		t.Fatalf("FetchMetadata error: %v", err)
	}
	if format != FormatPOM {
		t.Errorf("format = %v, want pom", format)
	}
	if string(data) != `<project/>` {
		t.Errorf("data = %s", data)
	}
}

func TestFetchMetadataMissing(t *testing.T) {
	c := newTestCache(t, newFakeRegistry(nil))

	_, _, err := c.FetchMetadata(context.Background(), coord("g", "gone", "1.0"))
	if !errors.Is(err, errors.ErrCodeArtifactNotFound) {
		t.Errorf("err = %v, want ARTIFACT_NOT_FOUND", err)
	}
}

func TestFetchMetadataServedFromDisk(t *testing.T) {
	reg := newFakeRegistry(map[string][]byte{
		"/g/a/1.0/a-1.0.pom": []byte(`<project/>`),
	})
	c := newTestCache(t, reg)
	ctx := context.Background()

	if _, _, err := c.FetchMetadata(ctx, coord("g", "a", "1.0")); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, _, err := c.FetchMetadata(ctx, coord("g", "a", "1.0")); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if hits := reg.hitCount("/g/a/1.0/a-1.0.pom"); hits != 1 {
		t.Errorf("pom fetched %d times, want 1 (second serve from disk)", hits)
	}
}

func TestFetchMetadataCorruptSidecarRefetches(t *testing.T) {
	reg := newFakeRegistry(map[string][]byte{
		"/g/a/1.0/a-1.0.pom": []byte(`<project/>`),
	})
	c := newTestCache(t, reg)
	ctx := context.Background()

	if _, _, err := c.FetchMetadata(ctx, coord("g", "a", "1.0")); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	// Corrupt the cached file so the sidecar no longer matches.
	path := c.filePath(coord("g", "a", "1.0"), "pom")
	os.WriteFile(path, []byte("tampered"), 0o644)

	data, _, err := c.FetchMetadata(ctx, coord("g", "a", "1.0"))
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if string(data) != `<project/>` {
		t.Errorf("tampered file served: %s", data)
	}
	if hits := reg.hitCount("/g/a/1.0/a-1.0.pom"); hits != 2 {
		t.Errorf("pom fetched %d times, want 2", hits)
	}
}

func TestFetchJAR(t *testing.T) {
	body := []byte("jar bytes")
	reg := newFakeRegistry(map[string][]byte{
		"/g/a/1.0/a-1.0.jar": body,
	})
	c := newTestCache(t, reg)

	path, sum, err := c.FetchJAR(context.Background(), coord("g", "a", "1.0"), "")
	if err != nil {
		t.Fatalf("FetchJAR error: %v", err)
	}
	if sum != sha(body) {
		t.Errorf("sum = %s, want %s", sum, sha(body))
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != string(body) {
		t.Errorf("cached jar = %q, %v", got, err)
	}

	// Sidecar written next to the jar.
	sidecar, err := os.ReadFile(path + ".sha256")
	if err != nil || string(sidecar) != sum {
		t.Errorf("sidecar = %q, %v", sidecar, err)
	}

	// No leftover temp files.
	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestFetchJARPinnedChecksumMatch(t *testing.T) {
	body := []byte("jar bytes")
	reg := newFakeRegistry(map[string][]byte{"/g/a/1.0/a-1.0.jar": body})
	c := newTestCache(t, reg)

	_, sum, err := c.FetchJAR(context.Background(), coord("g", "a", "1.0"), sha(body))
	if err != nil {
		t.Fatalf("FetchJAR error: %v", err)
	}
	if sum != sha(body) {
		t.Errorf("sum = %s", sum)
	}
}

func TestFetchJARPinnedChecksumMismatch(t *testing.T) {
	reg := newFakeRegistry(map[string][]byte{"/g/a/1.0/a-1.0.jar": []byte("evil bytes")})
	c := newTestCache(t, reg)

	_, _, err := c.FetchJAR(context.Background(), coord("g", "a", "1.0"), sha([]byte("expected bytes")))
	if !errors.Is(err, errors.ErrCodeChecksumMismatch) {
		t.Fatalf("err = %v, want CHECKSUM_MISMATCH", err)
	}

	// The mismatching download must not be left in the cache.
	if _, statErr := os.Stat(c.JARPath(coord("g", "a", "1.0"))); !os.IsNotExist(statErr) {
		t.Error("mismatching jar left in cache")
	}
}

func TestFetchJARMissing(t *testing.T) {
	c := newTestCache(t, newFakeRegistry(nil))
	_, _, err := c.FetchJAR(context.Background(), coord("g", "gone", "1.0"), "")
	if !errors.Is(err, errors.ErrCodeArtifactNotFound) {
		t.Errorf("err = %v, want ARTIFACT_NOT_FOUND", err)
	}
}

func TestNetworkErrorAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	c.SetBaseURL(srv.URL)

	_, _, err = c.FetchJAR(context.Background(), coord("g", "a", "1.0"), "")
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Fatalf("err = %v, want NETWORK_ERROR", err)
	}
	if calls.Load() < 2 {
		t.Errorf("calls = %d, want retries on 5xx", calls.Load())
	}
}

func TestConcurrentFetchesCoalesce(t *testing.T) {
	body := []byte("jar bytes")
	reg := newFakeRegistry(map[string][]byte{"/g/a/1.0/a-1.0.jar": body})
	c := newTestCache(t, reg)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := c.FetchJAR(context.Background(), coord("g", "a", "1.0"), ""); err != nil {
				t.Errorf("FetchJAR error: %v", err)
			}
		}()
	}
	wg.Wait()

	if hits := reg.hitCount("/g/a/1.0/a-1.0.jar"); hits != 1 {
		t.Errorf("jar fetched %d times, want 1 (coalesced)", hits)
	}
}

func TestCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	c.SetBaseURL(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := c.FetchJAR(ctx, coord("g", "a", "1.0"), ""); err == nil {
		t.Error("cancelled fetch should fail")
	}
}
