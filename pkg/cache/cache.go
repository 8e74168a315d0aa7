// Package cache implements the content-addressed local mirror of Maven
// Central at ~/.jargo/cache.
//
// The cache directory mirrors the upstream repository tree:
//
//	~/.jargo/cache/<group-path>/<artifact>/<version>/<artifact>-<version>.{jar,pom,module}
//
// with companion .sha256 sidecar files. A cached file is served only when
// its sidecar matches the file content; anything else triggers a fresh
// download. Downloads are written to a uniquely named temporary file in the
// destination directory, fsynced, and renamed into place, so a crashed or
// cancelled download never leaves a partial artifact behind.
//
// Two layers enforce the at-most-one-downloader invariant:
//
//   - in-process, concurrent fetches of the same coordinate coalesce
//     through a singleflight group
//   - across processes, an advisory flock on a per-version .lock file
//     serializes downloaders
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/httputil"
	"github.com/jargo-build/jargo/pkg/maven"
	"github.com/jargo-build/jargo/pkg/observability"
)

// DefaultBaseURL is the Maven Central repository root.
const DefaultBaseURL = "https://repo1.maven.org/maven2"

// MetadataFormat distinguishes the two metadata documents Maven Central
// serves for an artifact.
type MetadataFormat int

const (
	// FormatModule is Gradle Module Metadata (the ".module" JSON file).
	FormatModule MetadataFormat = iota
	// FormatPOM is Maven POM XML.
	FormatPOM
)

func (f MetadataFormat) String() string {
	if f == FormatModule {
		return "module"
	}
	return "pom"
}

// Cache is an artifact store rooted at a local directory.
// All methods are safe for concurrent use by multiple goroutines.
type Cache struct {
	root    string
	baseURL string
	client  *http.Client
	group   singleflight.Group
}

// Open opens (creating if needed) the cache rooted at dir.
// An empty dir selects the default ~/.jargo/cache.
func Open(dir string) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "could not determine home directory")
		}
		dir = filepath.Join(home, ".jargo", "cache")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to create cache dir %s", dir)
	}
	return &Cache{
		root:    dir,
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Dir returns the cache root directory.
func (c *Cache) Dir() string { return c.root }

// SetBaseURL overrides the repository root. Used by tests to point the
// cache at a local fake registry.
func (c *Cache) SetBaseURL(url string) {
	c.baseURL = strings.TrimSuffix(url, "/")
}

// ArtifactDir returns the cache directory for a coordinate.
func (c *Cache) ArtifactDir(coord maven.Coordinate) string {
	return filepath.Join(c.root, maven.GroupPath(coord.Group), coord.Artifact, coord.Version)
}

// filePath returns the cached file path for a coordinate and extension.
func (c *Cache) filePath(coord maven.Coordinate, ext string) string {
	return filepath.Join(c.ArtifactDir(coord), maven.FileName(coord.Artifact, coord.Version, ext))
}

// JARPath returns the path the coordinate's JAR occupies in the cache.
// The file exists only after a successful FetchJAR.
func (c *Cache) JARPath(coord maven.Coordinate) string {
	return c.filePath(coord, "jar")
}

// FetchMetadata returns the metadata document for a coordinate, preferring
// Gradle Module JSON over POM XML. Cached files are served when their
// sidecar checksum matches; otherwise both forms are tried against the
// repository, and a 404 on both surfaces ARTIFACT_NOT_FOUND.
func (c *Cache) FetchMetadata(ctx context.Context, coord maven.Coordinate) ([]byte, MetadataFormat, error) {
	type result struct {
		data   []byte
		format MetadataFormat
	}
	v, err, _ := c.group.Do("meta:"+coord.String(), func() (any, error) {
		data, format, err := c.fetchMetadata(ctx, coord)
		if err != nil {
			return nil, err
		}
		return result{data: data, format: format}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	r := v.(result)
	return r.data, r.format, nil
}

func (c *Cache) fetchMetadata(ctx context.Context, coord maven.Coordinate) ([]byte, MetadataFormat, error) {
	for _, f := range []MetadataFormat{FormatModule, FormatPOM} {
		if data, ok := c.serveCached(c.filePath(coord, f.String())); ok {
			return data, f, nil
		}
	}

	unlock, err := c.lockArtifact(coord)
	if err != nil {
		return nil, 0, err
	}
	defer unlock()

	// Another process may have completed the download while we waited.
	for _, f := range []MetadataFormat{FormatModule, FormatPOM} {
		if data, ok := c.serveCached(c.filePath(coord, f.String())); ok {
			return data, f, nil
		}
	}

	for _, f := range []MetadataFormat{FormatModule, FormatPOM} {
		dest := c.filePath(coord, f.String())
		found, err := c.download(ctx, coord, f.String(), dest)
		if err != nil {
			return nil, 0, err
		}
		if found {
			data, err := os.ReadFile(dest)
			if err != nil {
				return nil, 0, errors.Wrap(errors.ErrCodeInternal, err, "failed to read %s", dest)
			}
			return data, f, nil
		}
	}
	return nil, 0, errors.New(errors.ErrCodeArtifactNotFound,
		"artifact %s not found on Maven Central (no .module or .pom)", coord)
}

// FetchPOM returns the POM document for a coordinate, bypassing the
// .module preference. Parent POMs and BOMs are always POM XML, so the
// parent-chain walk uses this instead of FetchMetadata.
func (c *Cache) FetchPOM(ctx context.Context, coord maven.Coordinate) ([]byte, error) {
	v, err, _ := c.group.Do("pom:"+coord.String(), func() (any, error) {
		dest := c.filePath(coord, "pom")
		if data, ok := c.serveCached(dest); ok {
			return data, nil
		}

		unlock, err := c.lockArtifact(coord)
		if err != nil {
			return nil, err
		}
		defer unlock()

		if data, ok := c.serveCached(dest); ok {
			return data, nil
		}
		found, err := c.download(ctx, coord, "pom", dest)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errors.New(errors.ErrCodeArtifactNotFound, "pom for %s not found on Maven Central", coord)
		}
		data, err := os.ReadFile(dest)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to read %s", dest)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// FetchJAR ensures the coordinate's JAR is cached and returns its path and
// SHA-256. When pinned is non-empty (a checksum recorded in the lock file)
// a mismatching download aborts with CHECKSUM_MISMATCH and leaves no file
// behind.
func (c *Cache) FetchJAR(ctx context.Context, coord maven.Coordinate, pinned string) (string, string, error) {
	type result struct {
		path string
		sum  string
	}
	v, err, _ := c.group.Do("jar:"+coord.String(), func() (any, error) {
		path, sum, err := c.fetchJAR(ctx, coord, pinned)
		if err != nil {
			return nil, err
		}
		return result{path: path, sum: sum}, nil
	})
	if err != nil {
		return "", "", err
	}
	r := v.(result)
	return r.path, r.sum, nil
}

func (c *Cache) fetchJAR(ctx context.Context, coord maven.Coordinate, pinned string) (string, string, error) {
	dest := c.JARPath(coord)

	if sum, ok := c.cachedChecksum(dest); ok {
		if pinned != "" && sum != pinned {
			return "", "", checksumError(coord, pinned, sum)
		}
		return dest, sum, nil
	}

	unlock, err := c.lockArtifact(coord)
	if err != nil {
		return "", "", err
	}
	defer unlock()

	if sum, ok := c.cachedChecksum(dest); ok {
		if pinned != "" && sum != pinned {
			return "", "", checksumError(coord, pinned, sum)
		}
		return dest, sum, nil
	}

	found, err := c.download(ctx, coord, "jar", dest)
	if err != nil {
		return "", "", err
	}
	if !found {
		return "", "", errors.New(errors.ErrCodeArtifactNotFound, "artifact %s not found on Maven Central", coord)
	}

	sum, err := fileSHA256(dest)
	if err != nil {
		return "", "", err
	}
	if pinned != "" && sum != pinned {
		_ = os.Remove(dest)
		_ = os.Remove(dest + ".sha256")
		return "", "", checksumError(coord, pinned, sum)
	}
	if err := os.WriteFile(dest+".sha256", []byte(sum), 0o644); err != nil {
		return "", "", errors.Wrap(errors.ErrCodeInternal, err, "failed to write checksum sidecar for %s", dest)
	}
	return dest, sum, nil
}

func checksumError(coord maven.Coordinate, want, got string) error {
	return errors.New(errors.ErrCodeChecksumMismatch,
		"checksum mismatch for %s", coord).
		WithContext("expected "+want, "actual   "+got)
}

// serveCached returns the file's content when its sidecar checksum exists
// and matches. A missing or stale sidecar is a miss; the file will be
// re-downloaded and the sidecar rewritten.
func (c *Cache) serveCached(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	sidecar, err := os.ReadFile(path + ".sha256")
	if err != nil {
		return nil, false
	}
	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != strings.TrimSpace(string(sidecar)) {
		return nil, false
	}
	return data, true
}

// cachedChecksum reports the verified checksum of a cached file without
// loading it into memory twice.
func (c *Cache) cachedChecksum(path string) (string, bool) {
	sidecar, err := os.ReadFile(path + ".sha256")
	if err != nil {
		return "", false
	}
	want := strings.TrimSpace(string(sidecar))
	sum, err := fileSHA256(path)
	if err != nil || sum != want {
		return "", false
	}
	return sum, true
}

// lockArtifact takes the cross-process advisory lock for a coordinate's
// cache directory. The directory is created first so the lock file has a
// home.
func (c *Cache) lockArtifact(coord maven.Coordinate) (func(), error) {
	dir := c.ArtifactDir(coord)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to create cache dir %s", dir)
	}
	fl := flock.New(filepath.Join(dir, ".lock"))
	if err := fl.Lock(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to lock cache dir %s", dir)
	}
	return func() { _ = fl.Unlock() }, nil
}

// download GETs the repository file for a coordinate and extension into
// dest, atomically. Returns found=false on 404. Transient failures (5xx,
// transport errors) retry with exponential backoff; exhausted retries
// surface NETWORK_ERROR.
func (c *Cache) download(ctx context.Context, coord maven.Coordinate, ext, dest string) (bool, error) {
	url := c.baseURL + "/" + coord.RepoPath(ext)

	start := time.Now()
	observability.Cache().OnDownloadStart(ctx, coord.String(), ext)

	var found bool
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		found, err = c.tryDownload(ctx, url, dest)
		return err
	})
	observability.Cache().OnDownloadComplete(ctx, coord.String(), ext, found, time.Since(start), err)

	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, errors.Wrap(errors.ErrCodeNetwork, err, "failed to fetch %s", coord)
	}
	return found, nil
}

func (c *Cache) tryDownload(ctx context.Context, url, dest string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false, &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 500:
		return false, &httputil.RetryableError{Err: fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)}
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
	}

	tmp := dest + "." + uuid.NewString() + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return false, err
	}
	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(f, hasher), resp.Body); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return false, &httputil.RetryableError{Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return false, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}
	sum := hex.EncodeToString(hasher.Sum(nil))
	if err := os.WriteFile(dest+".sha256", []byte(sum), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// fileSHA256 computes the SHA-256 of a file as a lowercase hex string.
func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "failed to read %s for checksum", path)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "failed to hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
