// Package registry provides the Maven Central search API client used by
// `jargo add` to discover the latest version of a module.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/httputil"
	"github.com/jargo-build/jargo/pkg/maven"
)

// DefaultSearchURL is the Maven Central Solr search endpoint.
const DefaultSearchURL = "https://search.maven.org/solrsearch/select"

// SearchClient queries the Maven Central search API.
// Safe for concurrent use.
type SearchClient struct {
	baseURL string
	client  *http.Client
}

// NewSearchClient creates a client against the default endpoint.
func NewSearchClient() *SearchClient {
	return &SearchClient{
		baseURL: DefaultSearchURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// SetBaseURL overrides the endpoint. Used by tests.
func (c *SearchClient) SetBaseURL(url string) { c.baseURL = url }

type searchResponse struct {
	Response struct {
		NumFound int `json:"numFound"`
		Docs     []struct {
			GroupID       string `json:"g"`
			ArtifactID    string `json:"a"`
			Version       string `json:"v"`
			LatestVersion string `json:"latestVersion"`
		} `json:"docs"`
	} `json:"response"`
}

// LatestVersion returns the newest published version of a module.
// A module unknown to the index surfaces ARTIFACT_NOT_FOUND.
func (c *SearchClient) LatestVersion(ctx context.Context, mod maven.Module) (string, error) {
	query := fmt.Sprintf("g:%q AND a:%q", mod.Group, mod.Artifact)
	endpoint := fmt.Sprintf("%s?q=%s&rows=1&wt=json", c.baseURL, url.QueryEscape(query))

	var resp searchResponse
	err := httputil.RetryWithBackoff(ctx, func() error {
		return c.get(ctx, endpoint, &resp)
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "Maven Central search failed for %s", mod)
	}

	if resp.Response.NumFound == 0 || len(resp.Response.Docs) == 0 {
		return "", errors.New(errors.ErrCodeArtifactNotFound, "no artifact named %s on Maven Central", mod)
	}
	doc := resp.Response.Docs[0]
	if doc.LatestVersion != "" {
		return doc.LatestVersion, nil
	}
	return doc.Version, nil
}

func (c *SearchClient) get(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &httputil.RetryableError{Err: fmt.Errorf("HTTP %d from search API", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from search API", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &httputil.RetryableError{Err: err}
	}
	return json.Unmarshal(data, v)
}
