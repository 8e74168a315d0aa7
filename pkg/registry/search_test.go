package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/maven"
)

func TestLatestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			t.Errorf("missing q parameter")
		}
		fmt.Fprint(w, `{"response":{"numFound":1,"docs":[{"g":"org.apache.commons","a":"commons-lang3","latestVersion":"3.14.0"}]}}`)
	}))
	defer srv.Close()

	c := NewSearchClient()
	c.SetBaseURL(srv.URL)

	v, err := c.LatestVersion(context.Background(), maven.Module{Group: "org.apache.commons", Artifact: "commons-lang3"})
	if err != nil {
		t.Fatalf("LatestVersion error: %v", err)
	}
	if v != "3.14.0" {
		t.Errorf("version = %q, want 3.14.0", v)
	}
}

func TestLatestVersionFallsBackToV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":{"numFound":1,"docs":[{"g":"g","a":"a","v":"1.2.3"}]}}`)
	}))
	defer srv.Close()

	c := NewSearchClient()
	c.SetBaseURL(srv.URL)

	v, err := c.LatestVersion(context.Background(), maven.Module{Group: "g", Artifact: "a"})
	if err != nil {
		t.Fatalf("LatestVersion error: %v", err)
	}
	if v != "1.2.3" {
		t.Errorf("version = %q", v)
	}
}

func TestLatestVersionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":{"numFound":0,"docs":[]}}`)
	}))
	defer srv.Close()

	c := NewSearchClient()
	c.SetBaseURL(srv.URL)

	_, err := c.LatestVersion(context.Background(), maven.Module{Group: "no", Artifact: "such"})
	if !errors.Is(err, errors.ErrCodeArtifactNotFound) {
		t.Errorf("err = %v, want ARTIFACT_NOT_FOUND", err)
	}
}

func TestLatestVersionServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewSearchClient()
	c.SetBaseURL(srv.URL)

	_, err := c.LatestVersion(context.Background(), maven.Module{Group: "g", Artifact: "a"})
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("err = %v, want NETWORK_ERROR after retries", err)
	}
}
