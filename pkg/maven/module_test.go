package maven

import "testing"

const guavaModule = `{
  "formatVersion": "1.1",
  "component": {
    "group": "com.google.guava",
    "module": "guava",
    "version": "33.0.0-jre"
  },
  "variants": [
    {
      "name": "jreApiElements",
      "attributes": {"org.gradle.usage": "java-api"},
      "dependencies": [
        {"group": "com.google.guava", "module": "failureaccess", "version": {"requires": "1.0.2"}},
        {"group": "com.google.code.findbugs", "module": "jsr305", "version": {"requires": "3.0.2"}}
      ]
    },
    {
      "name": "jreRuntimeElements",
      "attributes": {"org.gradle.usage": "java-runtime"},
      "dependencies": [
        {"group": "com.google.guava", "module": "failureaccess", "version": {"requires": "1.0.2"}},
        {"group": "com.google.code.findbugs", "module": "jsr305", "version": {"requires": "3.0.2"}},
        {"group": "org.checkerframework", "module": "checker-qual", "version": {"requires": "3.41.0"}}
      ]
    }
  ]
}`

func TestParseGradleModule(t *testing.T) {
	gm, err := ParseGradleModule([]byte(guavaModule))
	if err != nil {
		t.Fatalf("ParseGradleModule error: %v", err)
	}
	if gm.Component.Group != "com.google.guava" || gm.Component.Version != "33.0.0-jre" {
		t.Errorf("component = %+v", gm.Component)
	}
	if len(gm.Variants) != 2 {
		t.Errorf("variants = %d, want 2", len(gm.Variants))
	}
}

func TestParseGradleModuleBadFormat(t *testing.T) {
	if _, err := ParseGradleModule([]byte(`{"formatVersion": "9.0"}`)); err == nil {
		t.Error("unsupported format version should fail")
	}
	if _, err := ParseGradleModule([]byte(`not json`)); err == nil {
		t.Error("malformed JSON should fail")
	}
}

func TestGradleModuleMetadata(t *testing.T) {
	gm, err := ParseGradleModule([]byte(guavaModule))
	if err != nil {
		t.Fatalf("ParseGradleModule error: %v", err)
	}
	meta := gm.Metadata()

	if got := meta.Coordinate.String(); got != "com.google.guava:guava:33.0.0-jre" {
		t.Errorf("coordinate = %q", got)
	}

	scopes := map[string]string{}
	for _, d := range meta.Dependencies {
		scopes[d.Artifact] = d.Scope
	}
	if scopes["failureaccess"] != ScopeCompile {
		t.Errorf("failureaccess scope = %q, want compile (api variant)", scopes["failureaccess"])
	}
	if scopes["jsr305"] != ScopeCompile {
		t.Errorf("jsr305 scope = %q, want compile", scopes["jsr305"])
	}
	if scopes["checker-qual"] != ScopeRuntime {
		t.Errorf("checker-qual scope = %q, want runtime (runtime-only)", scopes["checker-qual"])
	}
	if len(meta.Dependencies) != 3 {
		t.Errorf("dependencies = %d, want 3 (deduplicated)", len(meta.Dependencies))
	}
}

func TestGradleModuleStrictVersion(t *testing.T) {
	gm, err := ParseGradleModule([]byte(`{
  "formatVersion": "1.1",
  "component": {"group": "g", "module": "m", "version": "1"},
  "variants": [{
    "name": "apiElements",
    "attributes": {"org.gradle.usage": "java-api"},
    "dependencies": [
      {"group": "g", "module": "dep", "version": {"requires": "1.0", "strictly": "1.1"}}
    ]
  }]
}`))
	if err != nil {
		t.Fatalf("ParseGradleModule error: %v", err)
	}
	meta := gm.Metadata()
	if len(meta.Dependencies) != 1 || meta.Dependencies[0].Version != "1.1" {
		t.Errorf("strict version should win: %+v", meta.Dependencies)
	}
}
