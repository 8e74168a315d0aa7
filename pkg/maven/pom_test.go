package maven

import (
	"context"
	"fmt"
	"testing"
)

const simplePOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <groupId>com.example</groupId>
  <artifactId>widget</artifactId>
  <version>1.2.3</version>
  <dependencies>
    <dependency>
      <groupId>org.apache.commons</groupId>
      <artifactId>commons-lang3</artifactId>
      <version>3.14.0</version>
    </dependency>
    <dependency>
      <groupId>org.junit.jupiter</groupId>
      <artifactId>junit-jupiter</artifactId>
      <version>5.10.2</version>
      <scope>test</scope>
    </dependency>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>optional-extra</artifactId>
      <version>1.0</version>
      <optional>true</optional>
    </dependency>
  </dependencies>
</project>`

func TestParsePOM(t *testing.T) {
	proj, err := ParsePOM([]byte(simplePOM))
	if err != nil {
		t.Fatalf("ParsePOM error: %v", err)
	}
	if got := proj.Coordinate().String(); got != "com.example:widget:1.2.3" {
		t.Errorf("Coordinate = %q", got)
	}
	if len(proj.Dependencies) != 3 {
		t.Fatalf("Dependencies = %d, want 3", len(proj.Dependencies))
	}
	if proj.Dependencies[1].Scope != "test" {
		t.Errorf("scope = %q, want test", proj.Dependencies[1].Scope)
	}
	if proj.Dependencies[2].Optional != "true" {
		t.Errorf("optional = %q, want true", proj.Dependencies[2].Optional)
	}
}

func TestParsePOMMalformed(t *testing.T) {
	if _, err := ParsePOM([]byte("<project><groupId>unclosed")); err == nil {
		t.Error("malformed XML should fail")
	}
}

func TestEffectiveCoordinateFromParent(t *testing.T) {
	pom := `<project>
  <parent>
    <groupId>com.example</groupId>
    <artifactId>parent</artifactId>
    <version>2.0</version>
  </parent>
  <artifactId>child</artifactId>
</project>`
	proj, err := ParsePOM([]byte(pom))
	if err != nil {
		t.Fatalf("ParsePOM error: %v", err)
	}
	c := proj.Coordinate()
	if c.Group != "com.example" || c.Version != "2.0" {
		t.Errorf("inherited coordinate = %+v", c)
	}
}

func TestInterpolate(t *testing.T) {
	props := Properties{
		"guava.version": "33.0.0-jre",
		"indirect":      "${guava.version}",
	}
	owner := Coordinate{Module: Module{Group: "com.example", Artifact: "widget"}, Version: "1.2.3"}

	tests := []struct{ in, want string }{
		{"${guava.version}", "33.0.0-jre"},
		{"${indirect}", "33.0.0-jre"},
		{"${project.version}", "1.2.3"},
		{"${project.groupId}", "com.example"},
		{"${pom.artifactId}", "widget"},
		{"prefix-${guava.version}", "prefix-33.0.0-jre"},
		{"${unknown.prop}", "${unknown.prop}"},
		{"no placeholders", "no placeholders"},
	}
	for _, tt := range tests {
		if got := Interpolate(tt.in, props, owner); got != tt.want {
			t.Errorf("Interpolate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInterpolateCycle(t *testing.T) {
	props := Properties{"a": "${b}", "b": "${a}"}
	// Must terminate; the unresolved reference stays in place.
	got := Interpolate("${a}", props, Coordinate{})
	if got != "${a}" && got != "${b}" {
		t.Errorf("cyclic interpolation = %q", got)
	}
}

func TestMergeParent(t *testing.T) {
	child, _ := ParsePOM([]byte(`<project>
  <groupId>g</groupId><artifactId>child</artifactId><version>1</version>
  <properties><shared>child-wins</shared><child.only>c</child.only></properties>
  <dependencies>
    <dependency><groupId>g</groupId><artifactId>from-child</artifactId><version>1</version></dependency>
  </dependencies>
  <dependencyManagement><dependencies>
    <dependency><groupId>g</groupId><artifactId>managed</artifactId><version>9</version></dependency>
  </dependencies></dependencyManagement>
</project>`))
	parent, _ := ParsePOM([]byte(`<project>
  <groupId>g</groupId><artifactId>parent</artifactId><version>1</version>
  <properties><shared>parent-loses</shared><parent.only>p</parent.only></properties>
  <dependencies>
    <dependency><groupId>g</groupId><artifactId>from-parent</artifactId><version>1</version></dependency>
  </dependencies>
  <dependencyManagement><dependencies>
    <dependency><groupId>g</groupId><artifactId>managed</artifactId><version>1</version></dependency>
    <dependency><groupId>g</groupId><artifactId>parent-managed</artifactId><version>2</version></dependency>
  </dependencies></dependencyManagement>
</project>`))

	MergeParent(child, parent)

	if child.Properties["shared"] != "child-wins" {
		t.Errorf("shared property = %q", child.Properties["shared"])
	}
	if child.Properties["parent.only"] != "p" {
		t.Error("parent-only property should be inherited")
	}
	if len(child.Dependencies) != 2 {
		t.Errorf("dependencies = %d, want 2", len(child.Dependencies))
	}

	mgmt := map[string]string{}
	for _, d := range child.DependencyManagement.Dependencies {
		mgmt[d.ArtifactID] = d.Version
	}
	if mgmt["managed"] != "9" {
		t.Errorf("child management entry should win, got %q", mgmt["managed"])
	}
	if mgmt["parent-managed"] != "2" {
		t.Error("parent-only management entry should be inherited")
	}
}

func TestResolveRange(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"[1.2]", "1.2", false},
		{"[1.0,2.0]", "2.0", false},
		{"[1.0,2.0)", "1.0", false},
		{"(,1.5]", "1.5", false},
		{"(,2.0)", "", true},
		{"(1.0,)", "", true},
		{"[1.0,)", "1.0", false},
		{"[]", "", true},
		{"nonsense", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ResolveRange(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ResolveRange(%q) should fail, got %q", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveRange(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ResolveRange(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// fakeFetcher serves parent and BOM POMs from an in-memory map.
func fakeFetcher(poms map[string]string) POMFetcher {
	return func(_ context.Context, coord Coordinate) (*Project, error) {
		raw, ok := poms[coord.String()]
		if !ok {
			return nil, fmt.Errorf("not found: %s", coord)
		}
		return ParsePOM([]byte(raw))
	}
}

func TestEffectivePOMParentChain(t *testing.T) {
	// Mirrors the guava/guava-parent/failureaccess shape: the child
	// declares a dependency whose version is a property defined through
	// the parent, referencing ${project.version}.
	child, _ := ParsePOM([]byte(`<project>
  <parent>
    <groupId>com.google.guava</groupId>
    <artifactId>guava-parent</artifactId>
    <version>33.0.0-jre</version>
  </parent>
  <artifactId>guava</artifactId>
  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>failureaccess</artifactId>
      <version>${failureaccess.version}</version>
    </dependency>
  </dependencies>
</project>`))

	fetch := fakeFetcher(map[string]string{
		"com.google.guava:guava-parent:33.0.0-jre": `<project>
  <groupId>com.google.guava</groupId>
  <artifactId>guava-parent</artifactId>
  <version>33.0.0-jre</version>
  <properties><failureaccess.version>1.0.2</failureaccess.version></properties>
</project>`,
	})

	meta, err := EffectivePOM(context.Background(), child, fetch)
	if err != nil {
		t.Fatalf("EffectivePOM error: %v", err)
	}
	if got := meta.Coordinate.String(); got != "com.google.guava:guava:33.0.0-jre" {
		t.Errorf("coordinate = %q", got)
	}
	if len(meta.Dependencies) != 1 {
		t.Fatalf("dependencies = %d, want 1", len(meta.Dependencies))
	}
	dep := meta.Dependencies[0]
	if dep.Artifact != "failureaccess" || dep.Version != "1.0.2" {
		t.Errorf("dep = %+v, want failureaccess 1.0.2", dep)
	}
}

func TestEffectivePOMMissingParent(t *testing.T) {
	child, _ := ParsePOM([]byte(`<project>
  <parent><groupId>g</groupId><artifactId>p</artifactId><version>1</version></parent>
  <artifactId>orphan</artifactId>
</project>`))

	_, err := EffectivePOM(context.Background(), child, fakeFetcher(nil))
	if err == nil {
		t.Fatal("missing parent should fail")
	}
}

func TestEffectivePOMManagedVersion(t *testing.T) {
	proj, _ := ParsePOM([]byte(`<project>
  <groupId>g</groupId><artifactId>a</artifactId><version>1</version>
  <dependencyManagement><dependencies>
    <dependency><groupId>org.slf4j</groupId><artifactId>slf4j-api</artifactId><version>2.0.12</version></dependency>
  </dependencies></dependencyManagement>
  <dependencies>
    <dependency><groupId>org.slf4j</groupId><artifactId>slf4j-api</artifactId></dependency>
  </dependencies>
</project>`))

	meta, err := EffectivePOM(context.Background(), proj, fakeFetcher(nil))
	if err != nil {
		t.Fatalf("EffectivePOM error: %v", err)
	}
	if len(meta.Dependencies) != 1 || meta.Dependencies[0].Version != "2.0.12" {
		t.Fatalf("managed version not applied: %+v", meta.Dependencies)
	}
}

func TestEffectivePOMBOMImport(t *testing.T) {
	proj, _ := ParsePOM([]byte(`<project>
  <groupId>g</groupId><artifactId>a</artifactId><version>1</version>
  <dependencyManagement><dependencies>
    <dependency>
      <groupId>com.fasterxml.jackson</groupId><artifactId>jackson-bom</artifactId>
      <version>2.17.0</version><type>pom</type><scope>import</scope>
    </dependency>
  </dependencies></dependencyManagement>
  <dependencies>
    <dependency><groupId>com.fasterxml.jackson.core</groupId><artifactId>jackson-databind</artifactId></dependency>
  </dependencies>
</project>`))

	fetch := fakeFetcher(map[string]string{
		"com.fasterxml.jackson:jackson-bom:2.17.0": `<project>
  <groupId>com.fasterxml.jackson</groupId><artifactId>jackson-bom</artifactId><version>2.17.0</version>
  <dependencyManagement><dependencies>
    <dependency><groupId>com.fasterxml.jackson.core</groupId><artifactId>jackson-databind</artifactId><version>2.17.0</version></dependency>
  </dependencies></dependencyManagement>
</project>`,
	})

	meta, err := EffectivePOM(context.Background(), proj, fetch)
	if err != nil {
		t.Fatalf("EffectivePOM error: %v", err)
	}
	if len(meta.Dependencies) != 1 || meta.Dependencies[0].Version != "2.17.0" {
		t.Fatalf("BOM-managed version not applied: %+v", meta.Dependencies)
	}
}

func TestEffectivePOMExclusions(t *testing.T) {
	proj, _ := ParsePOM([]byte(`<project>
  <groupId>g</groupId><artifactId>a</artifactId><version>1</version>
  <dependencies>
    <dependency>
      <groupId>org.apache.hadoop</groupId><artifactId>hadoop-common</artifactId><version>3.4.0</version>
      <exclusions>
        <exclusion><groupId>log4j</groupId><artifactId>log4j</artifactId></exclusion>
        <exclusion><groupId>*</groupId><artifactId>*</artifactId></exclusion>
      </exclusions>
    </dependency>
  </dependencies>
</project>`))

	meta, err := EffectivePOM(context.Background(), proj, fakeFetcher(nil))
	if err != nil {
		t.Fatalf("EffectivePOM error: %v", err)
	}
	if len(meta.Dependencies) != 1 {
		t.Fatal("expected one dependency")
	}
	ex := meta.Dependencies[0].Exclusions
	if len(ex) != 2 || ex[0].Group != "log4j" || ex[1].Group != "*" {
		t.Errorf("exclusions = %+v", ex)
	}
}
