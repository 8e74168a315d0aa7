package maven

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Project is the subset of a POM XML document the resolver cares about.
// Fields the build tool never reads (plugins, profiles, reporting) are not
// modeled; unknown elements are skipped by encoding/xml.
type Project struct {
	XMLName    xml.Name `xml:"project"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
	Version    string   `xml:"version"`
	Packaging  string   `xml:"packaging"`

	Parent       *ParentRef      `xml:"parent"`
	Properties   Properties      `xml:"properties"`
	Dependencies []POMDependency `xml:"dependencies>dependency"`

	DependencyManagement struct {
		Dependencies []POMDependency `xml:"dependencies>dependency"`
	} `xml:"dependencyManagement"`
}

// ParentRef is the <parent> element of a POM.
type ParentRef struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

// Coordinate returns the parent's coordinate.
func (p *ParentRef) Coordinate() Coordinate {
	return Coordinate{Module: Module{Group: p.GroupID, Artifact: p.ArtifactID}, Version: p.Version}
}

// POMDependency is a <dependency> element, either in <dependencies> or
// in <dependencyManagement>.
type POMDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
	Optional   string `xml:"optional"`
	Type       string `xml:"type"`

	Exclusions []POMExclusion `xml:"exclusions>exclusion"`
}

// POMExclusion is an <exclusion> element on a dependency. Maven allows "*"
// wildcards for either part.
type POMExclusion struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

// Properties holds the <properties> section as a flat key-value map.
// A custom unmarshaler is required because property names are element names.
type Properties map[string]string

// UnmarshalXML reads arbitrary child elements into the map.
func (p *Properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if *p == nil {
		*p = make(Properties)
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			(*p)[t.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// ParsePOM parses POM XML bytes into a Project.
func ParsePOM(data []byte) (*Project, error) {
	var proj Project
	if err := xml.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("parse pom: %w", err)
	}
	return &proj, nil
}

// EffectiveGroupID returns the project's group ID, falling back to the
// parent declaration when inherited.
func (p *Project) EffectiveGroupID() string {
	if p.GroupID != "" {
		return p.GroupID
	}
	if p.Parent != nil {
		return p.Parent.GroupID
	}
	return ""
}

// EffectiveVersion returns the project's version, falling back to the
// parent declaration when inherited.
func (p *Project) EffectiveVersion() string {
	if p.Version != "" {
		return p.Version
	}
	if p.Parent != nil {
		return p.Parent.Version
	}
	return ""
}

// Coordinate returns the project's effective coordinate.
func (p *Project) Coordinate() Coordinate {
	return Coordinate{
		Module:  Module{Group: p.EffectiveGroupID(), Artifact: p.ArtifactID},
		Version: p.EffectiveVersion(),
	}
}

const maxInterpolationDepth = 10

// Interpolate substitutes ${property} references in s against props, plus
// the built-in project.* properties of owner. Unresolvable references are
// left in place so callers can detect and skip them. Nested references
// resolve up to a fixed depth to guard against reference cycles.
func Interpolate(s string, props Properties, owner Coordinate) string {
	for range maxInterpolationDepth {
		if !strings.Contains(s, "${") {
			return s
		}
		next := interpolateOnce(s, props, owner)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

func interpolateOnce(s string, props Properties, owner Coordinate) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.Index(s[start:], "}")
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		end += start

		b.WriteString(s[:start])
		key := s[start+2 : end]
		if val, ok := lookupProperty(key, props, owner); ok {
			b.WriteString(val)
		} else {
			b.WriteString(s[start : end+1])
		}
		s = s[end+1:]
	}
}

func lookupProperty(key string, props Properties, owner Coordinate) (string, bool) {
	switch key {
	case "project.groupId", "pom.groupId":
		return owner.Group, owner.Group != ""
	case "project.artifactId", "pom.artifactId":
		return owner.Artifact, owner.Artifact != ""
	case "project.version", "pom.version":
		return owner.Version, owner.Version != ""
	}
	val, ok := props[key]
	return val, ok
}

// MergeParent folds a parent project into child, following Maven
// inheritance rules:
//
//   - properties: child overrides parent
//   - dependencies: accumulate, child entries first
//   - dependencyManagement: compose by (group, artifact), child wins
//
// The child is modified in place.
func MergeParent(child, parent *Project) {
	merged := make(Properties, len(parent.Properties)+len(child.Properties))
	for k, v := range parent.Properties {
		merged[k] = v
	}
	for k, v := range child.Properties {
		merged[k] = v
	}
	child.Properties = merged

	child.Dependencies = append(child.Dependencies, parent.Dependencies...)

	seen := make(map[Module]bool, len(child.DependencyManagement.Dependencies))
	for _, d := range child.DependencyManagement.Dependencies {
		seen[Module{Group: d.GroupID, Artifact: d.ArtifactID}] = true
	}
	for _, d := range parent.DependencyManagement.Dependencies {
		if !seen[Module{Group: d.GroupID, Artifact: d.ArtifactID}] {
			child.DependencyManagement.Dependencies = append(child.DependencyManagement.Dependencies, d)
		}
	}
}

// IsRange reports whether a version string is a Maven version range
// ("[1.0,2.0)", "(,1.5]", "[1.2]") rather than a plain version.
func IsRange(version string) bool {
	return strings.HasPrefix(version, "[") || strings.HasPrefix(version, "(")
}

// ResolveRange picks the highest concrete version mentioned in a version
// range that satisfies the range's bounds. Maven Central POMs use ranges
// rarely; when they do, the bounds themselves are the only concrete
// versions known without fetching the module's version index, so the
// highest satisfying bound is selected. Returns an error when the range
// names no usable concrete version (e.g., "(,2.0)" with an exclusive,
// versionless lower bound).
func ResolveRange(rang string) (string, error) {
	inner := strings.TrimSpace(rang)
	if len(inner) < 2 {
		return "", fmt.Errorf("malformed version range %q", rang)
	}
	lo, hi := inner[0], inner[len(inner)-1]
	if (lo != '[' && lo != '(') || (hi != ']' && hi != ')') {
		return "", fmt.Errorf("malformed version range %q", rang)
	}
	parts := strings.Split(inner[1:len(inner)-1], ",")

	// Exact pin: "[1.2]".
	if len(parts) == 1 {
		v := strings.TrimSpace(parts[0])
		if v == "" || lo != '[' || hi != ']' {
			return "", fmt.Errorf("no concrete version satisfies range %q", rang)
		}
		return v, nil
	}

	lower := strings.TrimSpace(parts[0])
	upper := strings.TrimSpace(parts[len(parts)-1])

	// Prefer the inclusive upper bound, then the inclusive lower bound.
	if upper != "" && hi == ']' {
		return upper, nil
	}
	if lower != "" && lo == '[' {
		return lower, nil
	}
	return "", fmt.Errorf("no concrete version satisfies range %q", rang)
}
