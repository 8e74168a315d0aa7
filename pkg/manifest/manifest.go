// Package manifest models the Jargo.toml project manifest.
//
// A manifest has a required [package] section, optional [dependencies] and
// [dev-dependencies] tables, an optional [run] section with JVM arguments,
// and an optional [format] section for the formatter. Dependency entries
// come in two forms:
//
//	"org.apache.commons:commons-lang3" = "3.14.0"
//	"org.postgresql:postgresql" = { version = "42.7.1", scope = "runtime" }
//
// Parsing normalizes both into [Dependency] values sorted by (group,
// artifact) so that downstream consumers see a deterministic order
// regardless of TOML table iteration.
package manifest

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jargo-build/jargo/pkg/errors"
	"github.com/jargo-build/jargo/pkg/maven"
)

// FileName is the manifest file name in a project root.
const FileName = "Jargo.toml"

// Project types.
const (
	TypeApp = "app"
	TypeLib = "lib"
)

// Dependency scopes accepted in the user manifest. Upstream metadata knows
// more scopes (test, provided, import); those never appear here.
const (
	ScopeCompile = "compile"
	ScopeRuntime = "runtime"
)

// Dependency is a normalized dependency declaration.
type Dependency struct {
	maven.Module
	Version string
	Scope   string // compile or runtime; dev-dependencies are always test scope
	Expose  bool   // lib projects only: propagate to consumers' compile classpath
}

// Coordinate returns the declaration's full coordinate.
func (d Dependency) Coordinate() maven.Coordinate {
	return maven.Coordinate{Module: d.Module, Version: d.Version}
}

// Package is the [package] section.
type Package struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Type        string `toml:"type,omitempty"`
	Java        string `toml:"java"`
	BasePackage string `toml:"base-package,omitempty"`
	MainClass   string `toml:"main-class,omitempty"`
}

// RunConfig is the [run] section.
type RunConfig struct {
	JVMArgs []string `toml:"jvm-args,omitempty"`
}

// FormatConfig is the [format] section.
type FormatConfig struct {
	Indent int `toml:"indent,omitempty"`
}

// DefaultIndent is the formatter indent when [format] is absent.
const DefaultIndent = 4

// Manifest is a parsed, validated Jargo.toml.
type Manifest struct {
	Package Package
	Run     RunConfig
	Format  FormatConfig

	deps    []Dependency
	devDeps []Dependency
}

// rawManifest mirrors the TOML document before normalization.
type rawManifest struct {
	Package         Package             `toml:"package"`
	Run             RunConfig           `toml:"run"`
	Format          FormatConfig        `toml:"format"`
	Dependencies    map[string]depValue `toml:"dependencies"`
	DevDependencies map[string]depValue `toml:"dev-dependencies"`
}

// depValue accepts both the simple string form and the expanded table form
// of a dependency entry.
type depValue struct {
	Version string
	Scope   string
	Expose  bool
}

// UnmarshalTOML implements toml.Unmarshaler for the two entry forms.
func (v *depValue) UnmarshalTOML(data any) error {
	switch t := data.(type) {
	case string:
		v.Version = t
		return nil
	case map[string]any:
		version, ok := t["version"].(string)
		if !ok || version == "" {
			return fmt.Errorf("dependency table requires a `version` string")
		}
		v.Version = version
		if scope, ok := t["scope"]; ok {
			s, ok := scope.(string)
			if !ok {
				return fmt.Errorf("`scope` must be a string")
			}
			v.Scope = s
		}
		if expose, ok := t["expose"]; ok {
			b, ok := expose.(bool)
			if !ok {
				return fmt.Errorf("`expose` must be a boolean")
			}
			v.Expose = b
		}
		return nil
	default:
		return fmt.Errorf("dependency value must be a version string or a table")
	}
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeManifestNotFound, "%s not found in current directory", FileName)
		}
		return nil, errors.Wrap(errors.ErrCodeManifestParse, err, "failed to read %s", path)
	}
	return Parse(data)
}

// Parse parses manifest TOML bytes, validates required fields, and
// normalizes the dependency tables.
func Parse(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifestParse, err, "failed to parse %s", FileName)
	}

	m := &Manifest{Package: raw.Package, Run: raw.Run, Format: raw.Format}
	if err := m.validate(); err != nil {
		return nil, err
	}

	var err error
	if m.deps, err = normalizeDeps(raw.Dependencies); err != nil {
		return nil, err
	}
	if m.devDeps, err = normalizeDeps(raw.DevDependencies); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) validate() error {
	p := &m.Package
	switch {
	case p.Name == "":
		return errors.New(errors.ErrCodeManifestField, "[package] is missing required field `name`")
	case p.Version == "":
		return errors.New(errors.ErrCodeManifestField, "[package] is missing required field `version`")
	case p.Java == "":
		return errors.New(errors.ErrCodeManifestField, "[package] is missing required field `java`")
	}
	if p.Type == "" {
		p.Type = TypeApp
	}
	if p.Type != TypeApp && p.Type != TypeLib {
		return errors.New(errors.ErrCodeManifestField, "invalid project type %q: expected %q or %q", p.Type, TypeApp, TypeLib)
	}
	if m.Format.Indent == 0 {
		m.Format.Indent = DefaultIndent
	}
	return nil
}

func normalizeDeps(raw map[string]depValue) ([]Dependency, error) {
	deps := make([]Dependency, 0, len(raw))
	for coord, v := range raw {
		mod, err := maven.ParseModule(coord)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeManifestParse, err, "invalid dependency key %q", coord)
		}
		scope := v.Scope
		switch scope {
		case "":
			scope = ScopeCompile
		case ScopeCompile, ScopeRuntime:
		default:
			return nil, errors.New(errors.ErrCodeManifestParse, "unknown scope %q for %q: expected %q or %q", scope, coord, ScopeCompile, ScopeRuntime)
		}
		deps = append(deps, Dependency{Module: mod, Version: v.Version, Scope: scope, Expose: v.Expose})
	}
	// TOML table iteration order is unspecified; sort for determinism.
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Group != deps[j].Group {
			return deps[i].Group < deps[j].Group
		}
		return deps[i].Artifact < deps[j].Artifact
	})
	return deps, nil
}

// Dependencies returns the normalized [dependencies] entries, sorted by
// (group, artifact).
func (m *Manifest) Dependencies() []Dependency {
	return m.deps
}

// DevDependencies returns the normalized [dev-dependencies] entries.
func (m *Manifest) DevDependencies() []Dependency {
	return m.devDeps
}

// IsApp reports whether the project type is "app".
func (m *Manifest) IsApp() bool {
	return m.Package.Type == TypeApp
}

// BasePackage returns the configured base package, deriving it from the
// project name (hyphens stripped) when unset.
func (m *Manifest) BasePackage() string {
	if m.Package.BasePackage != "" {
		return m.Package.BasePackage
	}
	return DeriveBasePackage(m.Package.Name)
}

// MainClass returns the configured main class, defaulting to "Main".
func (m *Manifest) MainClass() string {
	if m.Package.MainClass != "" {
		return m.Package.MainClass
	}
	return "Main"
}

// MainClassFQN returns the fully qualified main class name.
func (m *Manifest) MainClassFQN() string {
	return m.BasePackage() + "." + m.MainClass()
}

// DeriveBasePackage derives a Java package name from a project name by
// stripping hyphens: "my-app" becomes "myapp".
func DeriveBasePackage(name string) string {
	return strings.ReplaceAll(name, "-", "")
}

// ValidateName checks a project name: non-empty, starts with a letter,
// only lowercase ASCII letters, digits, and hyphens, no trailing hyphen.
func ValidateName(name string) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidName, "invalid project name %q: name cannot be empty", name)
	}
	first := name[0]
	if first < 'a' || first > 'z' {
		return errors.New(errors.ErrCodeInvalidName, "invalid project name %q: must start with a lowercase letter", name)
	}
	for i := range len(name) {
		c := name[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return errors.New(errors.ErrCodeInvalidName, "invalid project name %q: must contain only lowercase letters, digits, and hyphens", name)
		}
	}
	if strings.HasSuffix(name, "-") {
		return errors.New(errors.ErrCodeInvalidName, "invalid project name %q: must not end with a hyphen", name)
	}
	return nil
}

// NewApp creates a manifest for a fresh application project.
func NewApp(name string) *Manifest {
	return &Manifest{
		Package: Package{Name: name, Version: "0.1.0", Type: TypeApp, Java: "21"},
		Format:  FormatConfig{Indent: DefaultIndent},
	}
}

// NewLib creates a manifest for a fresh library project with an explicit
// base package.
func NewLib(name, basePackage string) *Manifest {
	return &Manifest{
		Package: Package{Name: name, Version: "0.1.0", Type: TypeLib, Java: "21", BasePackage: basePackage},
		Format:  FormatConfig{Indent: DefaultIndent},
	}
}

// AddDependency inserts or replaces a [dependencies] entry.
func (m *Manifest) AddDependency(dep Dependency) {
	m.deps = upsertDep(m.deps, dep)
}

// AddDevDependency inserts or replaces a [dev-dependencies] entry.
func (m *Manifest) AddDevDependency(dep Dependency) {
	m.devDeps = upsertDep(m.devDeps, dep)
}

func upsertDep(deps []Dependency, dep Dependency) []Dependency {
	for i, d := range deps {
		if d.Module == dep.Module {
			deps[i] = dep
			return deps
		}
	}
	deps = append(deps, dep)
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Group != deps[j].Group {
			return deps[i].Group < deps[j].Group
		}
		return deps[i].Artifact < deps[j].Artifact
	})
	return deps
}

// Encode serializes the manifest back to TOML. The output is normalized:
// sections in a fixed order, dependency entries sorted, simple string form
// for plain compile-scope entries and inline tables otherwise. Parsing the
// output yields an identical manifest (round-trip identity on recognized
// fields).
func (m *Manifest) Encode() ([]byte, error) {
	var b strings.Builder

	b.WriteString("[package]\n")
	enc := toml.NewEncoder(&b)
	enc.Indent = ""
	if err := enc.Encode(m.Package); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to serialize %s", FileName)
	}

	if len(m.Run.JVMArgs) > 0 {
		b.WriteString("\n[run]\n")
		enc := toml.NewEncoder(&b)
		enc.Indent = ""
		if err := enc.Encode(m.Run); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to serialize %s", FileName)
		}
	}

	if m.Format.Indent != DefaultIndent {
		fmt.Fprintf(&b, "\n[format]\nindent = %d\n", m.Format.Indent)
	}

	writeDepSection(&b, "dependencies", m.deps)
	writeDepSection(&b, "dev-dependencies", m.devDeps)

	return []byte(b.String()), nil
}

func writeDepSection(b *strings.Builder, section string, deps []Dependency) {
	if len(deps) == 0 {
		return
	}
	fmt.Fprintf(b, "\n[%s]\n", section)
	for _, d := range deps {
		if d.Scope == ScopeCompile && !d.Expose {
			fmt.Fprintf(b, "%q = %q\n", d.Module.String(), d.Version)
			continue
		}
		fmt.Fprintf(b, "%q = { version = %q", d.Module.String(), d.Version)
		if d.Scope != ScopeCompile {
			fmt.Fprintf(b, ", scope = %q", d.Scope)
		}
		if d.Expose {
			b.WriteString(", expose = true")
		}
		b.WriteString(" }\n")
	}
}

// Save writes the encoded manifest to path.
func (m *Manifest) Save(path string) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write %s", path)
	}
	return nil
}
