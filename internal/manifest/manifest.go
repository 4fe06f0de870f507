// Package manifest describes one transcoding job: which init sequence to
// read, where to write the result and where each placeholder's payload comes
// from.
//
// A manifest is a single YAML (.yaml, .yml), TOML (.toml) or JSON with
// comments (.json, .jsonc) file. Relative paths inside it are resolved
// against the manifest's own directory.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedFormat indicates a manifest file extension with no decoder.
	ErrUnsupportedFormat = errors.New("manifest: unsupported file format")

	// ErrInvalid indicates a manifest that decoded but fails validation.
	ErrInvalid = errors.New("manifest: invalid")
)

// Manifest is the decoded manifest file.
type Manifest struct {
	// Input is the init sequence to transcode.
	Input string `yaml:"input" toml:"input" json:"input"`

	// Output is where the emitted sequence is written.
	Output string `yaml:"output" toml:"output" json:"output"`

	// RejectLegacy fails parsing on legacy-binary records.
	RejectLegacy bool `yaml:"reject_legacy" toml:"reject_legacy" json:"reject_legacy"`

	// MaxBodyLen bounds every record body; zero means unbounded.
	MaxBodyLen uint32 `yaml:"max_body_len" toml:"max_body_len" json:"max_body_len"`

	// Payloads lists one source per placeholder.
	Payloads []Payload `yaml:"payloads" toml:"payloads" json:"payloads"`

	// dir is the manifest's directory, used to resolve relative paths.
	dir string
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	m := &Manifest{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(m); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".toml":
		meta, err := toml.Decode(string(data), m)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: %s: unknown key %q", ErrInvalid, path, undecoded[0].String())
		}
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(m); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	m.dir = filepath.Dir(path)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the manifest for missing or conflicting fields.
// Input and Output may be empty; the command line can supply them.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Payloads))
	for i := range m.Payloads {
		p := &m.Payloads[i]
		if p.Name == "" {
			return fmt.Errorf("%w: payloads[%d]: name is required", ErrInvalid, i)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: payloads[%d]: duplicate name %q", ErrInvalid, i, p.Name)
		}
		seen[p.Name] = true
		if p.File == "" {
			return fmt.Errorf("%w: payload %q: file is required", ErrInvalid, p.Name)
		}
		if err := p.Format.validate(); err != nil {
			return fmt.Errorf("%w: payload %q: %v", ErrInvalid, p.Name, err)
		}
		if err := p.Compression.validate(); err != nil {
			return fmt.Errorf("%w: payload %q: %v", ErrInvalid, p.Name, err)
		}
	}
	return nil
}

// Resolve returns path relative to the manifest's directory. Absolute paths
// and paths of a manifest built in code are returned unchanged.
func (m *Manifest) Resolve(path string) string {
	if path == "" || path == "-" || filepath.IsAbs(path) || m.dir == "" {
		return path
	}
	return filepath.Join(m.dir, path)
}
