package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format selects how Render encodes a snapshot.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat accepts a format name, case-insensitive. "yml" is an alias of yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt", "md":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrInvalidInput, s)
	}
}

// BlockSnapshot is the plain record of a block.
type BlockSnapshot struct {
	Content          string            `json:"content" yaml:"content" toml:"content"`
	IndentationLevel int               `json:"indentation_level" yaml:"indentation_level" toml:"indentation_level"`
	WorkflowState    *State            `json:"workflow_state" yaml:"workflow_state" toml:"workflow_state,omitempty"`
	Properties       map[string]string `json:"properties" yaml:"properties" toml:"properties"`
	Identifier       string            `json:"identifier" yaml:"identifier" toml:"identifier"`
}

// PageSnapshot is the plain record of a page.
type PageSnapshot struct {
	Content    string            `json:"content" yaml:"content" toml:"content"`
	Properties map[string]string `json:"page_properties" yaml:"page_properties" toml:"page_properties"`
	Blocks     []BlockSnapshot   `json:"blocks" yaml:"blocks" toml:"blocks"`
}

// Snapshot returns the derived view of the block. A block without a
// workflow keyword has a nil WorkflowState.
func (b *Block) Snapshot() BlockSnapshot {
	s := BlockSnapshot{
		Content:          b.content,
		IndentationLevel: b.rec.indent,
		Properties:       b.Properties(),
		Identifier:       b.Identifier(),
	}
	if b.rec.state != StateNone {
		st := b.rec.state
		s.WorkflowState = &st
	}
	return s
}

// Render encodes the block snapshot. FormatText returns the content.
func (b *Block) Render(f Format) ([]byte, error) {
	if f == FormatText {
		return []byte(tabify(b.content)), nil
	}
	return encode(f, b.Snapshot())
}

// Snapshot returns the page properties and the snapshot of every block.
func (p *Page) Snapshot() PageSnapshot {
	s := PageSnapshot{
		Content:    p.Content(),
		Properties: make(map[string]string, len(p.Properties)),
		Blocks:     make([]BlockSnapshot, 0, len(p.Blocks)),
	}
	for k, v := range p.Properties {
		s.Properties[k] = v
	}
	for _, b := range p.Blocks {
		s.Blocks = append(s.Blocks, b.Snapshot())
	}
	return s
}

// Render encodes the page snapshot. FormatText returns Text.
func (p *Page) Render(f Format) ([]byte, error) {
	if f == FormatText {
		return []byte(p.Text()), nil
	}
	return encode(f, p.Snapshot())
}

func encode(f Format, v any) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(v); err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: cannot render format %q", ErrInvalidInput, f)
	}
	return buf.Bytes(), nil
}
