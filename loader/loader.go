// Package loader decodes configuration and resource declaration files.
//
// Every supported format is converted to JSON first and then decoded into
// the target with unknown fields rejected, so one set of json struct tags
// describes the shape for all formats.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is a supported file format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
)

var (
	// ErrUnsupportedFormat indicates a file extension with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrParse indicates malformed input.
	ErrParse = errors.New("parse error")

	// ErrShape indicates input that does not match the target structure.
	ErrShape = errors.New("invalid document shape")
)

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonc":
		return FormatJSONC, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Decode converts data in the given format into target.
func Decode(data []byte, format Format, target any) error {
	jsonData, err := ToJSON(data, format)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w: %w", ErrShape, err)
	}
	return nil
}

// ToJSON converts data in the given format into JSON.
func ToJSON(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, FormatJSONC:
		// JSONC is a superset; plain JSON passes through unchanged.
		stripped := jsonc.ToJSON(data)
		if !json.Valid(stripped) {
			return nil, fmt.Errorf("%w: malformed %s", ErrParse, format)
		}
		return stripped, nil
	case FormatYAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
		return marshalGeneric(doc)
	case FormatTOML:
		var doc map[string]any
		if err := gotoml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
		return marshalGeneric(doc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// DecodeFile reads path and decodes it according to its extension.
func DecodeFile(path string, target any) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := Decode(data, format, target); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func marshalGeneric(doc any) ([]byte, error) {
	data, err := json.Marshal(normalize(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShape, err)
	}
	return data, nil
}

// normalize rewrites map[any]any nodes, which encoding/json cannot marshal,
// into map[string]any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = normalize(child)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		for i, child := range t {
			t[i] = normalize(child)
		}
		return t
	default:
		return v
	}
}
