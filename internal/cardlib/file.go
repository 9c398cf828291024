package cardlib

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/carddef"
)

// FileSource reads a JSON or YAML library document. The format follows the
// file extension; both accept an array of definitions or an object keyed by
// card name.
type FileSource struct {
	Path string
}

func (s *FileSource) String() string { return "file:" + s.Path }

// Entries implements Source.
func (s *FileSource) Entries(_ context.Context) ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		if data, err = yamlToJSON(data); err != nil {
			return nil, err
		}
	case ".json", "":
	default:
		return nil, fmt.Errorf("unsupported library format %q", filepath.Ext(s.Path))
	}
	return carddef.SplitDocument(data)
}

// yamlToJSON re-encodes a YAML document so the strict JSON decoders of the
// definition types apply to both formats.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml library: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	normalized, err := normalize(doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

func normalize(v any) (any, error) {
	switch v := v.(type) {
	case map[string]any:
		for k, child := range v {
			n, err := normalize(child)
			if err != nil {
				return nil, err
			}
			v[k] = n
		}
		return v, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprint(k)
			}
			n, err := normalize(child)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case []any:
		for i, child := range v {
			n, err := normalize(child)
			if err != nil {
				return nil, err
			}
			v[i] = n
		}
		return v, nil
	default:
		return v, nil
	}
}
