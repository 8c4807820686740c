package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadJSON decodes a JSON graph from r.
//
// The input must be a JSON object with "nodes" and "edges" arrays:
//
//	{
//	  "nodes": [{"id": "a", "type": "action", "label": "Fetch", "config": {}}],
//	  "edges": [{"id": "e1", "source": "a", "target": "b", "label": "true"}]
//	}
//
// ReadJSON does not validate snapshot integrity - call [Graph.Validate]
// when the caller requires resolvable edge endpoints. ReadJSON does not
// close r.
func ReadJSON(r io.Reader) (Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return Graph{}, fmt.Errorf("decode graph: %w", err)
	}
	return g, nil
}

// ReadYAML decodes a YAML graph from r. The document shape mirrors the
// JSON form. ReadYAML does not close r.
func ReadYAML(r io.Reader) (Graph, error) {
	var g Graph
	if err := yaml.NewDecoder(r).Decode(&g); err != nil {
		return Graph{}, fmt.Errorf("decode graph: %w", err)
	}
	normalizeYAML(&g)
	return g, nil
}

// ReadFile reads a graph file, choosing the decoder by extension:
// .yaml/.yml use YAML, everything else JSON.
func ReadFile(path string) (Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return Graph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadYAML(f)
	default:
		return ReadJSON(f)
	}
}

// Marshal serializes the graph to indented JSON with nodes and edges
// sorted by ID for deterministic output.
func Marshal(g Graph) ([]byte, error) {
	data, err := json.MarshalIndent(g.Sorted(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal graph: %w", err)
	}
	return data, nil
}

// Unmarshal deserializes JSON bytes to a Graph.
func Unmarshal(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// Write serializes the graph as JSON to w.
func Write(g Graph, w io.Writer) error {
	data, err := Marshal(g)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// normalizeYAML rewrites yaml.v3 decoding artifacts into the JSON-shaped
// value types the rest of the engine compares against. Nested mappings with
// non-string keys decode as map[any]any and must be converted; numbers decode
// as int, which equalValue already normalizes.
func normalizeYAML(g *Graph) {
	for i := range g.Nodes {
		if g.Nodes[i].Config != nil {
			g.Nodes[i].Config = normalizeYAMLMap(g.Nodes[i].Config)
		}
	}
}

func normalizeYAMLMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalizeYAMLValue(v)
	}
	return m
}

func normalizeYAMLValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeYAMLMap(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[fmt.Sprint(k)] = normalizeYAMLValue(e)
		}
		return m
	case []any:
		for i, e := range val {
			val[i] = normalizeYAMLValue(e)
		}
		return val
	default:
		return v
	}
}
