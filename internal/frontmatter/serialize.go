package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// SerializeYAML serializes a frontmatter map into YAML bytes (without
// delimiters).
//
// Keys are sorted recursively so output is stable across runs; the
// newline style comes from Style (default \n). An empty map yields an
// empty slice.
func SerializeYAML(fields map[string]any, style Style) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}

	node, err := mappingNode(fields)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if nl := style.Newline; nl != "" && nl != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(nl))
	}
	return out, nil
}

func mappingNode(m map[string]any) (*yaml.Node, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		val, err := valueNode(m[k])
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content,
			scalarNode("!!str", k),
			val,
		)
	}
	return n, nil
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func valueNode(v any) (*yaml.Node, error) {
	switch vv := v.(type) {
	case nil:
		return scalarNode("!!null", "null"), nil
	case string:
		return scalarNode("!!str", vv), nil
	case bool:
		return scalarNode("!!bool", strconv.FormatBool(vv)), nil
	case int:
		return scalarNode("!!int", strconv.Itoa(vv)), nil
	case int64:
		return scalarNode("!!int", strconv.FormatInt(vv, 10)), nil
	case float64:
		return scalarNode("!!float", fmt.Sprintf("%v", vv)), nil
	case map[string]any:
		return mappingNode(vv)
	case []string:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range vv {
			seq.Content = append(seq.Content, scalarNode("!!str", item))
		}
		return seq, nil
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range vv {
			node, err := valueNode(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, node)
		}
		return seq, nil
	default:
		// Round-trip uncommon scalars through yaml's own encoding.
		raw, err := yaml.Marshal(v)
		if err != nil {
			return nil, err
		}
		var node yaml.Node
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return nil, err
		}
		if len(node.Content) == 0 {
			return scalarNode("!!null", "null"), nil
		}
		return node.Content[0], nil
	}
}
