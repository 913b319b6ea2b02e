package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"regexp"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jqx/internal/jsonvalue"
)

func appendDocument(out []byte, v jsonvalue.Value) []byte {
	out = append(out, jsonvalue.Marshal(v)...)
	return append(out, '\n')
}

// yamlToJSON converts every document of a YAML stream, keeping mapping order.
func yamlToJSON(data []byte) ([]byte, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []byte
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errorf(FormatYAML, err)
		}
		if len(doc.Content) == 0 {
			continue
		}
		v, err := fromYAML(&doc)
		if err != nil {
			return nil, errorf(FormatYAML, err)
		}
		out = appendDocument(out, v)
	}
	return out, nil
}

type objectBuilder struct {
	obj   jsonvalue.Object
	index map[string]int
}

func (b *objectBuilder) set(key string, v jsonvalue.Value) {
	if i, ok := b.index[key]; ok {
		b.obj[i].Value = v
		return
	}
	if b.index == nil {
		b.index = map[string]int{}
	}
	b.index[key] = len(b.obj)
	b.obj = append(b.obj, jsonvalue.Member{Key: key, Value: v})
}

func (b *objectBuilder) has(key string) bool {
	_, ok := b.index[key]
	return ok
}

func (b *objectBuilder) result() jsonvalue.Object {
	if b.obj == nil {
		return jsonvalue.Object{}
	}
	return b.obj
}

func fromYAML(n *yaml.Node) (jsonvalue.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return jsonvalue.Null{}, nil
		}
		return fromYAML(n.Content[0])
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.SequenceNode:
		arr := make(jsonvalue.Array, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.MappingNode:
		return yamlMapping(n)
	case yaml.ScalarNode:
		return yamlScalar(n)
	default:
		return nil, fmt.Errorf("line %d: unsupported node", n.Line)
	}
}

func yamlMapping(n *yaml.Node) (jsonvalue.Value, error) {
	var b objectBuilder
	var merged []jsonvalue.Object
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.ShortTag() == "!!merge" {
			objs, err := mergeSources(v)
			if err != nil {
				return nil, err
			}
			merged = append(merged, objs...)
			continue
		}
		if k.Kind == yaml.AliasNode {
			k = k.Alias
		}
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
		}
		val, err := fromYAML(v)
		if err != nil {
			return nil, err
		}
		b.set(k.Value, val)
	}
	// Explicit keys win over merged ones.
	for _, obj := range merged {
		for _, m := range obj {
			if !b.has(m.Key) {
				b.set(m.Key, m.Value)
			}
		}
	}
	return b.result(), nil
}

func mergeSources(v *yaml.Node) ([]jsonvalue.Object, error) {
	if v.Kind == yaml.SequenceNode {
		var objs []jsonvalue.Object
		for _, c := range v.Content {
			more, err := mergeSources(c)
			if err != nil {
				return nil, err
			}
			objs = append(objs, more...)
		}
		return objs, nil
	}
	val, err := fromYAML(v)
	if err != nil {
		return nil, err
	}
	obj, ok := val.(jsonvalue.Object)
	if !ok {
		return nil, fmt.Errorf("line %d: merge value must be a mapping", v.Line)
	}
	return []jsonvalue.Object{obj}, nil
}

var jsonNumberLiteral = regexp.MustCompile(`^-?(?:0|[1-9][0-9]*)(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?$`)

func yamlScalar(n *yaml.Node) (jsonvalue.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return jsonvalue.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return jsonvalue.Bool(b), nil
	case "!!int", "!!float":
		if jsonNumberLiteral.MatchString(n.Value) {
			return jsonvalue.ParseNumber(n.Value)
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return numberOrString(v, n.Value), nil
	default:
		return jsonvalue.String(n.Value), nil
	}
}

// numberOrString converts a decoded number. Values JSON cannot express
// (.inf, .nan) keep their source text.
func numberOrString(v any, text string) jsonvalue.Value {
	switch x := v.(type) {
	case int:
		return jsonvalue.Int(int64(x))
	case int64:
		return jsonvalue.Int(x)
	case uint64:
		return jsonvalue.Number{Literal: fmt.Sprint(x), Int: new(big.Int).SetUint64(x)}
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return jsonvalue.String(text)
		}
		return jsonvalue.Float(x)
	default:
		return jsonvalue.String(text)
	}
}

// tomlToJSON converts a TOML document. go-toml decodes tables into maps, so
// keys come out sorted.
func tomlToJSON(data []byte) ([]byte, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errorf(FormatTOML, err)
	}
	return appendDocument(nil, fromTOML(doc)), nil
}

func fromTOML(v any) jsonvalue.Value {
	switch x := v.(type) {
	case nil:
		return jsonvalue.Null{}
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make(jsonvalue.Object, 0, len(keys))
		for _, k := range keys {
			obj = append(obj, jsonvalue.Member{Key: k, Value: fromTOML(x[k])})
		}
		return obj
	case []any:
		arr := make(jsonvalue.Array, 0, len(x))
		for _, e := range x {
			arr = append(arr, fromTOML(e))
		}
		return arr
	case []map[string]any:
		arr := make(jsonvalue.Array, 0, len(x))
		for _, e := range x {
			arr = append(arr, fromTOML(e))
		}
		return arr
	case string:
		return jsonvalue.String(x)
	case bool:
		return jsonvalue.Bool(x)
	case int64:
		return jsonvalue.Int(x)
	case float64:
		return numberOrString(x, fmt.Sprint(x))
	case time.Time:
		return jsonvalue.String(x.Format(time.RFC3339Nano))
	case fmt.Stringer:
		return jsonvalue.String(x.String())
	default:
		return jsonvalue.String(fmt.Sprint(x))
	}
}
