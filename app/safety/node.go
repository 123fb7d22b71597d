package safety

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type NodeKind int

const (
	KindOther NodeKind = iota // numbers, booleans, null
	KindText
	KindList
	KindObject
)

// Node is a decoded content tree. Object fields keep the order they appear
// in the source document, which a plain map[string]any would not guarantee.
type Node struct {
	Kind   NodeKind
	Text   string
	Items  []Node
	Fields []Field
}

type Field struct {
	Name  string
	Value Node
}

// Decode parses a JSON document into a Node tree using the token stream, so
// object fields preserve document order.
func Decode(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	node, err := decodeValue(dec)
	if err != nil {
		return Node{}, fmt.Errorf("failed to decode content: %w", err)
	}

	return node, nil
}

func decodeValue(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return Node{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			node := Node{Kind: KindObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Node{}, err
				}
				key, _ := keyTok.(string)

				value, err := decodeValue(dec)
				if err != nil {
					return Node{}, err
				}
				node.Fields = append(node.Fields, Field{Name: key, Value: value})
			}
			// Consume closing '}'
			if _, err := dec.Token(); err != nil {
				return Node{}, err
			}
			return node, nil
		case '[':
			node := Node{Kind: KindList}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Node{}, err
				}
				node.Items = append(node.Items, item)
			}
			// Consume closing ']'
			if _, err := dec.Token(); err != nil {
				return Node{}, err
			}
			return node, nil
		}
		return Node{}, fmt.Errorf("unexpected delimiter: %v", t)
	case string:
		return Node{Kind: KindText, Text: t}, nil
	default:
		return Node{Kind: KindOther}, nil
	}
}

// Strings returns every scalar text leaf in depth-first order: list items in
// sequence, object values in document field order. Field names are never
// inspected, so no nested field can hide content from a scan.
func (n Node) Strings() []string {
	var out []string
	n.collect(&out)
	return out
}

func (n Node) collect(out *[]string) {
	switch n.Kind {
	case KindText:
		*out = append(*out, n.Text)
	case KindList:
		for _, item := range n.Items {
			item.collect(out)
		}
	case KindObject:
		for _, field := range n.Fields {
			field.Value.collect(out)
		}
	}
}
