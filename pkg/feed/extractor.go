package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/net/html/charset"

	"github.com/winefeed/catalog-sync/pkg/types"
)

const productTag = "product"

// field maps a record key to the element or attribute it is read from.
type field struct {
	name     string
	source   string
	required bool
}

var fields = []field{
	{name: types.FieldSKU, source: "SKU", required: true},
	{name: types.FieldItemName, source: "Item_Name", required: true},
	{name: types.FieldBrand, source: "Brand"},
	{name: types.FieldColor, source: "Color"},
	{name: types.FieldMSRP, source: "MSRP"},
	{name: types.FieldBottleSize, source: "Bottle_Size"},
	{name: types.FieldAlcoholVolume, source: "Alcohol_Volume"},
	{name: types.FieldDescription, source: "Description"},
}

// Extractor turns a raw product feed into records.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor() *Extractor {
	return &Extractor{
		logger: slog.Default().With(slog.String("component", "extractor")),
	}
}

// Extract returns one record per <product> element, in document order.
// A document that is not well-formed yields *types.MalformedFeedError and no records.
func (e *Extractor) Extract(data []byte) ([]types.Record, error) {
	roots, err := parse(data)
	if err != nil {
		return nil, err
	}

	var products []*node
	for _, root := range roots {
		products = root.collect(productTag, products)
	}

	records := lo.Map(products, func(n *node, i int) types.Record {
		r := n.record()
		if r.SKU() == "" {
			e.logger.Warn("Product without SKU", slog.Int("position", i+1))
		}
		return r
	})
	return records, nil
}

// node is a minimal element tree. content keeps character data and child
// elements in document order so text can be assembled on demand.
type node struct {
	name     string
	attrs    []xml.Attr
	children []*node
	content  []content
}

// content is either a run of character data or a child element.
type content struct {
	text  string
	child *node
}

func malformed(msg string) error {
	return &types.MalformedFeedError{Messages: []string{msg}}
}

func parse(data []byte) ([]*node, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charset.NewReaderLabel

	var roots, stack []*node
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, malformed(err.Error())
		}

		switch t := xml.CopyToken(tok).(type) {
		case xml.StartElement:
			n := &node{
				name:  t.Name.Local,
				attrs: t.Attr,
			}
			if len(stack) == 0 {
				if len(roots) > 0 {
					return nil, malformed("extra content at the end of the document: <" + n.name + ">")
				}
				roots = append(roots, n)
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
				parent.content = append(parent.content, content{child: n})
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				// Only whitespace (and a byte order mark) may surround the root element.
				if strings.TrimSpace(strings.TrimPrefix(string(t), "\ufeff")) != "" {
					if len(roots) == 0 {
						return nil, malformed("document is not markup: start tag expected")
					}
					return nil, malformed("extra content at the end of the document")
				}
				continue
			}
			n := stack[len(stack)-1]
			n.content = append(n.content, content{text: string(t)})
		}
	}

	if len(stack) > 0 {
		return nil, malformed("unexpected end of document: unclosed <" + stack[len(stack)-1].name + ">")
	}
	return roots, nil
}

// text returns the character data of n and its descendants in document order.
func (n *node) text() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *node) writeText(b *strings.Builder) {
	for _, c := range n.content {
		if c.child != nil {
			c.child.writeText(b)
			continue
		}
		b.WriteString(c.text)
	}
}

// collect appends n and its descendants named name in document order.
func (n *node) collect(name string, acc []*node) []*node {
	if n.name == name {
		acc = append(acc, n)
	}
	for _, c := range n.children {
		acc = c.collect(name, acc)
	}
	return acc
}

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (n *node) childText(name string) string {
	c := n.child(name)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.text())
}

func (n *node) record() types.Record {
	r := make(types.Record, len(fields))
	for _, f := range fields {
		if f.required {
			// Required fields are attributes, with a child element as fallback.
			if v, ok := n.attr(f.source); ok {
				r[f.name] = v
			} else {
				r[f.name] = n.childText(f.source)
			}
			continue
		}
		if v := n.childText(f.source); v != "" {
			r[f.name] = v
		}
	}
	return r
}
