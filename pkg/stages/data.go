package stages

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
)

// exportDefault renders a data value as a script module
func exportDefault(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("export default ")
	buf.Write(data)
	buf.WriteString(";\n")
	return buf.Bytes(), nil
}

// csvStage converts CSV and TSV files into an array of rows. With the
// header option set, rows become objects keyed by the first record.
type csvStage struct{}

func (s *csvStage) Name() string { return "csv" }

func (s *csvStage) Transform(_ context.Context, in Input) (Output, error) {
	def := ","
	if strings.EqualFold(path.Ext(in.Path), ".tsv") {
		def = "\t"
	}
	delim, err := stringOption(in.Options, "delimiter", def)
	if err != nil {
		return Output{}, err
	}
	if utf8.RuneCountInString(delim) != 1 {
		return Output{}, fmt.Errorf("option delimiter: %q must be a single character", delim)
	}
	header, err := boolOption(in.Options, "header", false)
	if err != nil {
		return Output{}, err
	}

	r := csv.NewReader(bytes.NewReader(in.Content))
	r.Comma, _ = utf8.DecodeRuneInString(delim)

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Output{}, err
		}
		records = append(records, rec)
	}
	if records == nil {
		records = [][]string{}
	}

	var value interface{} = records
	if header && len(records) > 0 {
		keys := records[0]
		rows := make([]map[string]string, 0, len(records)-1)
		for _, rec := range records[1:] {
			row := make(map[string]string, len(keys))
			for i, k := range keys {
				row[k] = rec[i]
			}
			rows = append(rows, row)
		}
		value = rows
	}

	content, err := exportDefault(value)
	if err != nil {
		return Output{}, err
	}
	return Output{Content: content}, nil
}

type xmlNode struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Children []xmlNode         `json:"children,omitempty"`
}

func toXMLNode(el *etree.Element) xmlNode {
	node := xmlNode{Tag: el.FullTag(), Text: strings.TrimSpace(el.Text())}
	if len(el.Attr) > 0 {
		node.Attrs = make(map[string]string, len(el.Attr))
		for _, a := range el.Attr {
			node.Attrs[a.FullKey()] = a.Value
		}
	}
	for _, child := range el.ChildElements() {
		node.Children = append(node.Children, toXMLNode(child))
	}
	return node
}

// xmlStage parses XML and exports the element tree
type xmlStage struct{}

func (s *xmlStage) Name() string { return "xml" }

func (s *xmlStage) Transform(_ context.Context, in Input) (Output, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(in.Content); err != nil {
		return Output{}, err
	}
	root := doc.Root()
	if root == nil {
		return Output{}, fmt.Errorf("%s has no root element", in.Path)
	}

	content, err := exportDefault(toXMLNode(root))
	if err != nil {
		return Output{}, err
	}
	return Output{Content: content}, nil
}

// jsonStage validates JSON and exports it unchanged
type jsonStage struct{}

func (s *jsonStage) Name() string { return "json" }

func (s *jsonStage) Transform(_ context.Context, in Input) (Output, error) {
	trimmed := bytes.TrimSpace(in.Content)
	if !json.Valid(trimmed) {
		return Output{}, fmt.Errorf("%s is not valid JSON", in.Path)
	}
	var buf bytes.Buffer
	buf.WriteString("export default ")
	buf.Write(trimmed)
	buf.WriteString(";\n")
	return Output{Content: buf.Bytes()}, nil
}
