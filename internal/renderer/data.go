package renderer

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/cheatsheet/internal/content"
	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
)

func renderJSON(w io.Writer, doc *content.Document, indent int) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	return enc.Encode(doc)
}

func renderYAML(w io.Writer, doc *content.Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// DecodeJSON reads a document previously rendered as JSON.
func DecodeJSON(r io.Reader) (*content.Document, error) {
	var doc content.Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, cserrors.NewValidationError(cserrors.ErrCodeMalformedDocument, "decoding JSON document: "+err.Error())
	}
	return normalize(&doc), nil
}

// DecodeYAML reads a document previously rendered as YAML.
func DecodeYAML(r io.Reader) (*content.Document, error) {
	var doc content.Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, cserrors.NewValidationError(cserrors.ErrCodeMalformedDocument, "decoding YAML document: "+err.Error())
	}
	return normalize(&doc), nil
}

// Decode reads a JSON or YAML document, chosen by f.
func Decode(raw []byte, f Format) (*content.Document, error) {
	switch f {
	case FormatJSON:
		return DecodeJSON(bytes.NewReader(raw))
	case FormatYAML:
		return DecodeYAML(bytes.NewReader(raw))
	default:
		return nil, cserrors.UnsupportedFormat(string(f))
	}
}

// normalize restores the non-nil slices Load guarantees, which a missing
// field in hand-written input would leave nil.
func normalize(doc *content.Document) *content.Document {
	if doc.Sections == nil {
		doc.Sections = []content.Section{}
	}
	for i := range doc.Sections {
		if doc.Sections[i].Entries == nil {
			doc.Sections[i].Entries = []content.Entry{}
		}
		for j := range doc.Sections[i].Entries {
			t := doc.Sections[i].Entries[j].Table
			if t == nil {
				continue
			}
			if t.Columns == nil {
				t.Columns = []string{}
			}
			if t.Rows == nil {
				t.Rows = []content.Row{}
			}
		}
	}
	return doc
}
