//go:build property
// +build property

package renderer

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/cheatsheet/internal/content"
)

func generatedSheet(sections, questions []string, withCode bool) string {
	var b strings.Builder
	for i, sec := range sections {
		fmt.Fprintf(&b, "## %s\n\n", sec)
		for j, q := range questions {
			fmt.Fprintf(&b, "### %s?\n\nAnswer %d.%d mentions %s.\n\n", q, i, j, sec)
			if withCode {
				fmt.Fprintf(&b, "```js\nconst %s = %d;\n```\n\n", q, j)
			}
			if j%2 == 1 {
				fmt.Fprintf(&b, "| Name | Value |\n| --- | --- |\n| %s | %d |\n\n", q, j)
			}
		}
	}
	return b.String()
}

func TestRoundTripProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)
	engine := NewEngine(Options{}, nil)

	properties.Property("json round trip reproduces the loaded document", prop.ForAll(
		func(sections, questions []string, withCode bool) bool {
			doc, err := content.Load([]byte(generatedSheet(sections, questions, withCode)))
			if err != nil {
				return false
			}
			var buf bytes.Buffer
			if err := engine.Render(context.Background(), &buf, doc, "json"); err != nil {
				return false
			}
			decoded, err := DecodeJSON(&buf)
			return err == nil && reflect.DeepEqual(doc, decoded)
		},
		gen.SliceOfN(3, gen.Identifier()),
		gen.SliceOfN(4, gen.Identifier()),
		gen.Bool(),
	))

	properties.Property("unknown formats never write", prop.ForAll(
		func(name string) bool {
			if _, err := ParseFormat(name); err == nil {
				return true
			}
			doc, err := content.LoadBundled()
			if err != nil {
				return false
			}
			var buf bytes.Buffer
			err = engine.Render(context.Background(), &buf, doc, name)
			return err != nil && buf.Len() == 0
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
