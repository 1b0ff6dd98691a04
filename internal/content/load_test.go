package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
)

func TestLoadSingleEntry(t *testing.T) {
	doc, err := Load([]byte("## Hooks\n\n### What is useMemo?\n\nMemoizes a computation.\n"))
	require.NoError(t, err)

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "Hooks", doc.Sections[0].Title)
	require.Len(t, doc.Sections[0].Entries, 1)
	assert.Equal(t, Entry{
		Question: "What is useMemo?",
		Answer:   "Memoizes a computation.",
	}, doc.Sections[0].Entries[0])
	assert.Empty(t, doc.Title)
}

func TestLoadKeepsDocumentOrder(t *testing.T) {
	src := `## First
### Q1
A1
### Q2
A2
## Second
### Q3
A3
#### Q4
A4
## Third
`
	doc, err := Load([]byte(src))
	require.NoError(t, err)

	var titles, questions []string
	for _, s := range doc.Sections {
		titles = append(titles, s.Title)
		for _, e := range s.Entries {
			questions = append(questions, e.Question)
		}
	}
	assert.Equal(t, []string{"First", "Second", "Third"}, titles)
	assert.Equal(t, []string{"Q1", "Q2", "Q3", "Q4"}, questions)
	assert.NotNil(t, doc.Sections[2].Entries)
	assert.Empty(t, doc.Sections[2].Entries)
}

func TestLoadHeadingLevels(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantTitle string
		sections  []string
	}{
		{
			name:     "h1 sections with h2 questions",
			src:      "# Hooks\n## What is useMemo?\nMemoizes.\n# Refs\n## What is useRef?\nA box.\n",
			sections: []string{"Hooks", "Refs"},
		},
		{
			name:      "lone h1 above two deeper levels is the title",
			src:       "# Cheat Sheet\nIntro.\n## Hooks\n### What is useMemo?\nMemoizes.\n",
			wantTitle: "Cheat Sheet",
			sections:  []string{"Hooks"},
		},
		{
			name:     "two h1s are both sections",
			src:      "# A\n## q\n### deeper\n# B\n## q2\n",
			sections: []string{"A", "B"},
		},
		{
			name:     "setext headings",
			src:      "Hooks\n=====\n\nWhat is useMemo?\n----------------\n\nMemoizes.\n",
			sections: []string{"Hooks"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Load([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, doc.Title)

			var got []string
			for _, s := range doc.Sections {
				got = append(got, s.Title)
			}
			assert.Equal(t, tt.sections, got)
		})
	}
}

func TestLoadDescriptions(t *testing.T) {
	src := `# Title

Document intro.

## Section

Section intro.

### Question

Answer.
`
	doc, err := Load([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, "Title", doc.Title)
	assert.Equal(t, "Document intro.", doc.Description)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "Section intro.", doc.Sections[0].Description)
	assert.Equal(t, "Answer.", doc.Sections[0].Entries[0].Answer)
}

func TestLoadCodeAndTable(t *testing.T) {
	src := "## Hooks\n\n" +
		"### Effects?\n\n" +
		"Run after paint.\n\n" +
		"```jsx\nuseEffect(() => {\n  return () => {};\n}, []);\n```\n\n" +
		"```js\nsecond();\n```\n\n" +
		"| Phase | Hook |\n| --- | --- |\n| Mount | `useEffect` |\n| Unmount | cleanup |\n\n" +
		"Trailing note.\n"

	doc, err := Load([]byte(src))
	require.NoError(t, err)
	e := doc.Sections[0].Entries[0]

	require.NotNil(t, e.Code)
	assert.Equal(t, "jsx", e.Code.Language)
	assert.Equal(t, "useEffect(() => {\n  return () => {};\n}, []);", e.Code.Source)

	require.NotNil(t, e.Table)
	assert.Equal(t, []string{"Phase", "Hook"}, e.Table.Columns)
	require.Len(t, e.Table.Rows, 2)
	assert.Equal(t, "Mount", e.Table.Rows[0]["Phase"])
	assert.Equal(t, "`useEffect`", e.Table.Rows[0]["Hook"])
	assert.Equal(t, []string{"Unmount", "cleanup"}, e.Table.Cells(e.Table.Rows[1]))

	assert.Equal(t, "Run after paint.\n\n```js\nsecond();\n```\n\nTrailing note.", e.Answer)
}

func TestLoadAnswerBlocks(t *testing.T) {
	src := `## Patterns

### Lists?

- one
- two

1. first
2. second

> quoted *text*

---
`
	doc, err := Load([]byte(src))
	require.NoError(t, err)

	answer := doc.Sections[0].Entries[0].Answer
	assert.Contains(t, answer, "- one\n- two")
	assert.Contains(t, answer, "1. first\n2. second")
	assert.Contains(t, answer, "> quoted *text*")
	assert.True(t, strings.HasSuffix(answer, "---"))
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantLine int
		reason   string
	}{
		{
			name:     "no headings",
			src:      "Just some prose.\n",
			wantLine: 1,
			reason:   "missing section heading",
		},
		{
			name:     "empty input",
			src:      "",
			wantLine: 1,
			reason:   "missing section heading",
		},
		{
			name:     "content before first section",
			src:      "\n\nStray paragraph.\n\n## Section\n### Q\nA\n",
			wantLine: 3,
			reason:   "content before the first section heading",
		},
		{
			name:     "empty heading",
			src:      "## Section\n### Q\nA\n\n###\n",
			wantLine: 5,
			reason:   "empty heading",
		},
		{
			name:     "unterminated fence",
			src:      "## Section\n### Q\n\n```js\nconst a = 1;\n## Not a heading\n",
			wantLine: 4,
			reason:   "unterminated code fence",
		},
		{
			name:     "question before first section",
			src:      "# Title\n### Early?\n## Section\n### Q\n",
			wantLine: 2,
			reason:   "before the first section heading",
		},
		{
			name: "hash inside html block",
			src:  "## Section\n### Q\n\n<div>\n#\n</div>\n",
		},
		{
			name: "empty heading inside list item",
			src:  "## Section\n### Q\n\n- item\n  #\n",
		},
		{
			name: "fence closed by its list item",
			src:  "## Section\n### Q\n\n1. Step\n   ```js\n   code\n\n## Next\n### R\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Load([]byte(tt.src))
			if tt.wantLine == 0 {
				require.NoError(t, err)
				assert.NotEmpty(t, doc.Sections)
				return
			}
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, cserrors.IsMalformedDocument(err), "got %v", err)
			assert.Equal(t, tt.wantLine, cserrors.LineOf(err))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestLoadTrickyValidDocuments(t *testing.T) {
	t.Run("html block keeps its hash line", func(t *testing.T) {
		doc, err := Load([]byte("## Section\n### Q\n\n<div>\n#\n</div>\n"))
		require.NoError(t, err)
		require.Len(t, doc.Sections, 1)
		require.Len(t, doc.Sections[0].Entries, 1)
		assert.Equal(t, "<div>\n#\n</div>", doc.Sections[0].Entries[0].Answer)
	})

	t.Run("list nested fence does not swallow later sections", func(t *testing.T) {
		doc, err := Load([]byte("## Setup\n### Steps?\n\n1. Step\n   ```js\n   code\n\n## Next\n### R\nDone.\n"))
		require.NoError(t, err)
		require.Len(t, doc.Sections, 2)
		assert.Equal(t, "Next", doc.Sections[1].Title)
		assert.Equal(t, "Done.", doc.Sections[1].Entries[0].Answer)
	})

	t.Run("unclosed fence is reported at its opening line", func(t *testing.T) {
		_, err := Load([]byte("## Section\n### Q\n\n```\nno info string\n"))
		require.Error(t, err)
		assert.Equal(t, 4, cserrors.LineOf(err))
	})
}

func TestLoadDuplicateColumns(t *testing.T) {
	src := "## Compare\n### Which?\n\n| A | A | A (2) |\n|---|---|---|\n| x | y | z |\n"
	doc, err := Load([]byte(src))
	require.NoError(t, err)

	tbl := doc.Sections[0].Entries[0].Table
	require.NotNil(t, tbl)
	assert.Equal(t, []string{"A", "A (3)", "A (2)"}, tbl.Columns)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"x", "y", "z"}, tbl.Cells(tbl.Rows[0]))
}

func TestUniqueColumns(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  []string
	}{
		{"distinct", []string{"Hook", "Use"}, []string{"Hook", "Use"}},
		{"repeated", []string{"A", "A", "A"}, []string{"A", "A (2)", "A (3)"}},
		{"suffix already written", []string{"A", "A", "A (2)"}, []string{"A", "A (3)", "A (2)"}},
		{"empty cells", []string{"", "B", ""}, []string{"Column 1", "B", "Column 3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, uniqueColumns(tt.cells))
		})
	}
}

func TestLoadClosedFenceWithHashLines(t *testing.T) {
	src := "## Shell\n### Comment?\n\n```sh\n#\n# not a heading\n```\n"
	doc, err := Load([]byte(src))
	require.NoError(t, err)
	require.NotNil(t, doc.Sections[0].Entries[0].Code)
	assert.Equal(t, "#\n# not a heading", doc.Sections[0].Entries[0].Code.Source)
}

func TestLoadIsIdempotent(t *testing.T) {
	raw := Bundled()

	first, err := Load(raw)
	require.NoError(t, err)
	second, err := Load(raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoadNormalizesCRLF(t *testing.T) {
	doc, err := Load([]byte("## Hooks\r\n### Q?\r\nLine one\r\nline two\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "Line one\nline two", doc.Sections[0].Entries[0].Answer)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.md")
	require.NoError(t, os.WriteFile(good, []byte("## A\n### Q\nAnswer\n"), 0o644))
	doc, err := LoadFile(good)
	require.NoError(t, err)
	assert.Len(t, doc.Sections, 1)

	bad := filepath.Join(dir, "bad.md")
	require.NoError(t, os.WriteFile(bad, []byte("prose\n"), 0o644))
	_, err = LoadFile(bad)
	require.Error(t, err)
	assert.True(t, cserrors.IsMalformedDocument(err))
	assert.Contains(t, err.Error(), "bad.md:1")

	_, err = LoadFile(filepath.Join(dir, "missing.md"))
	require.Error(t, err)
	ctx := cserrors.GetErrorContext(err)
	assert.Equal(t, cserrors.ErrCodeFileNotFound, ctx["code"])
}

func TestBundledDocument(t *testing.T) {
	doc, err := LoadBundled()
	require.NoError(t, err)

	assert.Equal(t, "React.js Interview Cheat Sheet", doc.Title)
	assert.NotEmpty(t, doc.Description)

	var titles []string
	for _, s := range doc.Sections {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{
		"Component Lifecycle",
		"Performance Optimization",
		"State Management",
		"Advanced Patterns",
		"Tooling & Testing",
		"Security",
		"Comparison Tables",
	}, titles)
	assert.Equal(t, 23, doc.EntryCount())
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "performance-optimization", Slug("Performance Optimization"))
	assert.Equal(t, "tooling-testing", Slug("Tooling & Testing"))
	assert.Equal(t, "section", Slug("!!!"))
}
