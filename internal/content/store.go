package content

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	cserrors "github.com/conneroisu/cheatsheet/internal/errors"
)

// Store owns a loaded Document and answers lookups against it. It is
// read-only after NewStore and safe for concurrent use.
type Store struct {
	doc      *Document
	keywords map[string][]entryRef
}

type entryRef struct {
	section int
	entry   int
}

// Hit is one search result.
type Hit struct {
	Section      string `json:"section"`
	SectionIndex int    `json:"section_index"`
	EntryIndex   int    `json:"entry_index"`
	Entry        Entry  `json:"entry"`
}

// Stats summarises a document.
type Stats struct {
	Sections    int `json:"sections"`
	Entries     int `json:"entries"`
	CodeSamples int `json:"code_samples"`
	Tables      int `json:"tables"`
}

// NewStore indexes doc.
func NewStore(doc *Document) *Store {
	s := &Store{
		doc:      doc,
		keywords: make(map[string][]entryRef),
	}

	for si, sec := range doc.Sections {
		for ei, e := range sec.Entries {
			ref := entryRef{section: si, entry: ei}
			seen := make(map[string]struct{})
			for _, w := range words(entryText(e)) {
				if _, ok := seen[w]; ok {
					continue
				}
				seen[w] = struct{}{}
				s.keywords[w] = append(s.keywords[w], ref)
			}
		}
	}
	return s
}

// Document returns the underlying document.
func (s *Store) Document() *Document {
	return s.doc
}

// Sections returns the sections in document order.
func (s *Store) Sections() []Section {
	return s.doc.Sections
}

// Stats counts sections, entries, code samples and tables.
func (s *Store) Stats() Stats {
	st := Stats{Sections: len(s.doc.Sections)}
	for _, sec := range s.doc.Sections {
		st.Entries += len(sec.Entries)
		for _, e := range sec.Entries {
			if e.Code != nil {
				st.CodeSamples++
			}
			if e.Table != nil {
				st.Tables++
			}
		}
	}
	return st
}

var enumeration = regexp.MustCompile(`^\d+[.)]\s*`)

func normalizeTopic(s string) string {
	s = strings.TrimSpace(s)
	s = enumeration.ReplaceAllString(s, "")
	return cases.Fold().String(strings.TrimSpace(s))
}

// FindByTopic returns the section whose title equals name, ignoring case,
// or failing that the first section whose title starts with name. A miss
// is reported as TopicNotFound.
func (s *Store) FindByTopic(name string) (*Section, error) {
	query := normalizeTopic(name)
	if query == "" {
		return nil, cserrors.TopicNotFound(name)
	}

	prefix := -1
	for i := range s.doc.Sections {
		title := normalizeTopic(s.doc.Sections[i].Title)
		if title == query {
			return &s.doc.Sections[i], nil
		}
		if prefix < 0 && strings.HasPrefix(title, query) {
			prefix = i
		}
	}
	if prefix >= 0 {
		return &s.doc.Sections[prefix], nil
	}
	return nil, cserrors.TopicNotFound(name)
}

// Search returns every entry containing all words of query, where a query
// word matches any indexed word it is a prefix of. Results are in document
// order.
func (s *Store) Search(query string) []Hit {
	terms := words(query)
	if len(terms) == 0 {
		return nil
	}

	counts := make(map[entryRef]int)
	for _, term := range terms {
		matched := make(map[entryRef]struct{})
		for word, refs := range s.keywords {
			if !strings.HasPrefix(word, term) {
				continue
			}
			for _, ref := range refs {
				matched[ref] = struct{}{}
			}
		}
		for ref := range matched {
			counts[ref]++
		}
	}

	refs := make([]entryRef, 0, len(counts))
	for ref, n := range counts {
		if n == len(terms) {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].section == refs[j].section {
			return refs[i].entry < refs[j].entry
		}
		return refs[i].section < refs[j].section
	})

	hits := make([]Hit, 0, len(refs))
	for _, ref := range refs {
		sec := s.doc.Sections[ref.section]
		hits = append(hits, Hit{
			Section:      sec.Title,
			SectionIndex: ref.section,
			EntryIndex:   ref.entry,
			Entry:        sec.Entries[ref.entry],
		})
	}
	return hits
}

func entryText(e Entry) string {
	parts := []string{e.Question, e.Answer}
	if e.Code != nil {
		parts = append(parts, e.Code.Source)
	}
	if e.Table != nil {
		parts = append(parts, e.Table.Columns...)
		for _, r := range e.Table.Rows {
			parts = append(parts, e.Table.Cells(r)...)
		}
	}
	return strings.Join(parts, " ")
}

func words(s string) []string {
	folded := cases.Fold().String(s)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	// de-duplicate query terms while keeping order
	out := fields[:0]
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
