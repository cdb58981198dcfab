// Package parser is the resume/JD boundary. Refs resolve to stored raw
// documents; skill extraction runs over plain text using the ontology tables.
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Sathvik2005/Prepforge-sub003/internal/ontology"
	"github.com/Sathvik2005/Prepforge-sub003/internal/store"
)

// SkillMention is one skill found in a document with its inferred level.
type SkillMention struct {
	Skill       string               `json:"skill"`
	Proficiency ontology.Proficiency `json:"proficiency"`
}

type Parsed struct {
	Text       string         `json:"text"`
	TargetRole string         `json:"target_role,omitempty"`
	Skills     []SkillMention `json:"skills"`
}

// DocumentParser resolves a ref to a parsed document.
type DocumentParser interface {
	Parse(ctx context.Context, ref string) (*Parsed, error)
}

// KindDocument is the store kind holding uploaded raw documents.
const KindDocument = "document"

type rawDocument struct {
	Text       string `json:"text"`
	TargetRole string `json:"target_role,omitempty"`
}

// StoreParser resolves refs against the document store and extracts skills.
type StoreParser struct {
	st  store.Store
	ont *ontology.Ontology
}

func NewStoreParser(st store.Store, ont *ontology.Ontology) *StoreParser {
	return &StoreParser{st: st, ont: ont}
}

func (p *StoreParser) Parse(ctx context.Context, ref string) (*Parsed, error) {
	doc, _, err := p.st.Get(ctx, KindDocument, ref)
	if err != nil {
		return nil, err
	}
	var raw rawDocument
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", ref, err)
	}
	return &Parsed{
		Text:       raw.Text,
		TargetRole: raw.TargetRole,
		Skills:     ExtractSkills(raw.Text, p.ont),
	}, nil
}

// ExtractSkills scans text for known canonical skills and their synonyms,
// inferring proficiency from the surrounding sentence.
func ExtractSkills(text string, ont *ontology.Ontology) []SkillMention {
	lower := strings.ToLower(text)
	seen := map[string]bool{}
	var out []SkillMention
	for _, variant := range ont.KnownTerms() {
		idx := strings.Index(lower, variant)
		if idx < 0 {
			continue
		}
		canon := ont.Normalize(variant)
		if seen[canon] {
			continue
		}
		seen[canon] = true
		out = append(out, SkillMention{
			Skill:       canon,
			Proficiency: ont.ExtractProficiency(surrounding(lower, idx, 120)),
		})
	}
	return out
}

func surrounding(text string, idx, span int) string {
	start := idx - span
	if start < 0 {
		start = 0
	}
	end := idx + span
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}
