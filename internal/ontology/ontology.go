// Package ontology holds the static skill tables: synonym folding, category
// hierarchy with intra-category transferability, and proficiency keywords.
// The table is process-wide immutable; Version feeds planner provenance.
package ontology

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const Version = "2024.2"

type Proficiency string

const (
	ProficiencyBeginner     Proficiency = "beginner"
	ProficiencyIntermediate Proficiency = "intermediate"
	ProficiencyAdvanced     Proficiency = "advanced"
	ProficiencyExpert       Proficiency = "expert"
)

type category struct {
	skills          map[string]bool
	transferability float64
}

// Ontology is safe for concurrent reads; it is never mutated after New.
type Ontology struct {
	version     string
	canonical   map[string]string // variant -> canonical (includes identity entries)
	categoryOf  map[string]string // canonical -> category name
	categories  map[string]category
	proficiency map[Proficiency][]string
}

func New() *Ontology {
	o := &Ontology{
		version:     Version,
		canonical:   make(map[string]string),
		categoryOf:  make(map[string]string),
		categories:  make(map[string]category),
		proficiency: proficiencyKeywords,
	}
	for canon, variants := range synonyms {
		o.canonical[canon] = canon
		for _, v := range variants {
			o.canonical[v] = canon
		}
	}
	for name, def := range hierarchy {
		skills := make(map[string]bool, len(def.skills))
		for _, s := range def.skills {
			skills[s] = true
			o.categoryOf[s] = name
			if _, ok := o.canonical[s]; !ok {
				o.canonical[s] = s
			}
		}
		o.categories[name] = category{skills: skills, transferability: def.transferability}
	}
	return o
}

func (o *Ontology) Ver() string { return o.version }

// KnownTerms lists every canonical name and variant, longest first so
// extraction prefers "data structures and algorithms" over "algorithms".
func (o *Ontology) KnownTerms() []string {
	terms := make([]string, 0, len(o.canonical))
	for t := range o.canonical {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})
	return terms
}

// Normalize folds raw to its canonical skill name. Unknown skills come back
// lowercased and trimmed rather than erroring.
func (o *Ontology) Normalize(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canon, ok := o.canonical[key]; ok {
		return canon
	}
	return key
}

// CategoryOf returns the category of a canonical skill, or "" if unknown.
func (o *Ontology) CategoryOf(canonical string) string {
	return o.categoryOf[o.Normalize(canonical)]
}

// Transferability scores how much knowing a helps with b: 1.0 for the same
// canonical skill, the category coefficient for siblings, 0 otherwise.
func (o *Ontology) Transferability(a, b string) float64 {
	ca, cb := o.Normalize(a), o.Normalize(b)
	if ca == cb {
		return 1.0
	}
	catA, catB := o.categoryOf[ca], o.categoryOf[cb]
	if catA != "" && catA == catB {
		return o.categories[catA].transferability
	}
	return 0.0
}

var yearsRe = regexp.MustCompile(`(\d+)\+?\s*(?:years?|yrs?)`)

// ExtractProficiency infers a level from free text around a skill mention.
// Keyword match wins; otherwise a year count heuristic; otherwise intermediate.
func (o *Ontology) ExtractProficiency(context string) Proficiency {
	text := strings.ToLower(context)
	for _, level := range []Proficiency{ProficiencyExpert, ProficiencyAdvanced, ProficiencyBeginner, ProficiencyIntermediate} {
		for _, kw := range o.proficiency[level] {
			if strings.Contains(text, kw) {
				return level
			}
		}
	}
	if m := yearsRe.FindStringSubmatch(text); m != nil {
		years, _ := strconv.Atoi(m[1])
		switch {
		case years >= 5:
			return ProficiencyExpert
		case years >= 3:
			return ProficiencyAdvanced
		case years >= 1:
			return ProficiencyIntermediate
		}
		return ProficiencyBeginner
	}
	return ProficiencyIntermediate
}
