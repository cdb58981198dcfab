package questionpool

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/Sathvik2005/Prepforge-sub003/internal/ontology"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
)

// Importer seeds the pool from an HTML question bank. Expected layout:
// h2 headings carry "Topic (difficulty)" sections, each followed by a list
// whose items are question texts, optionally with "Concepts: a, b, c" and
// "Hint: ..." lines inside the item.
type Importer struct {
	svc *Service
	ont *ontology.Ontology
}

func NewImporter(svc *Service, ont *ontology.Ontology) *Importer {
	return &Importer{svc: svc, ont: ont}
}

var headingRe = regexp.MustCompile(`^(.*?)\s*\((easy|medium|hard)\)\s*$`)

// Import parses r and inserts every recognized question, returning the count.
func (im *Importer) Import(ctx context.Context, r io.Reader, interviewType model.InterviewType, source string) (int, error) {
	questions, err := ParseBank(r, interviewType, source, im.ont)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, pq := range questions {
		if err := im.svc.Insert(ctx, pq); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// ParseBank extracts pool questions from an HTML bank without touching the
// database; malformed sections are skipped, not fatal.
func ParseBank(r io.Reader, interviewType model.InterviewType, source string, ont *ontology.Ontology) ([]model.PoolQuestion, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	var out []model.PoolQuestion
	doc.Find("h2").Each(func(_ int, h *goquery.Selection) {
		m := headingRe.FindStringSubmatch(strings.TrimSpace(h.Text()))
		if m == nil {
			return
		}
		topic := ont.Normalize(m[1])
		difficulty := model.Difficulty(m[2])

		list := h.NextAllFiltered("ul, ol").First()
		list.Find("li").Each(func(_ int, li *goquery.Selection) {
			if pq, ok := parseItem(li.Text(), topic, difficulty, interviewType, source, ont); ok {
				out = append(out, pq)
			}
		})
	})
	return out, nil
}

func parseItem(text, topic string, difficulty model.Difficulty, interviewType model.InterviewType, source string, ont *ontology.Ontology) (model.PoolQuestion, bool) {
	lines := strings.Split(text, "\n")
	var question, hint string
	var concepts []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(strings.ToLower(line), "concepts:"):
			for _, c := range strings.Split(line[len("concepts:"):], ",") {
				if c = strings.TrimSpace(c); c != "" {
					concepts = append(concepts, ont.Normalize(c))
				}
			}
		case strings.HasPrefix(strings.ToLower(line), "hint:"):
			hint = strings.TrimSpace(line[len("hint:"):])
		case question == "":
			question = line
		default:
			question += " " + line
		}
	}
	if question == "" {
		return model.PoolQuestion{}, false
	}
	return model.PoolQuestion{
		Topic:            topic,
		Skill:            topic,
		Difficulty:       difficulty,
		InterviewType:    interviewType,
		Text:             question,
		ExpectedConcepts: concepts,
		Hint:             hint,
		Source:           source,
	}, true
}
