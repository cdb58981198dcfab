package questionpool

import (
	"strings"
	"testing"

	"github.com/Sathvik2005/Prepforge-sub003/internal/ontology"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
)

const sampleBank = `
<html><body>
<h2>DSA (medium)</h2>
<ul>
<li>Explain how a hash map handles collisions.
Concepts: chaining, open addressing, load factor
Hint: think about what happens when two keys share a bucket.</li>
<li>Reverse a linked list in place.
Concepts: pointers</li>
</ul>
<h2>System Design (hard)</h2>
<ol>
<li>Design a URL shortener for 100M daily requests.
Concepts: caching, sharding</li>
</ol>
<h2>Notes</h2>
<ul><li>This section has no difficulty marker and must be skipped.</li></ul>
</body></html>`

func TestParseBank(t *testing.T) {
	qs, err := ParseBank(strings.NewReader(sampleBank), model.InterviewTechnical, "test-bank", ontology.New())
	if err != nil {
		t.Fatalf("ParseBank: %v", err)
	}
	if len(qs) != 3 {
		t.Fatalf("questions = %d, want 3", len(qs))
	}

	first := qs[0]
	if first.Topic != "data structures" {
		t.Errorf("topic = %q, want ontology-folded %q", first.Topic, "data structures")
	}
	if first.Difficulty != model.DifficultyMedium {
		t.Errorf("difficulty = %s, want medium", first.Difficulty)
	}
	if first.Text != "Explain how a hash map handles collisions." {
		t.Errorf("text = %q", first.Text)
	}
	if len(first.ExpectedConcepts) != 3 {
		t.Errorf("concepts = %v, want 3", first.ExpectedConcepts)
	}
	if !strings.Contains(first.Hint, "bucket") {
		t.Errorf("hint = %q", first.Hint)
	}

	third := qs[2]
	if third.Difficulty != model.DifficultyHard || third.Topic != "system design" {
		t.Errorf("third = %+v", third)
	}
}

func TestParseBankEmptyItemSkipped(t *testing.T) {
	bank := `<h2>Arrays (easy)</h2><ul><li>   </li><li>Real question here?</li></ul>`
	qs, err := ParseBank(strings.NewReader(bank), model.InterviewCoding, "b", ontology.New())
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 1 {
		t.Errorf("questions = %d, want 1", len(qs))
	}
}
