package evaluator

import (
	"regexp"
	"strings"
)

var (
	wordRe     = regexp.MustCompile(`[a-z0-9+#./']+`)
	sentenceRe = regexp.MustCompile(`[.!?]+`)

	orderedMarkers = []string{"first", "then", "finally", "therefore", "next", "second", "lastly"}
	structureCues  = []string{"step", "first", "then", "because", "approach"}
	exampleCues    = []string{"for example", "for instance", "e.g.", "in my project", "in practice", "i once", "such as"}
	conclusionCues = []string{"in conclusion", "to summarize", "in summary", "overall", "so in short"}
	fillerTokens   = []string{"um", "uh", "basically", "kinda", "sorta", "stuff", "things like that", "you know"}
	complexityCues = []string{"o(", "time complexity", "space complexity", "logarithmic", "linear time", "quadratic"}
	negationCues   = []string{"not ", "never ", "no need for ", "avoid "}
)

func tokenize(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

func containsAny(text string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(text, c) {
			return true
		}
	}
	return false
}

func countAny(text string, cues []string) int {
	n := 0
	for _, c := range cues {
		n += strings.Count(text, c)
	}
	return n
}

// conceptMatch splits expected concepts into matched and missing by substring
// presence of the normalized concept in the normalized answer.
func (e *Evaluator) conceptMatch(answer string, expected []string) (matched, missing []string) {
	text := strings.ToLower(answer)
	for _, c := range expected {
		canon := e.ont.Normalize(c)
		if canon == "" {
			continue
		}
		if strings.Contains(text, canon) || strings.Contains(text, strings.ToLower(c)) {
			matched = append(matched, canon)
		} else {
			missing = append(missing, canon)
		}
	}
	return matched, missing
}

func relevanceSignal(answer, topic, skill string, conceptFrac float64) (score int, offTopic bool) {
	text := strings.ToLower(answer)
	topicHit := false
	for _, tok := range append(tokenize(topic), tokenize(skill)...) {
		if len(tok) >= 3 && strings.Contains(text, tok) {
			topicHit = true
			break
		}
	}
	s := 60.0 * conceptFrac
	if topicHit {
		s += 40
	}
	if !topicHit && conceptFrac == 0 {
		// nothing in the answer ties to the question
		return clamp(int(s) - 20), true
	}
	return clamp(int(s + 0.5)), false
}

func depthSignal(answer string) (score int, hasExample bool) {
	n := len(answer)
	if n < 50 {
		// hard ceiling for throwaway answers
		if n == 0 {
			return 0, false
		}
		return 20, false
	}
	var base int
	switch {
	case n < 150:
		base = 40
	case n < 400:
		base = 60
	case n < 800:
		base = 80
	default:
		base = 90
	}
	text := strings.ToLower(answer)
	if containsAny(text, structureCues) {
		base += 10
	}
	hasExample = containsAny(text, exampleCues)
	if hasExample {
		base += 10
	}
	return clamp(base), hasExample
}

// correctnessSignal blends concept coverage with contradiction penalties.
// For coding answers testPassFrac (when known) dominates at codingTestWeight.
// The contradiction count is returned so the caller can flag answers built
// on confident negations.
func correctnessSignal(answer string, matched, missing int, testPassFrac float64, hasTests bool) (score, contradictions int) {
	total := matched + missing
	conceptScore := 60.0 // neutral when the question carries no expected concepts
	if total > 0 {
		conceptScore = 100 * float64(matched) / float64(total)
	}
	text := strings.ToLower(answer)
	contradictions = countAny(text, negationCues)
	if contradictions > 3 {
		contradictions = 3
	}
	conceptScore -= float64(contradictions) * 5

	if hasTests {
		return clamp(int(codingTestWeight*testPassFrac*100 + (1-codingTestWeight)*conceptScore + 0.5)), contradictions
	}
	return clamp(int(conceptScore + 0.5)), contradictions
}

func claritySignal(answer string) int {
	if answer == "" {
		return 0
	}
	sentences := sentenceRe.Split(answer, -1)
	var counted, inRange int
	for _, s := range sentences {
		toks := tokenize(s)
		if len(toks) == 0 {
			continue
		}
		counted++
		if len(toks) >= 8 && len(toks) <= 30 {
			inRange++
		}
	}
	base := 60
	if counted > 0 && inRange*2 >= counted {
		base = 85
	}
	base -= 5 * countAny(strings.ToLower(answer), fillerTokens)
	return clamp(base)
}

func structureSignal(answer string) int {
	if answer == "" {
		return 0
	}
	text := strings.ToLower(answer)
	score := 10
	markers := 0
	for _, m := range orderedMarkers {
		if strings.Contains(text, m) {
			markers++
		}
	}
	if markers > 3 {
		markers = 3
	}
	score += markers * 20
	if strings.Contains(answer, "\n\n") {
		score += 20
	}
	if containsAny(text, conclusionCues) {
		score += 20
	}
	return clamp(score)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
