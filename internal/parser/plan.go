package parser

import (
	"github.com/Sathvik2005/Prepforge-sub003/internal/ontology"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/model"
)

// maxPlanGapSkills caps how many resume/JD gap skills seed the plan before
// baseline role topics are appended.
const maxPlanGapSkills = 6

var proficiencyRank = map[ontology.Proficiency]int{
	ontology.ProficiencyBeginner:     1,
	ontology.ProficiencyIntermediate: 2,
	ontology.ProficiencyAdvanced:     3,
	ontology.ProficiencyExpert:       4,
}

// PlanSkills derives the ordered topic plan for a session from the resume/JD
// skill gap: JD skills absent from the resume first, then JD skills held
// below intermediate, then baseline topics for the interview type. Order is
// deterministic: severity first, then JD mention order.
func PlanSkills(resume, jd *Parsed, ont *ontology.Ontology, itype model.InterviewType) []string {
	resumeLevel := map[string]ontology.Proficiency{}
	if resume != nil {
		for _, m := range resume.Skills {
			resumeLevel[m.Skill] = m.Proficiency
		}
	}

	var missing, shallow []string
	if jd != nil {
		for _, m := range jd.Skills {
			level, has := resumeLevel[m.Skill]
			switch {
			case !has:
				missing = append(missing, m.Skill)
			case proficiencyRank[level] < proficiencyRank[ontology.ProficiencyIntermediate]:
				shallow = append(shallow, m.Skill)
			}
		}
	}

	plan := make([]string, 0, maxPlanGapSkills+4)
	seen := map[string]bool{}
	add := func(skills []string) {
		for _, s := range skills {
			if len(plan) >= maxPlanGapSkills {
				return
			}
			if !seen[s] {
				seen[s] = true
				plan = append(plan, s)
			}
		}
	}
	add(missing)
	add(shallow)

	for _, topic := range ontology.BaselineTopics[string(itype)] {
		canon := ont.Normalize(topic)
		if !seen[canon] {
			seen[canon] = true
			plan = append(plan, canon)
		}
	}
	return plan
}
