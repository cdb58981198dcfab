package ontology

// Static tables. Keys and variants are stored lowercase; Normalize lowercases
// input before lookup.

var synonyms = map[string][]string{
	"javascript":       {"js", "ecmascript", "es6"},
	"typescript":       {"ts"},
	"python":           {"py", "python3"},
	"golang":           {"go"},
	"java":             {},
	"c++":              {"cpp", "cplusplus"},
	"react":            {"reactjs", "react.js"},
	"node.js":          {"node", "nodejs"},
	"postgresql":       {"postgres", "psql"},
	"mysql":            {},
	"mongodb":          {"mongo"},
	"redis":            {},
	"kubernetes":       {"k8s"},
	"docker":           {},
	"aws":              {"amazon web services"},
	"gcp":              {"google cloud", "google cloud platform"},
	"rest apis":        {"rest", "restful", "rest api"},
	"graphql":          {"gql"},
	"data structures":  {"dsa", "data structures and algorithms"},
	"algorithms":       {"algorithm design"},
	"system design":    {"systems design", "architecture design"},
	"sql":              {"structured query language"},
	"machine learning": {"ml"},
	"ci/cd":            {"cicd", "continuous integration", "continuous delivery"},
	"git":              {"version control"},
	"communication":    {"verbal communication", "soft skills"},
	"leadership":       {"team leadership", "people management"},
	"concurrency":      {"multithreading", "parallelism"},
	"caching":          {"cache design"},
	"message queues":   {"mq", "event streaming", "kafka"},
}

var hierarchy = map[string]struct {
	skills          []string
	transferability float64
}{
	"languages": {
		skills:          []string{"javascript", "typescript", "python", "golang", "java", "c++"},
		transferability: 0.6,
	},
	"frontend": {
		skills:          []string{"react", "graphql"},
		transferability: 0.5,
	},
	"backend": {
		skills:          []string{"node.js", "rest apis", "concurrency", "caching", "message queues"},
		transferability: 0.55,
	},
	"databases": {
		skills:          []string{"postgresql", "mysql", "mongodb", "redis", "sql"},
		transferability: 0.7,
	},
	"infrastructure": {
		skills:          []string{"kubernetes", "docker", "aws", "gcp", "ci/cd", "git"},
		transferability: 0.5,
	},
	"fundamentals": {
		skills:          []string{"data structures", "algorithms", "system design", "machine learning"},
		transferability: 0.4,
	},
	"behavioral": {
		skills:          []string{"communication", "leadership"},
		transferability: 0.8,
	},
}

var proficiencyKeywords = map[Proficiency][]string{
	ProficiencyExpert:       {"expert", "architected", "led the design", "deep expertise", "principal"},
	ProficiencyAdvanced:     {"advanced", "extensive experience", "proficient", "senior"},
	ProficiencyIntermediate: {"intermediate", "comfortable with", "working knowledge", "hands-on"},
	ProficiencyBeginner:     {"beginner", "basic", "familiar with", "learning", "exposure to"},
}

// BaselineTopics are the role-independent topics appended to a session plan
// after resume/JD gaps, keyed by interview type.
var BaselineTopics = map[string][]string{
	"technical":  {"data structures", "algorithms", "system design"},
	"coding":     {"data structures", "algorithms"},
	"behavioral": {"communication", "leadership"},
	"mixed":      {"data structures", "system design", "communication"},
}
