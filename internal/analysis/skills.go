package analysis

import "strings"

const (
	solidCoverageMessage = "Solid coverage across cloud, data, MLOps, and LLM stacks."
	gapsPrefix           = "Needs evidence in: "
	portfolioRoadmapLine = "Document and publish case studies of delivered projects to strengthen portfolio."
)

// SkillBucket is a named group of marker tokens. A resume shows evidence of the
// bucket when any one marker appears among its tokens.
type SkillBucket struct {
	Name        string
	Markers     []string
	GapLabel    string
	RoadmapStep string
}

// DefaultBuckets are checked in this order for both gaps and roadmap.
var DefaultBuckets = []SkillBucket{
	{
		Name:        "cloud",
		Markers:     []string{"aws", "azure", "gcp"},
		GapLabel:    "Cloud platforms (AWS/Azure/GCP)",
		RoadmapStep: "Earn an associate-level cloud cert (AWS/GCP/Azure) and deploy a small service.",
	},
	{
		Name:        "mlops",
		Markers:     []string{"mlops", "kubeflow", "mlflow", "airflow", "prefect"},
		GapLabel:    "MLOps tooling (Kubeflow/MLflow/Airflow)",
		RoadmapStep: "Ship one end-to-end ML pipeline with orchestration (Prefect/Airflow) and experiment tracking (MLflow).",
	},
	{
		Name:        "data",
		Markers:     []string{"sql", "warehouse", "snowflake", "bigquery", "redshift"},
		GapLabel:    "Data warehousing and SQL depth",
		RoadmapStep: "Improve SQL depth; model a dataset in a warehouse (Snowflake/BigQuery) with CI checks.",
	},
	{
		Name:        "llm",
		Markers:     []string{"llm", "rag", "langchain", "llamaindex"},
		GapLabel:    "LLM app patterns (RAG, LangChain, LlamaIndex)",
		RoadmapStep: "Build a retrieval-augmented generation demo; evaluate responses with test cases.",
	},
}

// SkillCatalog classifies token sets against an ordered list of buckets.
type SkillCatalog struct {
	buckets []SkillBucket
}

func NewSkillCatalog(buckets []SkillBucket) *SkillCatalog {
	cp := make([]SkillBucket, len(buckets))
	copy(cp, buckets)
	return &SkillCatalog{buckets: cp}
}

// Missing returns the buckets with no marker present in tokens, in catalog order.
func (c *SkillCatalog) Missing(tokens []string) []SkillBucket {
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		seen[tok] = struct{}{}
	}

	var missing []SkillBucket
	for _, b := range c.buckets {
		if !hasAny(seen, b.Markers) {
			missing = append(missing, b)
		}
	}
	return missing
}

// DetectSkillGaps describes the missing buckets as one line.
func (c *SkillCatalog) DetectSkillGaps(tokens []string) string {
	missing := c.Missing(tokens)
	if len(missing) == 0 {
		return solidCoverageMessage
	}
	labels := make([]string, len(missing))
	for i, b := range missing {
		labels[i] = b.GapLabel
	}
	return gapsPrefix + strings.Join(labels, "; ")
}

// BuildRoadmap returns one "- " bullet per missing bucket.
func (c *SkillCatalog) BuildRoadmap(tokens []string) string {
	missing := c.Missing(tokens)
	steps := make([]string, 0, len(missing))
	for _, b := range missing {
		steps = append(steps, "- "+b.RoadmapStep)
	}
	if len(steps) == 0 {
		steps = append(steps, "- "+portfolioRoadmapLine)
	}
	return strings.Join(steps, "\n")
}

func hasAny(set map[string]struct{}, markers []string) bool {
	for _, m := range markers {
		if _, ok := set[m]; ok {
			return true
		}
	}
	return false
}
