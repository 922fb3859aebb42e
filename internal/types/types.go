package types

// AnalysisReport is the profile derived from a resume
type AnalysisReport struct {
	Summary string `json:"summary" yaml:"summary"`
	Gaps    string `json:"gaps" yaml:"gaps"`
	Roadmap string `json:"roadmap" yaml:"roadmap"`
}

// KeywordsInput is the request body for keyword extraction
type KeywordsInput struct {
	Summary string `json:"summary"`
}

// KeywordsOutput carries the comma-joined top keywords
type KeywordsOutput struct {
	Keywords string `json:"keywords" yaml:"keywords"`
}

// JobPosting is the normalized shape of a job listing, whatever source produced it.
// Location, URL and Source stay nil when the source did not provide them.
type JobPosting struct {
	Title       string  `json:"title" yaml:"title"`
	CompanyName string  `json:"companyName" yaml:"companyName"`
	Location    *string `json:"location" yaml:"location"`
	URL         *string `json:"url" yaml:"url"`
	Source      *string `json:"source" yaml:"source"`
}

// JobsOutput is the response body for job searches
type JobsOutput struct {
	Jobs []JobPosting `json:"jobs" yaml:"jobs"`
}

// JobRecommendation bundles an analysis with the jobs found for its keywords
type JobRecommendation struct {
	Report   AnalysisReport `json:"report" yaml:"report"`
	Keywords string         `json:"keywords" yaml:"keywords"`
	Jobs     []JobPosting   `json:"jobs" yaml:"jobs"`
}

// SourceStatus reports the reachability of one job source
type SourceStatus struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}
