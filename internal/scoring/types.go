package scoring

// Scoring API request/response structures
type analysisRequest struct {
	CodeDiff      string `json:"code_diff"`
	CommitMessage string `json:"commit_message"`
}

type analysisResponse struct {
	PerformanceScore     *float64 `json:"performance_score"`
	MaintainabilityScore *float64 `json:"maintainability_score"`
	Explanation          string   `json:"explanation"`
}
