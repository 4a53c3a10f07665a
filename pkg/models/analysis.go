package models

// AnalysisResult is the score returned by the scoring service for one commit
type AnalysisResult struct {
	PerformanceScore     float64 `json:"performance_score"`
	MaintainabilityScore float64 `json:"maintainability_score"`
	Explanation          string  `json:"explanation"`
}

// CommitterSummary holds the finalized averages for one committer email
type CommitterSummary struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Commits         int     `json:"commits"`
	Performance     float64 `json:"performance"`
	Maintainability float64 `json:"maintainability"`
}
