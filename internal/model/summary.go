package model

// ScanSummary aggregates the outcome of a batch scan.
type ScanSummary struct {
	FilesScanned int
	IssuesFound  int
	FixesApplied int
	Results      []EventResults
}

// Add folds one event's results into the summary.
func (s *ScanSummary) Add(er EventResults) {
	s.FilesScanned++

	for _, result := range er.Results {
		s.IssuesFound += len(result.Issues)
		s.FixesApplied += len(result.Fixes)
	}

	s.Results = append(s.Results, er)
}
