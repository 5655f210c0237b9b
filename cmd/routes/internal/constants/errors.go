package constants

// DriftMessages holds the human readable texts attached to drift reports.
// Used in: drift/checker.go
var DriftMessages = struct {
	Consistent   string
	Mismatch     string
	Inconclusive string
	Disabled     string
	Timeout      string
}{
	Consistent:   "frontend page size matches backend",
	Mismatch:     "frontend page size differs from backend PAGE_SIZE",
	Inconclusive: "backend returned too few items to determine its page size",
	Disabled:     "drift check disabled",
	Timeout:      "drift check timed out",
}
