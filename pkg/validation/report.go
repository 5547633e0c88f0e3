package validation

import "github.com/dukex/stockflow/pkg/models"

// Report is the outcome of one validation pass. Issues keep the order in
// which the checks ran.
type Report struct {
	Issues []models.Issue `json:"issues"`
}

func (r Report) Errors() []models.Issue {
	return r.filter(func(issue models.Issue) bool { return issue.Severity == models.SeverityError })
}

func (r Report) Warnings() []models.Issue {
	return r.filter(func(issue models.Issue) bool { return issue.Severity == models.SeverityWarning })
}

// HasErrors reports whether anything blocks publishing.
func (r Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == models.SeverityError {
			return true
		}
	}

	return false
}

// ForNode returns the issues attributed to one node.
func (r Report) ForNode(nodeID string) []models.Issue {
	return r.filter(func(issue models.Issue) bool { return issue.NodeID == nodeID })
}

// ForEdge returns the issues attributed to one edge.
func (r Report) ForEdge(edgeID string) []models.Issue {
	return r.filter(func(issue models.Issue) bool { return issue.EdgeID == edgeID })
}

// WithCode returns the issues of one kind.
func (r Report) WithCode(code string) []models.Issue {
	return r.filter(func(issue models.Issue) bool { return issue.Code == code })
}

func (r Report) filter(keep func(models.Issue) bool) []models.Issue {
	var issues []models.Issue

	for _, issue := range r.Issues {
		if keep(issue) {
			issues = append(issues, issue)
		}
	}

	return issues
}
