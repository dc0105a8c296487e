package convert

import (
	"log/slog"
	"strings"

	"github.com/c360studio/semcube/graph"
)

// Report lists what a projection left untouched. It never affects the
// projected document.
type Report struct {
	// TypedNodes is the number of nodes that resolved to a type.
	TypedNodes int

	// MissedSubjects are typed nodes not reachable from the start node.
	MissedSubjects []string

	// UnprocessedFacts are facts of the graph that no attribute or type
	// consumed.
	UnprocessedFacts []graph.Fact
}

// Clean reports whether the projection covered the whole graph.
func (r *Report) Clean() bool {
	return len(r.MissedSubjects) == 0 && len(r.UnprocessedFacts) == 0
}

// Log writes the report as warnings.
func (r *Report) Log(logger *slog.Logger, root string) {
	if len(r.MissedSubjects) > 0 {
		logger.Warn("Projection missed typed subjects",
			"root", root,
			"missed", len(r.MissedSubjects),
			"typed", r.TypedNodes,
			"subjects", r.MissedSubjects)
	}
	if len(r.UnprocessedFacts) > 0 {
		lines := make([]string, len(r.UnprocessedFacts))
		for i, f := range r.UnprocessedFacts {
			lines[i] = f.String()
		}
		logger.Warn("Projection left facts unprocessed",
			"root", root,
			"count", len(r.UnprocessedFacts),
			"facts", strings.Join(lines, "\n"))
	}
}

func (r *run) report() *Report {
	report := &Report{TypedNodes: r.types.Len()}
	for _, node := range r.types.Nodes() {
		if !r.projected[node.Key()] {
			report.MissedSubjects = append(report.MissedSubjects, node.String())
		}
	}
	for _, f := range r.graph.Facts() {
		if !r.consumed[f.Key()] {
			report.UnprocessedFacts = append(report.UnprocessedFacts, f)
		}
	}
	return report
}
