package domain

// Decision is the retrieval strategy chosen for a query.
type Decision string

const (
	// DecisionLocalOnly answers from the knowledge base alone.
	DecisionLocalOnly Decision = "local_only"
	// DecisionWebOnly answers from external search alone.
	DecisionWebOnly Decision = "web_only"
	// DecisionHybrid merges both sources.
	DecisionHybrid Decision = "hybrid"
)

// ScoreBreakdown explains a routing decision. It travels with the resolved
// candidates so callers can log and expose why a strategy was chosen.
type ScoreBreakdown struct {
	DomainRelevance    float64
	LocalQuality       float64
	CombinedConfidence float64
	Decision           Decision
	Reason             string
}
