package valueobject

import "fmt"

// Decision is the disposition a screening skill recommends.
type Decision struct {
	value string
	rank  int
}

var (
	DecisionApprove = Decision{value: "APPROVE", rank: 1}
	DecisionReview  = Decision{value: "REVIEW", rank: 2}
	DecisionBlock   = Decision{value: "BLOCK", rank: 3}
)

// DecisionFromString reconstructs a decision from its string representation.
func DecisionFromString(s string) (Decision, error) {
	switch s {
	case "APPROVE":
		return DecisionApprove, nil
	case "REVIEW":
		return DecisionReview, nil
	case "BLOCK":
		return DecisionBlock, nil
	default:
		return Decision{}, fmt.Errorf("invalid decision: %q", s)
	}
}

// DecisionForRiskLevel maps a risk level to its default disposition.
func DecisionForRiskLevel(level RiskLevel) Decision {
	switch {
	case level.AtLeast(RiskLevelCritical):
		return DecisionBlock
	case level.AtLeast(RiskLevelMedium):
		return DecisionReview
	default:
		return DecisionApprove
	}
}

// Escalate returns the more severe of d and other.
func (d Decision) Escalate(other Decision) Decision {
	if other.rank > d.rank {
		return other
	}
	return d
}

// String returns the string representation.
func (d Decision) String() string {
	return d.value
}

// IsBlocking reports whether the decision stops the activity.
func (d Decision) IsBlocking() bool {
	return d.value == DecisionBlock.value
}

// IsZero returns true if the Decision has not been set.
func (d Decision) IsZero() bool {
	return d.value == ""
}
