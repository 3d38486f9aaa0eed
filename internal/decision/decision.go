// Package decision maps an analysis to a recommended agent action. Rules are
// an ordered table evaluated first-match-wins, so precedence is explicit and
// testable. Everything here is a pure function.
package decision

import "strings"

// Recommended actions.
const (
	ActionEscalate = "Escalate to Senior Agent"
	ActionFinance  = "Route to Finance"
	ActionTech     = "Route to Tech Support"
	ActionStandard = "Standard Reply"
)

// AlertLegalThreat is appended when the body contains legal-threat language.
const AlertLegalThreat = "Legal Threat"

type rule struct {
	match     func(intent, sentiment, priority string) bool
	action    string
	rationale string
}

// Evaluated in order; the first matching rule wins. The final rule always
// matches.
var rules = []rule{
	{
		match: func(_, sentiment, priority string) bool {
			return sentiment == "angry" || priority == "high"
		},
		action:    ActionEscalate,
		rationale: "High risk detected. Requires experienced handling.",
	},
	{
		match: func(intent, _, _ string) bool {
			return strings.Contains(intent, "refund")
		},
		action:    ActionFinance,
		rationale: "Customer is requesting a refund.",
	},
	{
		match: func(intent, _, _ string) bool {
			return strings.Contains(intent, "login") ||
				strings.Contains(intent, "tech") ||
				strings.Contains(intent, "account")
		},
		action:    ActionTech,
		rationale: "Technical issue identified.",
	},
	{
		match:     func(_, _, _ string) bool { return true },
		action:    ActionStandard,
		rationale: "Routine inquiry.",
	},
}

// complianceKeywords trigger a Legal Threat alert when present in the body.
var complianceKeywords = []string{"sue", "lawyer", "scam", "cheat"}

// Recommend returns the recommended action and rationale for the given
// normalized labels.
func Recommend(intent, sentiment, priority string) (action, rationale string) {
	for _, r := range rules {
		if r.match(intent, sentiment, priority) {
			return r.action, r.rationale
		}
	}
	// unreachable: the last rule always matches
	return ActionStandard, "Routine inquiry."
}

// ComplianceScan checks the raw body for compliance keywords. Multiple hits
// of the same kind yield a single alert.
func ComplianceScan(text string) []string {
	lower := strings.ToLower(text)
	var alerts []string
	for _, kw := range complianceKeywords {
		if strings.Contains(lower, kw) {
			alerts = append(alerts, AlertLegalThreat)
			break
		}
	}
	return alerts
}
