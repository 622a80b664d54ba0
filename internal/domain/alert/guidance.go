package alert

import "github.com/turtacn/foia-tracker/internal/domain/jurisdiction"

var overdueGuidance = map[jurisdiction.Code]string{
	jurisdiction.USFederal: "Send a follow-up letter citing 5 U.S.C. Section 552(a)(6)(A). " +
		"Consider filing an administrative appeal or contacting OGIS (ogis@nara.gov). " +
		"Constructive denial of request may entitle you to immediate appeal.",
	jurisdiction.India: "File a first appeal under Section 19(1) of the RTI Act with the First Appellate Authority. " +
		"The PIO's failure to respond within 30 days is deemed a refusal.",
	jurisdiction.UK: "Send a follow-up citing Section 10(1) of FOIA 2000. Request an internal review. " +
		"If no response within a reasonable time, complain to the ICO under Section 50.",
	jurisdiction.EU: "The institution's silence after 15 working days constitutes an implied refusal. " +
		"File a confirmatory application under Article 7(2) of Regulation 1049/2001.",
}

const (
	stateOverdueGuidance = "Send a follow-up letter citing the state public records act and prepare an administrative appeal."
	fallbackGuidance     = "Send a follow-up letter and prepare an appeal."
)

// Guidance returns the suggested action for an alert.  daysRemaining only
// matters for upcoming alerts.
func Guidance(code jurisdiction.Code, kind Kind, daysRemaining int) string {
	if kind == KindOverdue {
		if code.IsState() {
			return stateOverdueGuidance
		}
		if g, ok := overdueGuidance[code.Family()]; ok {
			return g
		}
		return fallbackGuidance
	}
	switch {
	case daysRemaining <= 2:
		return "Prepare appeal materials. Follow up with the agency immediately."
	case daysRemaining <= 5:
		return "Send a courtesy follow-up to the records officer inquiring about status."
	default:
		return "Monitor. No action required yet."
	}
}

//Personal.AI order the ending
