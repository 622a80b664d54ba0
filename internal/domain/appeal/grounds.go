package appeal

import (
	"fmt"
	"time"

	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/domain/request"
)

// ─────────────────────────────────────────────────────────────────────────────
// Statutory non-response
// ─────────────────────────────────────────────────────────────────────────────

var nonResponseGrounds = map[jurisdiction.Code][]Ground{
	jurisdiction.USFederal: {
		{
			Citation: "5 U.S.C. § 552(a)(6)(A)(i)",
			Argument: "The agency has failed to comply with the 20 business day response requirement. " +
				"This failure constitutes a constructive denial of the request and entitles the requester to appeal.",
		},
		{
			Citation: "Oglesby v. U.S. Dept. of Army, 920 F.2d 57 (D.C. Cir. 1990)",
			Argument: "Where an agency fails to respond within the statutory period the requester is deemed to have " +
				"exhausted administrative remedies as to the initial determination.",
		},
	},
	jurisdiction.USState: {
		{
			Citation: "State public records act, response period",
			Argument: "The agency failed to respond within the period set by the state public records act. " +
				"The failure to respond is treated as a denial subject to administrative appeal.",
		},
	},
	jurisdiction.India: {
		{
			Citation: "RTI Act 2005, Section 7(1)",
			Argument: "The PIO has failed to provide information within the 30-day period prescribed by Section 7(1).",
		},
		{
			Citation: "RTI Act 2005, Section 7(2)",
			Argument: "Under Section 7(2), the failure to give a decision within the prescribed period is deemed a refusal. " +
				"The PIO may be liable for penalty under Section 20.",
		},
	},
	jurisdiction.UK: {
		{
			Citation: "Freedom of Information Act 2000, s.10(1)",
			Argument: "The authority has failed to comply with the 20 working day time limit imposed by Section 10(1). " +
				"This constitutes a breach of the Act.",
		},
	},
	jurisdiction.EU: {
		{
			Citation: "Regulation (EC) No 1049/2001, Article 7(1)",
			Argument: "The institution has failed to reply within the 15 working day deadline prescribed by Article 7(1). " +
				"Under Article 8(3) the failure to reply is a negative reply and the applicant may submit a confirmatory application.",
		},
	},
}

// ─────────────────────────────────────────────────────────────────────────────
// General denial challenge
// ─────────────────────────────────────────────────────────────────────────────

var denialGrounds = map[jurisdiction.Code][]Ground{
	jurisdiction.USFederal: {
		{
			Citation: "Dept. of the Air Force v. Rose, 425 U.S. 352, 361 (1976)",
			Argument: "FOIA exemptions must be narrowly construed and the burden of justifying non-disclosure rests with the agency.",
		},
		{
			Citation: "5 U.S.C. § 552(a)(4)(B)",
			Argument: "The agency has not demonstrated an adequate search or a sufficient justification for non-disclosure; " +
				"the requester reserves the right to seek judicial review.",
		},
	},
	jurisdiction.USState: {
		{
			Citation: "State public records act, presumption of openness",
			Argument: "Public records are presumed open and exemptions are construed narrowly against the agency.",
		},
	},
	jurisdiction.India: {
		{
			Citation: "RTI Act 2005, Section 8(2)",
			Argument: "Even where Section 8(1) applies, information may be disclosed if the public interest in disclosure " +
				"outweighs the harm to the protected interest. The burden of justifying refusal rests with the public authority.",
		},
	},
	jurisdiction.UK: {
		{
			Citation: "Freedom of Information Act 2000, s.2(2)(b)",
			Argument: "Where a qualified exemption is relied upon, the authority must show that the public interest in " +
				"maintaining the exemption outweighs the public interest in disclosure.",
		},
	},
	jurisdiction.EU: {
		{
			Citation: "Regulation (EC) No 1049/2001, Articles 1 and 4",
			Argument: "Article 4 exceptions must be interpreted narrowly, in light of the principle of the widest possible " +
				"public access. The institution bears the burden of demonstrating that a document falls within an exception.",
		},
	},
}

// ─────────────────────────────────────────────────────────────────────────────
// Per-exemption rebuttals
// ─────────────────────────────────────────────────────────────────────────────

var exemptionRebuttals = map[jurisdiction.Code]map[string]string{
	jurisdiction.USFederal: {
		"b1": "The agency has not shown that the records were properly classified under the substantive and procedural criteria of the governing executive order.",
		"b2": "Exemption 2 reaches only records relating solely to internal personnel rules and practices. See Milner v. Dept. of the Navy, 562 U.S. 562 (2011).",
		"b3": "The agency has not identified a withholding statute that leaves no discretion or establishes particular criteria, as Exemption 3 requires.",
		"b4": "The agency has not shown that the information is commercial, obtained from a person, and privileged or confidential.",
		"b5": "Exemption 5 protects only predecisional and deliberative material. Purely factual material must be released, " +
			"and the agency must reasonably foresee harm from disclosure under 5 U.S.C. § 552(a)(8).",
		"b6": "The privacy interest asserted does not outweigh the public interest in understanding government operations; " +
			"disclosure would not be a clearly unwarranted invasion of personal privacy.",
		"b7A": "The agency has not identified a pending or reasonably anticipated enforcement proceeding that disclosure would interfere with.",
		"b7C": "The agency has not balanced the privacy interest against the public interest in disclosure on a record-by-record basis.",
		"b7D": "The agency has not shown an express or implied assurance of confidentiality for each source withheld.",
		"b7E": "Exemption 7(E) does not protect techniques and procedures already known to the public.",
	},
	jurisdiction.UK: {
		"s35": "Section 35 is a qualified exemption. Once policy has been formulated, the public interest in withholding diminishes considerably.",
		"s36": "The authority has not shown that a qualified person gave a reasonable opinion under Section 36(2).",
		"s40": "Personal data of officials acting in a public capacity may be disclosed where processing is lawful and fair.",
		"s41": "The authority has not shown that disclosure would be an actionable breach of confidence.",
		"s43": "The authority has not shown that disclosure would, or would be likely to, prejudice commercial interests.",
	},
	jurisdiction.India: {
		"8(1)(d)": "The public authority has not shown that disclosure would harm the competitive position of a third party, " +
			"and larger public interest warrants disclosure.",
		"8(1)(e)": "No fiduciary relationship exists between the public authority and the information sought.",
		"8(1)(h)": "The public authority has not shown how disclosure would impede a pending investigation or prosecution.",
		"8(1)(j)": "The information relates to public activity and the larger public interest justifies disclosure.",
	},
	jurisdiction.EU: {
		"4(1)(b)": "Names of officials acting in their professional capacity do not engage the protection of private life.",
		"4(2)": "The institution has not shown a reasonably foreseeable and not purely hypothetical risk to the protected interest, " +
			"nor weighed the overriding public interest in disclosure.",
		"4(3)": "The decision has been taken; the institution has not shown that disclosure would seriously undermine its decision-making process.",
	},
}

// ─────────────────────────────────────────────────────────────────────────────
// Supplementary grounds and appeal bodies
// ─────────────────────────────────────────────────────────────────────────────

var segregabilityCitations = map[jurisdiction.Code]string{
	jurisdiction.USFederal: "5 U.S.C. § 552(b) (final sentence)",
	jurisdiction.USState:   "State public records act, redaction of exempt portions",
	jurisdiction.India:     "RTI Act 2005, Section 10(1)",
	jurisdiction.UK:        "Freedom of Information Act 2000, s.1(1)",
	jurisdiction.EU:        "Regulation (EC) No 1049/2001, Article 4(6)",
}

var feeWaiverCitations = map[jurisdiction.Code]string{
	jurisdiction.USFederal: "5 U.S.C. § 552(a)(4)(A)(iii)",
	jurisdiction.India:     "RTI Act 2005, Section 7(5)",
	jurisdiction.UK:        "Freedom of Information Act 2000, s.9",
	jurisdiction.EU:        "Regulation (EC) No 1049/2001, Article 10(1)",
}

var appealBodies = map[jurisdiction.Code][2]string{
	jurisdiction.USFederal: {
		"Agency FOIA Appeals Officer (5 U.S.C. § 552(a)(6)(A)(ii))",
		"Office of Government Information Services mediation (5 U.S.C. § 552(h)), then U.S. District Court (5 U.S.C. § 552(a)(4)(B))",
	},
	jurisdiction.USState: {
		"Agency head or designated appeals officer",
		"State court of competent jurisdiction",
	},
	jurisdiction.India: {
		"First Appellate Authority (RTI Act 2005, Section 19(1))",
		"Central or State Information Commission (RTI Act 2005, Section 19(3))",
	},
	jurisdiction.UK: {
		"Internal review by the public authority (Section 45 Code of Practice)",
		"Information Commissioner's Office (FOIA 2000, s.50)",
	},
	jurisdiction.EU: {
		"Confirmatory application to the institution (Regulation 1049/2001, Article 7(2))",
		"European Ombudsman (Article 228 TFEU) or General Court (Article 263 TFEU)",
	},
}

// BodyFor names the body that hears the given round.
func BodyFor(code jurisdiction.Code, round int) string {
	bodies, ok := appealBodies[code.Family()]
	if !ok {
		return "Appeals officer"
	}
	if round <= 1 {
		return bodies[0]
	}
	return bodies[1]
}

// ConstructiveDenialGrounds cites the statutory response period.
func ConstructiveDenialGrounds(code jurisdiction.Code) []Ground {
	if g, ok := nonResponseGrounds[code.Family()]; ok {
		return append([]Ground(nil), g...)
	}
	return []Ground{{
		Citation: "Statutory response period",
		Argument: "The agency failed to respond within the legally required timeframe.",
	}}
}

// DenialChallengeGrounds cites the general burden on the withholding agency.
func DenialChallengeGrounds(code jurisdiction.Code) []Ground {
	if g, ok := denialGrounds[code.Family()]; ok {
		return append([]Ground(nil), g...)
	}
	return []Ground{{
		Citation: "General denial challenge",
		Argument: "The agency's response was inadequate and does not justify non-disclosure.",
	}}
}

// ExemptionGrounds builds one rebuttal per cited exemption, in order.
func ExemptionGrounds(code jurisdiction.Code, exemptions []string) []Ground {
	out := make([]Ground, 0, len(exemptions))
	rebuttals := exemptionRebuttals[code.Family()]
	for _, raw := range exemptions {
		norm := jurisdiction.NormalizeExemption(code, raw)
		citation := norm
		desc := ""
		if e, ok := jurisdiction.LookupExemption(code, norm); ok {
			citation, desc = e.Citation, e.Description
		}
		arg, ok := rebuttals[norm]
		if !ok {
			if desc != "" {
				arg = fmt.Sprintf("The exemption for %s was improperly applied. ", lowerFirst(desc))
			} else {
				arg = fmt.Sprintf("The exemption cited (%s) was improperly applied. ", norm)
			}
			arg += "The records do not fall within its scope, or the agency has failed to demonstrate the harm that would result from disclosure."
		}
		out = append(out, Ground{Citation: citation, Argument: arg, Exemption: norm})
	}
	return out
}

// SegregabilityGround demands release of non-exempt portions.
func SegregabilityGround(code jurisdiction.Code) Ground {
	citation, ok := segregabilityCitations[code.Family()]
	if !ok {
		citation = "Segregability"
	}
	return Ground{
		Citation: citation,
		Argument: "The redactions appear broader than any exemption permits. All reasonably segregable, non-exempt portions " +
			"must be released, with each withholding identified (for example in a Vaughn index).",
	}
}

// FeeWaiverGround challenges a refused fee waiver.
func FeeWaiverGround(code jurisdiction.Code) Ground {
	citation, ok := feeWaiverCitations[code.Family()]
	if !ok {
		citation = "Fee waiver"
	}
	return Ground{
		Citation: citation,
		Argument: "The denial of the fee waiver was improper. The requester seeks information in the public interest, " +
			"and disclosure will contribute significantly to public understanding of government operations.",
	}
}

// Decide selects the appeal type and default grounds for a record as of now.
// A constructive denial always wins over any earlier partial release.  For
// a later round the parent is already Appealed and the type of the previous
// round carries over.  A parent Appealed with no round yet is judged on the
// status it held before the appeal.
func Decide(r *request.Record, previous *Record, now time.Time) (Type, []Ground) {
	var t Type
	decided := r.DecisionStatus(now)
	switch {
	case r.Status() == request.StatusAppealed && previous != nil:
		t = previous.Type
	case decided == request.StatusConstructiveDenial:
		t = TypeConstructiveDenial
	case len(r.Response.Exemptions) > 0 &&
		(decided == request.StatusPartialResponse || r.Response.PagesReceived > 0):
		t = TypePartialDenial
	default:
		t = TypeFullDenial
	}
	return t, groundsFor(t, r)
}

func groundsFor(t Type, r *request.Record) []Ground {
	var grounds []Ground
	switch t {
	case TypeConstructiveDenial:
		grounds = ConstructiveDenialGrounds(r.Jurisdiction)
	case TypePartialDenial:
		grounds = ExemptionGrounds(r.Jurisdiction, r.Response.Exemptions)
	default:
		grounds = append(DenialChallengeGrounds(r.Jurisdiction), ExemptionGrounds(r.Jurisdiction, r.Response.Exemptions)...)
	}

	if r.Response.RedactionSuspected {
		grounds = append(grounds, SegregabilityGround(r.Jurisdiction))
	}
	if r.Fee.WaiverRequested && r.Fee.Assessed != nil && *r.Fee.Assessed > 0 &&
		(r.Fee.WaiverGranted == nil || !*r.Fee.WaiverGranted) {
		grounds = append(grounds, FeeWaiverGround(r.Jurisdiction))
	}
	return grounds
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

//Personal.AI order the ending
