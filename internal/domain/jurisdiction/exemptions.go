package jurisdiction

import (
	"regexp"
	"sort"
	"strings"
)

// Exemption is a statutory ground for withholding.
type Exemption struct {
	Code        string `json:"code"`
	Citation    string `json:"citation"`
	Description string `json:"description"`
}

var exemptionCatalog = map[Code][]Exemption{
	USFederal: {
		{"b1", "5 U.S.C. § 552(b)(1)", "Classified national defense or foreign policy information"},
		{"b2", "5 U.S.C. § 552(b)(2)", "Internal personnel rules and practices"},
		{"b3", "5 U.S.C. § 552(b)(3)", "Specifically exempted by another statute"},
		{"b4", "5 U.S.C. § 552(b)(4)", "Trade secrets and confidential commercial information"},
		{"b5", "5 U.S.C. § 552(b)(5)", "Inter-agency or intra-agency privileged communications"},
		{"b6", "5 U.S.C. § 552(b)(6)", "Personal privacy"},
		{"b7A", "5 U.S.C. § 552(b)(7)(A)", "Law enforcement: interference with proceedings"},
		{"b7B", "5 U.S.C. § 552(b)(7)(B)", "Law enforcement: deprivation of a fair trial"},
		{"b7C", "5 U.S.C. § 552(b)(7)(C)", "Law enforcement: personal privacy"},
		{"b7D", "5 U.S.C. § 552(b)(7)(D)", "Law enforcement: confidential sources"},
		{"b7E", "5 U.S.C. § 552(b)(7)(E)", "Law enforcement: techniques and procedures"},
		{"b7F", "5 U.S.C. § 552(b)(7)(F)", "Law enforcement: endangerment of life or physical safety"},
		{"b8", "5 U.S.C. § 552(b)(8)", "Financial institution examination reports"},
		{"b9", "5 U.S.C. § 552(b)(9)", "Geological and geophysical well data"},
	},
	UK: {
		{"s21", "FOIA 2000, s.21", "Information accessible by other means"},
		{"s22", "FOIA 2000, s.22", "Information intended for future publication"},
		{"s23", "FOIA 2000, s.23", "Security bodies"},
		{"s24", "FOIA 2000, s.24", "National security"},
		{"s26", "FOIA 2000, s.26", "Defence"},
		{"s27", "FOIA 2000, s.27", "International relations"},
		{"s30", "FOIA 2000, s.30", "Investigations and proceedings"},
		{"s31", "FOIA 2000, s.31", "Law enforcement"},
		{"s35", "FOIA 2000, s.35", "Formulation of government policy"},
		{"s36", "FOIA 2000, s.36", "Prejudice to effective conduct of public affairs"},
		{"s38", "FOIA 2000, s.38", "Health and safety"},
		{"s40", "FOIA 2000, s.40", "Personal information"},
		{"s41", "FOIA 2000, s.41", "Information provided in confidence"},
		{"s42", "FOIA 2000, s.42", "Legal professional privilege"},
		{"s43", "FOIA 2000, s.43", "Commercial interests"},
		{"s44", "FOIA 2000, s.44", "Prohibitions on disclosure"},
	},
	India: {
		{"8(1)(a)", "RTI Act 2005, Section 8(1)(a)", "Sovereignty, integrity and security of India"},
		{"8(1)(b)", "RTI Act 2005, Section 8(1)(b)", "Expressly forbidden by a court or tribunal"},
		{"8(1)(c)", "RTI Act 2005, Section 8(1)(c)", "Breach of parliamentary privilege"},
		{"8(1)(d)", "RTI Act 2005, Section 8(1)(d)", "Commercial confidence and trade secrets"},
		{"8(1)(e)", "RTI Act 2005, Section 8(1)(e)", "Fiduciary relationship"},
		{"8(1)(f)", "RTI Act 2005, Section 8(1)(f)", "Received in confidence from a foreign government"},
		{"8(1)(g)", "RTI Act 2005, Section 8(1)(g)", "Endangerment of life or physical safety"},
		{"8(1)(h)", "RTI Act 2005, Section 8(1)(h)", "Impeding investigation or prosecution"},
		{"8(1)(i)", "RTI Act 2005, Section 8(1)(i)", "Cabinet papers"},
		{"8(1)(j)", "RTI Act 2005, Section 8(1)(j)", "Personal information with no public interest"},
	},
	EU: {
		{"4(1)(a)", "Regulation 1049/2001, Article 4(1)(a)", "Public interest: security, defence, international relations, financial policy"},
		{"4(1)(b)", "Regulation 1049/2001, Article 4(1)(b)", "Privacy and integrity of the individual"},
		{"4(2)", "Regulation 1049/2001, Article 4(2)", "Commercial interests, court proceedings, inspections and audits"},
		{"4(3)", "Regulation 1049/2001, Article 4(3)", "Institution's decision-making process"},
	},
}

var (
	usExemptionPattern = regexp.MustCompile(`^\(?B\)?\(?(\d)\)?(?:\(?([A-F])\)?)?$`)
	ukExemptionPattern = regexp.MustCompile(`^(?:S|SECTION)\.?\s*(\d{2})$`)
)

// NormalizeExemption maps common spellings ("(b)(7)(C)", "B5", "Section 40")
// onto catalog codes.  Unrecognized input is returned trimmed.
func NormalizeExemption(code Code, raw string) string {
	s := strings.TrimSpace(raw)
	upper := strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	switch code.Family() {
	case USFederal, USState:
		if m := usExemptionPattern.FindStringSubmatch(upper); m != nil {
			return "b" + m[1] + m[2]
		}
	case UK:
		if m := ukExemptionPattern.FindStringSubmatch(strings.ToUpper(s)); m != nil {
			return "s" + m[1]
		}
	case India:
		return strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(upper, "SECTION"), "S."))
	case EU:
		return strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(upper, "ARTICLE"), "ART."))
	}
	return s
}

// LookupExemption finds an exemption by normalized code.  US state laws use
// their own exemption schemes and are not cataloged.
func LookupExemption(code Code, exemption string) (Exemption, bool) {
	norm := NormalizeExemption(code, exemption)
	for _, e := range exemptionCatalog[code.Family()] {
		if e.Code == norm {
			return e, true
		}
	}
	return Exemption{}, false
}

// Exemptions returns the catalog for a jurisdiction, sorted by code.
func Exemptions(code Code) []Exemption {
	list := append([]Exemption(nil), exemptionCatalog[code.Family()]...)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}

//Personal.AI order the ending
