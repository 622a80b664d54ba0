package appeal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/domain/request"
)

func filedUS(t *testing.T) *request.Record {
	t.Helper()
	r, err := request.NewRecord(request.NewRecordInput{
		Agency:       "EPA",
		Jurisdiction: jurisdiction.USFederal,
		Topic:        "pesticide approvals",
		DateFiled:    day(2024, 1, 2),
	}, jurisdiction.DefaultCalculator(), day(2024, 1, 2))
	require.NoError(t, err)
	return r
}

func citations(gs []Ground) []string {
	out := make([]string, 0, len(gs))
	for _, g := range gs {
		out = append(out, g.Citation)
	}
	return out
}

func TestDecide_ConstructiveDenialFromDerivedState(t *testing.T) {
	r := filedUS(t)

	typ, grounds := Decide(r, nil, day(2024, 2, 5))
	assert.Equal(t, TypeConstructiveDenial, typ)
	assert.Contains(t, citations(grounds), "5 U.S.C. § 552(a)(6)(A)(i)")
}

func TestDecide_ConstructiveDenialWinsOverEarlierPartialRelease(t *testing.T) {
	r := filedUS(t)
	r.Response.PagesReceived = 10
	r.Response.Exemptions = []string{"b5"}
	require.NoError(t, r.MarkConstructiveDenial(day(2024, 2, 1), ""))

	typ, _ := Decide(r, nil, day(2024, 2, 5))
	assert.Equal(t, TypeConstructiveDenial, typ)
}

func TestDecide_PartialDenialReferencesExemption(t *testing.T) {
	r := filedUS(t)
	require.NoError(t, r.RecordResponse(request.ResponseEvent{
		RequestID: r.ID, PagesReceived: 40, PagesWithheld: 12, Exemptions: []string{"b5"},
	}, "", day(2024, 1, 20)))

	typ, grounds := Decide(r, nil, day(2024, 1, 22))
	assert.Equal(t, TypePartialDenial, typ)
	require.NotEmpty(t, grounds)
	assert.Equal(t, "b5", grounds[0].Exemption)
	assert.Contains(t, grounds[0].Citation, "(b)(5)")
	assert.Contains(t, grounds[0].Argument, "deliberative")
}

func TestDecide_FullDenial(t *testing.T) {
	r := filedUS(t)
	require.NoError(t, r.RecordResponse(request.ResponseEvent{
		RequestID: r.ID, PagesWithheld: 30, Exemptions: []string{"b7A"},
	}, "", day(2024, 1, 20)))
	require.Equal(t, request.StatusFullResponse, r.Status())

	typ, grounds := Decide(r, nil, day(2024, 1, 22))
	assert.Equal(t, TypeFullDenial, typ)
	assert.Contains(t, citations(grounds), "Dept. of the Air Force v. Rose, 425 U.S. 352, 361 (1976)")
	assert.Contains(t, citations(grounds), "5 U.S.C. § 552(b)(7)(A)")
}

func TestDecide_SupplementaryGrounds(t *testing.T) {
	r := filedUS(t)
	r.Fee.WaiverRequested = true
	fee := 120.0
	refused := false
	require.NoError(t, r.RecordResponse(request.ResponseEvent{
		RequestID: r.ID, PagesReceived: 5, Exemptions: []string{"b6"},
		RedactionSuspected: true, FeeAssessed: &fee, FeeWaiverGranted: &refused,
	}, "", day(2024, 1, 20)))

	_, grounds := Decide(r, nil, day(2024, 1, 22))
	require.Len(t, grounds, 3)
	assert.Equal(t, "b6", grounds[0].Exemption)
	assert.Equal(t, "5 U.S.C. § 552(b) (final sentence)", grounds[1].Citation)
	assert.Equal(t, "5 U.S.C. § 552(a)(4)(A)(iii)", grounds[2].Citation)
}

func TestDecide_NextRoundKeepsType(t *testing.T) {
	r := filedUS(t)
	require.NoError(t, r.MarkConstructiveDenial(day(2024, 2, 1), ""))
	require.NoError(t, r.Transition(request.StatusAppealed, "", "", day(2024, 2, 2)))

	prev := &Record{Type: TypeConstructiveDenial}
	typ, grounds := Decide(r, prev, day(2024, 6, 1))
	assert.Equal(t, TypeConstructiveDenial, typ)
	assert.NotEmpty(t, grounds)
}

func TestDecide_AppealedByHandWithoutRound(t *testing.T) {
	cd := filedUS(t)
	require.NoError(t, cd.MarkConstructiveDenial(day(2024, 2, 1), ""))
	require.NoError(t, cd.Transition(request.StatusAppealed, "lodged on paper", "clerk", day(2024, 2, 12)))

	typ, grounds := Decide(cd, nil, day(2024, 2, 13))
	assert.Equal(t, TypeConstructiveDenial, typ)
	assert.Contains(t, citations(grounds), "5 U.S.C. § 552(a)(6)(A)(i)")

	partial := filedUS(t)
	require.NoError(t, partial.RecordResponse(request.ResponseEvent{
		RequestID: partial.ID, PagesReceived: 8, PagesWithheld: 2, Exemptions: []string{"b5"},
	}, "", day(2024, 1, 20)))
	require.NoError(t, partial.Transition(request.StatusAppealed, "", "clerk", day(2024, 1, 22)))

	typ, _ = Decide(partial, nil, day(2024, 1, 23))
	assert.Equal(t, TypePartialDenial, typ)
}

func TestExemptionGrounds_UnknownCodeFallsBack(t *testing.T) {
	gs := ExemptionGrounds(jurisdiction.UK, []string{"Section 27", "s99"})
	require.Len(t, gs, 2)
	assert.Equal(t, "FOIA 2000, s.27", gs[0].Citation)
	assert.Contains(t, gs[0].Argument, "international relations")
	assert.Equal(t, "s99", gs[1].Citation)
}

func TestBodyFor(t *testing.T) {
	assert.Contains(t, BodyFor(jurisdiction.USFederal, 2), "Office of Government Information Services")
	assert.Contains(t, BodyFor(jurisdiction.UK, 1), "Internal review")
	assert.Contains(t, BodyFor(jurisdiction.EU, 3), "Ombudsman")
	assert.Contains(t, BodyFor(jurisdiction.Code("US-STATE-OR"), 1), "appeals officer")
}

func TestConstructiveDenialGrounds_PerJurisdiction(t *testing.T) {
	assert.Contains(t, citations(ConstructiveDenialGrounds(jurisdiction.India)), "RTI Act 2005, Section 7(2)")
	assert.Contains(t, citations(ConstructiveDenialGrounds(jurisdiction.UK)), "Freedom of Information Act 2000, s.10(1)")
	assert.Contains(t, citations(ConstructiveDenialGrounds(jurisdiction.EU)), "Regulation (EC) No 1049/2001, Article 7(1)")
}

//Personal.AI order the ending
