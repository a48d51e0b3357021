package workflow

import (
	"fmt"
	"strings"
)

// QuotationStatus is the lifecycle state of a supplier's quotation.
type QuotationStatus string

const (
	QuotationSubmitted   QuotationStatus = "submitted"
	QuotationAccepted    QuotationStatus = "accepted"
	QuotationRejected    QuotationStatus = "rejected"
	QuotationShortlisted QuotationStatus = "shortlisted"
	QuotationAwarded     QuotationStatus = "awarded"
	QuotationPOGenerated QuotationStatus = "po_generated"
)

// QuotationEvent names a transition request against a quotation.
type QuotationEvent string

const (
	EventAccept    QuotationEvent = "accept"
	EventReject    QuotationEvent = "reject"
	EventShortlist QuotationEvent = "shortlist"
	EventAward     QuotationEvent = "award"
)

var quotationStatuses = []QuotationStatus{
	QuotationSubmitted, QuotationAccepted, QuotationRejected,
	QuotationShortlisted, QuotationAwarded, QuotationPOGenerated,
}

var quotationTransitions = map[QuotationEvent]struct {
	from []QuotationStatus
	to   QuotationStatus
}{
	EventAccept:    {from: []QuotationStatus{QuotationSubmitted}, to: QuotationAccepted},
	EventReject:    {from: []QuotationStatus{QuotationSubmitted}, to: QuotationRejected},
	EventShortlist: {from: []QuotationStatus{QuotationSubmitted, QuotationAccepted}, to: QuotationShortlisted},
	EventAward:     {from: []QuotationStatus{QuotationShortlisted}, to: QuotationAwarded},
}

// ParseQuotationStatus normalizes a quotation status string.
func ParseQuotationStatus(s string) (QuotationStatus, error) {
	norm := QuotationStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range quotationStatuses {
		if st == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown quotation status %q", s)
}

// NextQuotation returns the state reached by applying ev to from.
func NextQuotation(from QuotationStatus, ev QuotationEvent) (QuotationStatus, error) {
	t, ok := quotationTransitions[ev]
	if !ok {
		return "", fmt.Errorf("unknown quotation event %q", ev)
	}
	for _, src := range t.from {
		if src == from {
			return t.to, nil
		}
	}
	return "", &TransitionError{Entity: "quotation", From: string(from), Event: string(ev)}
}

// allows reports whether the transition table has ev leaving from
func allows(from QuotationStatus, ev QuotationEvent) bool {
	_, err := NextQuotation(from, ev)
	return err == nil
}

// IsAbsorbing reports states no action can leave.
func (s QuotationStatus) IsAbsorbing() bool {
	return s == QuotationAwarded || s == QuotationRejected || s == QuotationPOGenerated
}

// IsAwarded covers both awarded and the later purchase-order state.
func (s QuotationStatus) IsAwarded() bool {
	return s == QuotationAwarded || s == QuotationPOGenerated
}

// EvaluationState is the subset of an evaluation record the guards look at.
// A nil *EvaluationState means the quotation has not been scored yet.
type EvaluationState struct {
	IsShortlisted bool
	// Outranked is set when another shortlisted evaluation on the same RFQ
	// has a strictly higher total score.
	Outranked bool
}

// CanAcceptOrReject gates the accept and reject buttons. Accept and reject
// are mutually exclusive, so both are offered only while submitted.
func CanAcceptOrReject(q QuotationStatus) bool {
	return allows(q, EventAccept) && allows(q, EventReject)
}

// CanEvaluate is offered only while the RFQ is under evaluation and the
// quotation has no evaluation yet.
func CanEvaluate(rfq RFQStatus, q QuotationStatus, e *EvaluationState) bool {
	return rfq == RFQEvaluation && e == nil && !q.IsAbsorbing()
}

// CanShortlist requires a non-shortlisted evaluation, a quotation that is not
// awarded and an RFQ that is not terminal.
func CanShortlist(rfq RFQStatus, q QuotationStatus, e *EvaluationState) bool {
	if e == nil || e.IsShortlisted {
		return false
	}
	return allows(q, EventShortlist) && !rfq.IsTerminal()
}

// CanAward is true iff the evaluation is shortlisted and holds the top
// shortlisted score, the quotation is not already awarded and the RFQ is
// not terminal. Tied top scores are all eligible; the server keeps the award
// exclusive.
func CanAward(rfq RFQStatus, q QuotationStatus, e *EvaluationState) bool {
	if e == nil || !e.IsShortlisted || e.Outranked {
		return false
	}
	return allows(q, EventAward) && !rfq.IsTerminal()
}

// QuotationActions is the per-row action availability used by list screens.
type QuotationActions struct {
	Accept    bool `json:"accept"`
	Reject    bool `json:"reject"`
	Evaluate  bool `json:"evaluate"`
	Shortlist bool `json:"shortlist"`
	Award     bool `json:"award"`
}

// ActionsFor evaluates every guard for one quotation row.
func ActionsFor(rfq RFQStatus, q QuotationStatus, e *EvaluationState) QuotationActions {
	acceptReject := CanAcceptOrReject(q) && !rfq.IsTerminal()
	return QuotationActions{
		Accept:    acceptReject,
		Reject:    acceptReject,
		Evaluate:  CanEvaluate(rfq, q, e),
		Shortlist: CanShortlist(rfq, q, e),
		Award:     CanAward(rfq, q, e),
	}
}

// QuotationStatuses lists every quotation status in lifecycle order
func QuotationStatuses() []QuotationStatus {
	return append([]QuotationStatus(nil), quotationStatuses...)
}
