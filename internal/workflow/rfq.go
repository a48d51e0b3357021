// Package workflow holds the RFQ and quotation state machines. The API enforces
// transitions with it and the dashboard gates its action buttons with the same
// definitions.
package workflow

import (
	"fmt"
	"strings"
)

// RFQStatus is the lifecycle state of a request for quotation.
type RFQStatus string

const (
	RFQDraft       RFQStatus = "draft"
	RFQPublished   RFQStatus = "published"
	RFQEvaluation  RFQStatus = "evaluation"
	RFQClosed      RFQStatus = "closed"
	RFQCancelled   RFQStatus = "cancelled"
	RFQAwarded     RFQStatus = "awarded"
	RFQPOGenerated RFQStatus = "po_generated"
)

// RFQEvent names a transition request against an RFQ.
type RFQEvent string

const (
	EventPublish          RFQEvent = "publish"
	EventMoveToEvaluation RFQEvent = "moveToEvaluation"
	EventClose            RFQEvent = "close"
	EventCancel           RFQEvent = "cancel"
	EventAwardRFQ         RFQEvent = "award"
	EventGeneratePO       RFQEvent = "generatePO"
)

var rfqStatuses = []RFQStatus{
	RFQDraft, RFQPublished, RFQEvaluation, RFQClosed, RFQCancelled, RFQAwarded, RFQPOGenerated,
}

// rfqTransitions maps event -> allowed source states -> target state.
var rfqTransitions = map[RFQEvent]struct {
	from []RFQStatus
	to   RFQStatus
}{
	EventPublish:          {from: []RFQStatus{RFQDraft}, to: RFQPublished},
	EventMoveToEvaluation: {from: []RFQStatus{RFQPublished}, to: RFQEvaluation},
	EventClose:            {from: []RFQStatus{RFQEvaluation, RFQAwarded}, to: RFQClosed},
	EventCancel:           {from: []RFQStatus{RFQDraft, RFQPublished, RFQEvaluation}, to: RFQCancelled},
	EventAwardRFQ:         {from: []RFQStatus{RFQEvaluation}, to: RFQAwarded},
	EventGeneratePO:       {from: []RFQStatus{RFQAwarded}, to: RFQPOGenerated},
}

// TransitionError reports an event that is not allowed from the current state.
type TransitionError struct {
	Entity string
	From   string
	Event  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s in status %q", e.Event, e.Entity, e.From)
}

// ParseRFQStatus normalizes a status string coming from storage or the wire.
func ParseRFQStatus(s string) (RFQStatus, error) {
	norm := RFQStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range rfqStatuses {
		if st == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown rfq status %q", s)
}

// NextRFQ returns the state reached by applying ev to from.
func NextRFQ(from RFQStatus, ev RFQEvent) (RFQStatus, error) {
	t, ok := rfqTransitions[ev]
	if !ok {
		return "", fmt.Errorf("unknown rfq event %q", ev)
	}
	for _, src := range t.from {
		if src == from {
			return t.to, nil
		}
	}
	return "", &TransitionError{Entity: "rfq", From: string(from), Event: string(ev)}
}

// CanRFQ reports whether ev is allowed from the given state.
func CanRFQ(from RFQStatus, ev RFQEvent) bool {
	_, err := NextRFQ(from, ev)
	return err == nil
}

// IsTerminal reports whether no further quotation work may happen on the RFQ.
func (s RFQStatus) IsTerminal() bool {
	switch s {
	case RFQClosed, RFQCancelled, RFQPOGenerated, RFQAwarded:
		return true
	}
	return false
}

// ProductsEditable is true only while the RFQ is a draft.
func (s RFQStatus) ProductsEditable() bool {
	return s == RFQDraft
}

// AcceptsQuotations is true while suppliers may still submit.
func (s RFQStatus) AcceptsQuotations() bool {
	return s == RFQPublished
}

// WizardReadOnly gates every wizard step: anything but a draft, or a wizard
// opened view-only, renders non-editable and hides Publish.
func WizardReadOnly(status RFQStatus, viewOnly bool) bool {
	return viewOnly || status != RFQDraft
}

// RFQActions lists the list-screen transitions available for a status.
func RFQActions(s RFQStatus) map[RFQEvent]bool {
	return map[RFQEvent]bool{
		EventPublish:          CanRFQ(s, EventPublish),
		EventMoveToEvaluation: CanRFQ(s, EventMoveToEvaluation),
		EventClose:            CanRFQ(s, EventClose),
		EventCancel:           CanRFQ(s, EventCancel),
	}
}

// RFQStatuses lists every RFQ status in lifecycle order
func RFQStatuses() []RFQStatus {
	return append([]RFQStatus(nil), rfqStatuses...)
}
