package wizard

import "procurement/internal/client"

// Controls lists which wizard buttons are shown
type Controls struct {
	Previous bool `json:"previous"`
	Next     bool `json:"next"`
	Submit   bool `json:"submit"`
	Publish  bool `json:"publish"`
	Close    bool `json:"close"`
}

// State is the JSON view model of the wizard for the browser
type State struct {
	Step            int                     `json:"step"`
	StepName        string                  `json:"step_name"`
	ID              string                  `json:"id,omitempty"`
	ReferenceNumber string                  `json:"reference_number,omitempty"`
	Status          string                  `json:"status"`
	ReadOnly        bool                    `json:"read_only"`
	General         client.RFQGeneral       `json:"general"`
	Products        []client.RFQProductLine `json:"products"`
	Controls        Controls                `json:"controls"`
}

func (w *Wizard) State() State {
	ro := w.ReadOnly()
	c := Controls{
		Previous: w.step > StepGeneralInfo,
		Close:    true,
	}
	if ro {
		// navigation only, so a resumed RFQ can be paged through
		c.Next = w.step < StepReviewPublish && w.id != ""
	} else {
		c.Submit = w.step != StepReviewPublish
		c.Publish = w.step == StepReviewPublish
	}
	products := w.Products()
	if products == nil {
		products = []client.RFQProductLine{}
	}
	return State{
		Step:            int(w.step),
		StepName:        w.step.String(),
		ID:              w.id,
		ReferenceNumber: w.ref,
		Status:          string(w.status),
		ReadOnly:        ro,
		General:         w.general,
		Products:        products,
		Controls:        c,
	}
}
