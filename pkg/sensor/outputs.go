package sensor

import (
	"log/slog"

	"github.com/multisensor/multisensor-go/pkg/dispatch"
	"github.com/multisensor/multisensor-go/pkg/fault"
	"github.com/multisensor/multisensor-go/pkg/log"
	"github.com/multisensor/multisensor-go/pkg/model"
)

// Outputs are the collaborators every producer writes to.
type Outputs struct {
	// Accessory is the accessory name written into log requests.
	Accessory string

	// Requests receives log requests.
	Requests dispatch.Requester

	// Faults receives fault codes. May be nil.
	Faults fault.Reporter

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Events receives reading and error events. May be nil.
	Events log.Logger
}

func (o *Outputs) init() {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

func (o *Outputs) request(req dispatch.Request) {
	if o.Requests != nil {
		o.Requests.Request(req)
	}
}

func (o *Outputs) signal(code fault.Code) {
	if o.Faults != nil {
		o.Faults.Signal(code)
	}
}

func (o *Outputs) reading(src log.Source, c *model.Characteristic, value any, raw *uint16) {
	log.Emit(o.Events, log.Event{
		Source:    src,
		Category:  log.CategoryReading,
		Accessory: o.Accessory,
		Reading:   &log.ReadingEvent{Path: c.Path(), Value: value, Raw: raw},
	})
}

func (o *Outputs) failure(src log.Source, context string, err error) {
	log.Emit(o.Events, log.Event{
		Source:    src,
		Category:  log.CategoryError,
		Accessory: o.Accessory,
		Error:     &log.ErrorEventData{Message: err.Error(), Context: context},
	})
}
