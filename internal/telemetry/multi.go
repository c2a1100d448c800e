package telemetry

import (
	"context"
	"errors"
)

// Multi returns an EventEmitter that fans one event out to every non-nil
// emitter. Returns nil when none remain, so EmitAsync no-ops.
func Multi(emitters ...EventEmitter) EventEmitter {
	var live multiEmitter
	for _, e := range emitters {
		if e != nil {
			live = append(live, e)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	default:
		return live
	}
}

type multiEmitter []EventEmitter

// Emit delivers the event to every emitter and joins their errors. One broken
// sink does not stop delivery to the others.
func (m multiEmitter) Emit(ctx context.Context, event *Event) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
