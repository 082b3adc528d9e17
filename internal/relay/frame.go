package relay

import (
	"encoding/json"

	"github.com/goevery/chatrelay/internal/ierr"
)

// Frame is the unit exchanged over a connection, in both directions.
// Client frames carry an event name and a payload, plus an optional id when
// the client expects a reply. Server frames are either deliveries (event +
// data, no id) or replies (id echoed, data or error set).
type Frame struct {
	Id    int              `json:"id,omitempty"`
	Event string           `json:"event"`
	Data  *json.RawMessage `json:"data,omitempty"`
	Error *ierr.Error      `json:"error,omitempty"`
}

func (f Frame) ReplyExpected() bool {
	return f.Id != 0
}

func (f Frame) Reply(data *json.RawMessage) Frame {
	return Frame{
		Id:    f.Id,
		Event: f.Event,
		Data:  data,
	}
}

func (f Frame) ReplyWithError(err ierr.Error) Frame {
	return Frame{
		Id:    f.Id,
		Event: f.Event,
		Error: &err,
	}
}

// NewDelivery builds a server-initiated frame. It panics if the payload is
// not marshallable, which for the envelope types used here cannot happen.
func NewDelivery(event string, payload any) Frame {
	rawJson, err := json.Marshal(payload)
	if err != nil {
		panic("unmarshallable delivery payload: " + err.Error())
	}

	data := json.RawMessage(rawJson)

	return Frame{
		Event: event,
		Data:  &data,
	}
}
