// Package relay is the entry point of the event processing core.
//
// Process combines rule evaluation and template rendering into a single
// Outcome per event. It performs no I/O, holds no state, and is safe to call
// concurrently with a shared Topic.
package relay

import (
	"github.com/solatis/ntfyrelay/internal/rules"
	"github.com/solatis/ntfyrelay/internal/template"
	"github.com/solatis/ntfyrelay/internal/types"
)

// Action is what the delivery side should do with an event.
type Action int

const (
	ActionDiscard Action = iota
	ActionForward
)

func (a Action) String() string {
	if a == ActionForward {
		return "forward"
	}
	return "discard"
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Outcome is the result of processing one event for one topic.
type Outcome struct {
	Action  Action `json:"action"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"` // set for discards
	Group   int    `json:"group"`            // matching rule group, -1 if none
}

// Forward builds a forwarding outcome.
func Forward(title, message string) Outcome {
	return Outcome{Action: ActionForward, Title: title, Message: message, Group: -1}
}

// Discard builds a discarding outcome.
func Discard(reason string) Outcome {
	return Outcome{Action: ActionDiscard, Reason: reason, Group: -1}
}

// Forwarded reports whether the event should be delivered.
func (o Outcome) Forwarded() bool {
	return o.Action == ActionForward
}

// Process decides whether event is forwarded for topic and renders the
// selected title and message templates.
func Process(event types.Event, topic types.Topic) Outcome {
	// Filters see the original event; raw_message only exists while rendering
	d := rules.Decide(event, topic.Groups)
	if !d.Matched {
		return Discard(d.Reason)
	}

	format, title := d.Templates(topic.Format, topic.Title)
	out := Forward(template.Render(event, title), template.Render(event, format))
	out.Group = d.Group
	return out
}
