// Package chat defines the boundary between the conversation core and a
// chat transport.
//
// A transport turns platform updates into Events and renders Replies. The
// core never sees platform identifiers beyond what Ref carries through
// unchanged, and never decides whether a reply is sent as a new message or
// as an edit of the previous one.
package chat

import (
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
)

// EventKind distinguishes between inbound event kinds.
type EventKind int

const (
	// EventText is a message typed by the user.
	EventText EventKind = iota + 1
	// EventButton is a button press carrying an Action.
	EventButton
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventButton:
		return "button"
	default:
		return "unknown"
	}
}

// Ref carries transport identifiers from an Event to its Reply.
// The core copies it and never inspects it.
type Ref struct {
	ChatID     int64
	MessageID  int64
	CallbackID string
}

// Event is one inbound user event.
type Event struct {
	Kind   EventKind
	UserID card.UserID

	// Text is set for EventText.
	Text string

	// Action is set for EventButton. It is the raw action id; see ParseAction.
	Action string

	Ref Ref
}

// TextEvent builds a text event.
func TextEvent(userID card.UserID, text string) Event {
	return Event{Kind: EventText, UserID: userID, Text: text}
}

// ButtonEvent builds a button event.
func ButtonEvent(userID card.UserID, action Action) Event {
	return Event{Kind: EventButton, UserID: userID, Action: action.Value}
}

// ReplyKind distinguishes between outbound instruction kinds.
type ReplyKind int

const (
	// ReplyScreen replaces or follows the conversation with text and buttons.
	ReplyScreen ReplyKind = iota + 1
	// ReplyNotice is a short ephemeral notice (a callback answer).
	ReplyNotice
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyScreen:
		return "screen"
	case ReplyNotice:
		return "notice"
	default:
		return "unknown"
	}
}

// Reply is the single outbound instruction produced for an Event.
//
// Screen text uses the Telegram HTML subset (<b>, <i>, <code>); values that
// came from users are escaped by the presentation layer.
type Reply struct {
	Kind     ReplyKind
	Text     string
	Keyboard Keyboard

	// Urgent asks the transport to show a notice as a blocking alert.
	Urgent bool
}

// Screen builds a screen reply.
func Screen(text string, kb Keyboard) Reply {
	return Reply{Kind: ReplyScreen, Text: text, Keyboard: kb}
}

// Notice builds an ephemeral notice.
func Notice(text string, urgent bool) Reply {
	return Reply{Kind: ReplyNotice, Text: text, Urgent: urgent}
}

// Button is a labeled button. Exactly one of Action or URL is set.
type Button struct {
	Label  string `json:"label"`
	Action string `json:"action,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Keyboard is a set of button rows. A nil Keyboard shows no buttons.
type Keyboard [][]Button
