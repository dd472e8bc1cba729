package devcore

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-corepanel/pkg/rpc"
	"github.com/goliatone/go-corepanel/pkg/schema"
)

// ErrQueueFull is returned when an extension pushes faster than the panel
// drains its stream.
var ErrQueueFull = errors.New("devcore: extension queue full")

const queueSize = 8

// UI lets an extension push documents to the connected panel.
type UI interface {
	Update(doc schema.Document) error
	Dialog(doc schema.Document) error
	Message(title, text string) error
	End() error
}

// Extension is a development extension hosted by Server.
type Extension interface {
	// Open returns the document shown when a panel connects.
	Open() schema.Document
	// Submit handles a button press. CloseDialog and OkDialog arrive here too.
	Submit(ui UI, button string, data map[string]string) error
	// Cancel handles the Cancel button.
	Cancel(ui UI) error
	// Close runs when the panel leaves the extension.
	Close()
}

// Factory registers an extension with the server.
type Factory struct {
	ID          string
	Title       string
	Description string
	Enabled     bool
	New         func() Extension
}

type hosted struct {
	factory Factory
	enabled bool
	ext     Extension
	queue   chan *rpc.ExtensionResponse
}

func (h *hosted) push(typ rpc.ExtensionResponseType, doc *schema.Document) error {
	resp := &rpc.ExtensionResponse{ExtensionID: h.factory.ID, Type: typ}
	if doc != nil {
		payload, err := doc.JSON()
		if err != nil {
			return fmt.Errorf("devcore: encode ui for %s: %w", h.factory.ID, err)
		}
		resp.JSONUI = payload
	}
	select {
	case h.queue <- resp:
		return nil
	default:
		return ErrQueueFull
	}
}

func (h *hosted) Update(doc schema.Document) error {
	return h.push(rpc.ExtensionUpdateUI, &doc)
}

func (h *hosted) Dialog(doc schema.Document) error {
	return h.push(rpc.ExtensionShowDialog, &doc)
}

func (h *hosted) Message(title, text string) error {
	return h.Dialog(schema.Message(title, text))
}

func (h *hosted) End() error {
	return h.push(rpc.ExtensionEnd, nil)
}

func (h *hosted) drain() {
	for {
		select {
		case <-h.queue:
		default:
			return
		}
	}
}
