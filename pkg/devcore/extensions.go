package devcore

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-corepanel/pkg/schema"
)

// Samples returns the extensions the devcore command hosts by default.
func Samples() []Factory {
	return []Factory{
		{
			ID:          "hello",
			Title:       "Hello",
			Description: "Greets whoever submits the form.",
			Enabled:     true,
			New:         func() Extension { return &Hello{} },
		},
		{
			ID:          "ticker",
			Title:       "Ticker",
			Description: "Streams console lines while running.",
			Enabled:     true,
			New:         func() Extension { return NewTicker(time.Second) },
		},
		{
			ID:          "sandbox",
			Title:       "Sandbox",
			Description: "Disabled until enabled from the list.",
			New:         func() Extension { return &Hello{} },
		},
	}
}

// Hello asks for a name and answers with a dialog.
type Hello struct {
	mu    sync.Mutex
	count int
}

func (h *Hello) Open() schema.Document {
	return h.form("")
}

func (h *Hello) form(name string) schema.Document {
	return schema.New("hello", "Hello", "Tell us <b>who</b> you are.",
		schema.Row(schema.Field{
			Key:         "name",
			Type:        schema.FieldText,
			Label:       "Name",
			Placeholder: "your name",
			Required:    true,
			Value:       name,
		}),
		schema.Row(
			schema.Button(schema.ButtonCancel, "Cancel"),
			schema.Button(schema.ButtonSubmit, "Submit"),
		),
	)
}

func (h *Hello) Submit(ui UI, button string, data map[string]string) error {
	switch button {
	case schema.ButtonSubmit:
		name := strings.TrimSpace(data["name"])
		if name == "" {
			return fmt.Errorf("name is required")
		}
		h.mu.Lock()
		h.count++
		n := h.count
		h.mu.Unlock()
		if err := ui.Update(h.form(name)); err != nil {
			return err
		}
		return ui.Message("Hello", fmt.Sprintf("Hello, %s! (%d)", name, n))
	case schema.ButtonDialogOk, schema.ButtonDialogClose:
		return nil
	default:
		return fmt.Errorf("unknown button %q", button)
	}
}

func (h *Hello) Cancel(ui UI) error {
	return ui.Update(h.form(""))
}

func (h *Hello) Close() {}

// Ticker appends a console line every interval after Start is pressed.
type Ticker struct {
	interval time.Duration

	mu    sync.Mutex
	lines []string
	stop  chan struct{}
}

func NewTicker(interval time.Duration) *Ticker {
	return &Ticker{interval: interval}
}

func (t *Ticker) Open() schema.Document {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.document()
}

func (t *Ticker) document() schema.Document {
	action := schema.Button("Start", "Start")
	if t.stop != nil {
		action = schema.Button("Pause", "Pause")
	}
	return schema.New("ticker", "Ticker", "",
		schema.Row(schema.Field{
			Key:   "log",
			Type:  schema.FieldConsole,
			Label: "Output",
			Value: strings.Join(t.lines, "\n"),
			Lines: 8,
		}),
		schema.Row(action),
	)
}

func (t *Ticker) Submit(ui UI, button string, _ map[string]string) error {
	t.mu.Lock()
	switch button {
	case "Start":
		if t.stop == nil {
			t.stop = make(chan struct{})
			go t.run(ui, t.stop)
		}
	case "Pause":
		t.halt()
	}
	doc := t.document()
	t.mu.Unlock()
	return ui.Update(doc)
}

func (t *Ticker) Cancel(ui UI) error {
	t.mu.Lock()
	t.halt()
	doc := t.document()
	t.mu.Unlock()
	return ui.Update(doc)
}

func (t *Ticker) Close() {
	t.mu.Lock()
	t.halt()
	t.mu.Unlock()
}

func (t *Ticker) halt() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *Ticker) run(ui UI, stop <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			t.mu.Lock()
			t.lines = append(t.lines, fmt.Sprintf("\x1b[36m%s\x1b[0m tick", now.Format(time.TimeOnly)))
			if len(t.lines) > 8 {
				t.lines = t.lines[len(t.lines)-8:]
			}
			doc := t.document()
			t.mu.Unlock()
			// a full queue drops the tick; the next one carries every line
			_ = ui.Update(doc)
		}
	}
}
