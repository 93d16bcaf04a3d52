// Package chat holds the state of a single chat session: the message history,
// the input buffer, the decorative model selector and the in-flight request.
//
// The controller never blocks on the network by itself. Event loops call
// Begin, dispatch the returned Pending request however they like, and hand the
// outcome to Complete. Submit chains the three steps for synchronous callers.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/raphaelgruber/gepetto/internal/models"
)

const (
	// MaxInputRows caps the height of the input area.
	MaxInputRows = 6

	// ThinkingText is shown in the placeholder entry while a reply is pending.
	ThinkingText = "Thinking..."
)

// ErrUnknownModel is returned when selecting a model that is not in the catalog.
var ErrUnknownModel = errors.New("unknown model")

// Generator produces a reply for a prompt.
// client.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Pending is a request that has been recorded but not yet resolved.
type Pending struct {
	MessageID string
	Model     string
	Prompt    string
}

// Controller is safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	gen    Generator
	logger *slog.Logger
	now    func() time.Time

	messages    []models.Message
	input       string
	attachments []models.Attachment
	options     []models.ModelOption
	selected    string
	dropdown    bool
	loading     bool
	revision    uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithModels replaces the model selector entries.
func WithModels(options []models.ModelOption) Option {
	return func(c *Controller) {
		if len(options) > 0 {
			c.options = append([]models.ModelOption(nil), options...)
		}
	}
}

// WithSelectedModel sets the initial selection. Unknown IDs are ignored.
func WithSelectedModel(id string) Option {
	return func(c *Controller) {
		if _, ok := models.FindModel(c.options, id); ok {
			c.selected = id
		}
	}
}

// New creates a controller that sends prompts through gen.
func New(gen Generator, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		gen:     gen,
		logger:  logger,
		now:     time.Now,
		options: models.DefaultModels(),
	}
	c.selected = defaultSelection(c.options)

	for _, opt := range opts {
		opt(c)
	}
	if _, ok := models.FindModel(c.options, c.selected); !ok {
		c.selected = defaultSelection(c.options)
	}
	return c
}

func defaultSelection(options []models.ModelOption) string {
	if _, ok := models.FindModel(options, models.DefaultModelID); ok {
		return models.DefaultModelID
	}
	if len(options) > 0 {
		return options[0].ID
	}
	return ""
}

// Begin records the user message for the current input and marks the
// controller as loading. It returns false without side effects when the input
// is blank or a request is already in flight.
func (c *Controller) Begin() (Pending, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading || strings.TrimSpace(c.input) == "" {
		return Pending{}, false
	}

	msg := models.NewMessage(models.RoleUser, c.input, c.timestamp(), c.attachments)
	c.append(msg)

	c.input = ""
	c.attachments = nil
	c.loading = true

	return Pending{MessageID: msg.ID, Model: c.selected, Prompt: msg.Content}, true
}

// Complete resolves the in-flight request. On success the reply is appended
// as an assistant message and returned; failures are only logged.
// Loading is cleared in every case.
func (c *Controller) Complete(p Pending, reply string, err error) (models.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() { c.loading = false }()

	if !c.loading {
		c.logger.Warn("completion without pending request", "message_id", p.MessageID)
		return models.Message{}, false
	}

	if err != nil {
		c.logger.Error("generate failed", "error", err, "model", p.Model, "prompt_len", len(p.Prompt))
		return models.Message{}, false
	}

	msg := models.NewMessage(models.RoleAssistant, reply, c.timestamp(), nil)
	c.append(msg)
	c.logger.Debug("reply received", "message_id", msg.ID, "reply_len", len(reply))
	return msg, true
}

// Submit sends the current input and waits for the reply.
// It returns the assistant message when one was appended.
func (c *Controller) Submit(ctx context.Context) (models.Message, bool) {
	p, ok := c.Begin()
	if !ok {
		return models.Message{}, false
	}

	if c.gen == nil {
		return c.Complete(p, "", fmt.Errorf("submit: no generator configured"))
	}
	reply, err := c.gen.Generate(ctx, p.Model, p.Prompt)
	return c.Complete(p, reply, err)
}

// timestamp returns the current time, never earlier than the last message.
// Callers must hold mu.
func (c *Controller) timestamp() time.Time {
	t := c.now()
	if n := len(c.messages); n > 0 && t.Before(c.messages[n-1].CreatedAt) {
		return c.messages[n-1].CreatedAt
	}
	return t
}

// Callers must hold mu.
func (c *Controller) append(msg models.Message) {
	c.messages = append(c.messages, msg)
	c.revision++
}

// Messages returns a copy of the conversation.
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Placeholder returns the transient "thinking" entry shown while loading.
// It is never part of Messages.
func (c *Controller) Placeholder() (models.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loading {
		return models.Message{}, false
	}
	return models.Message{Role: models.RoleAssistant, Content: ThinkingText}, true
}

// Loading reports whether a request is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Revision increases on every change to the message list.
// Views scroll to the newest message when it changes.
func (c *Controller) Revision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

// SetInput replaces the input buffer.
func (c *Controller) SetInput(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = s
}

// Input returns the input buffer.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// InputRows returns the height of the input area: one row per line, capped
// at MaxInputRows. It drops back to one when the input is sent.
func (c *Controller) InputRows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return min(strings.Count(c.input, "\n")+1, MaxInputRows)
}

// Models returns the model selector entries.
func (c *Controller) Models() []models.ModelOption {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ModelOption(nil), c.options...)
}

// SelectedModel returns the ID of the selected model.
func (c *Controller) SelectedModel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// SelectModel changes the selection and closes the dropdown.
func (c *Controller) SelectModel(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := models.FindModel(c.options, id); !ok {
		return fmt.Errorf("select model %q: %w", id, ErrUnknownModel)
	}
	c.selected = id
	c.dropdown = false
	return nil
}

// ToggleDropdown opens or closes the model dropdown.
func (c *Controller) ToggleDropdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropdown = !c.dropdown
}

// DropdownOpen reports whether the model dropdown is open.
func (c *Controller) DropdownOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropdown
}

// Attach adds a file reference to the next message.
func (c *Controller) Attach(a models.Attachment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attachments = append(c.attachments, a)
}

// Detach removes the pending attachment with the given name.
func (c *Controller) Detach(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, a := range c.attachments {
		if a.Name == name {
			c.attachments = append(c.attachments[:i:i], c.attachments[i+1:]...)
			return true
		}
	}
	return false
}

// PendingAttachments returns the attachments that will go with the next message.
func (c *Controller) PendingAttachments() []models.Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Attachment(nil), c.attachments...)
}
