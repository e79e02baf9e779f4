package model

// Meta WhatsApp Cloud API webhook payload. Every level below the envelope is
// optional: deliveries for statuses, reactions or non-message fields simply
// leave the slices empty.

// WebhookPayload is the top-level webhook delivery envelope
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents one business account entry
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change wraps a single change notification
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue holds the message data of a change
type ChangeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	Statuses         []Status  `json:"statuses,omitempty"`
}

// Metadata describes the receiving phone number
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact is a WhatsApp contact attached to a delivery
type Contact struct {
	Profile ContactProfile `json:"profile"`
	WaID    string         `json:"wa_id"`
}

// ContactProfile has the contact display name
type ContactProfile struct {
	Name string `json:"name"`
}

// Message represents an incoming WhatsApp message
type Message struct {
	From      string       `json:"from"`
	ID        string       `json:"id"`
	Timestamp string       `json:"timestamp"`
	Type      string       `json:"type"`
	Text      *TextContent `json:"text,omitempty"`
}

// TextContent holds a text message body
type TextContent struct {
	Body string `json:"body"`
}

// Status represents a message delivery status update
type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// ExtractedMessage is the first text message found in a delivery, flattened
// for the dispatch path. Text is empty for non-text message types.
type ExtractedMessage struct {
	SenderNumber string
	MessageID    string
	Text         string
}

// FirstMessage walks the payload and returns the first message present, or
// nil when no level of the envelope carries one. Absence at any depth is a
// normal delivery shape, not an error.
func (p *WebhookPayload) FirstMessage() *ExtractedMessage {
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				extracted := &ExtractedMessage{
					SenderNumber: msg.From,
					MessageID:    msg.ID,
				}
				if msg.Text != nil {
					extracted.Text = msg.Text.Body
				}
				return extracted
			}
		}
	}
	return nil
}
