package model

import "time"

// SendMessageRequest is the Cloud API payload for sending a text message
type SendMessageRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             SendText `json:"text"`
}

// SendText holds the outbound text body
type SendText struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

// MarkReadRequest is the Cloud API payload for marking a message as read
type MarkReadRequest struct {
	MessagingProduct string `json:"messaging_product"`
	Status           string `json:"status"`
	MessageID        string `json:"message_id"`
}

// SendMessageResponse is the Cloud API response to a send request
type SendMessageResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Messages         []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// GraphErrorResponse is the Cloud API error envelope on non-2xx responses
type GraphErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// APISendRequest is the body of POST /api/v1/send
type APISendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// APIResponse is the standard response envelope of the HTTP API
type APIResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Data    *APISendData `json:"data,omitempty"`
	Error   *APIError    `json:"error,omitempty"`
}

// APISendData is the success payload of POST /api/v1/send
type APISendData struct {
	MessageID string    `json:"message_id"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// APIError carries a machine-readable error code with its message
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
