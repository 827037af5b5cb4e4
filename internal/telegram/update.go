// Package telegram handles inbound bot updates and the command table.
package telegram

import "strconv"

// Update is the part of a Telegram webhook update the bot reads.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// ChatID renders the chat id the way it is stored on users.
func (c Chat) ChatID() string {
	return strconv.FormatInt(c.ID, 10)
}
