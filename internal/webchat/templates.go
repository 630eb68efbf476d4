// ABOUTME: Template data for the end-user pages.
// ABOUTME: One chat template serves both the signed-in chat and the widget.

package webchat

import "github.com/2389/shopdesk/internal/chat"

type loginData struct {
	Title     string
	Error     string
	Username  string
	CSRFToken string
}

type chatData struct {
	Title     string
	Username  string
	CSRFToken string
	Nonce     string
	Messages  []chat.Message
	Status    chat.Indicator
	Error     string
	Welcome   bool
	Widget    bool
}

// Base is the path prefix the chat forms post to.
func (d chatData) Base() string {
	if d.Widget {
		return widgetPath
	}
	return chatPath
}
