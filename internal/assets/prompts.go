// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at compile time.
package assets

import (
	"bytes"
	_ "embed"
	"text/template"
)

// --- Static prompts (no dynamic data) ---

// AutoEnhancePrompt is sent with an image when no instruction is given.
//
//go:embed prompts/auto-enhance.txt
var AutoEnhancePrompt string

// RemoveObjectPrompt is sent between the image and its mask for object removal.
//
//go:embed prompts/remove-object.txt
var RemoveObjectPrompt string

// ChatSystemPrompt is the system instruction for every chat session.
//
//go:embed prompts/chat-system.txt
var ChatSystemPrompt string

// ChatGreeting is the bot message that opens every transcript.
//
//go:embed prompts/chat-greeting.txt
var ChatGreeting string

// --- Dynamic templates ---

//go:embed prompts/chat-error.txt
var chatErrorTemplate string

// template.Must panics on malformed templates, catching errors at program startup.
var chatErrorTmpl = template.Must(template.New("chat-error").Parse(chatErrorTemplate))

// ErrorData holds the dynamic data injected into error templates.
type ErrorData struct {
	Message string
}

// RenderChatError renders the bot reply shown when a chat message fails.
func RenderChatError(message string) string {
	return renderTemplate(chatErrorTmpl, ErrorData{Message: message})
}

// renderTemplate executes a pre-parsed template with the given data.
func renderTemplate(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	// Execution errors are not expected with these simple templates; whatever
	// was rendered is returned.
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}
