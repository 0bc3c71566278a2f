package bot

import (
	"strings"

	"github.com/OgnevOA/spendy-pants/internal/telegram"
)

// Command is the canonical form of one inbound action, independent of whether
// it arrived as typed text or a button press.
type Command struct {
	// Action is the lower-cased command word without its leading slash, or
	// the button payload verbatim.
	Action string

	// Args are the whitespace-split tokens after the command word. Button
	// presses never carry args; anything they need is re-entered by the
	// user as a follow-up typed command.
	Args []string

	// Rest is everything after the command word with surrounding space
	// trimmed, newlines intact. Commands that take a free-form remainder
	// (group names, edit blocks) read this instead of Args.
	Rest string
}

// Classify maps an inbound event to a Command. The second return is false for
// typed text that is not a command at all; such text gets the fallback reply.
// Image events bypass classification and never reach here.
func Classify(ev telegram.Event) (Command, bool) {
	if ev.Kind == telegram.EventCallback {
		return Command{Action: ev.CallbackData}, true
	}

	text := strings.TrimSpace(ev.Text)
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}

	word := text[1:]
	rest := ""
	if i := strings.IndexFunc(word, isSpace); i >= 0 {
		rest = strings.TrimSpace(word[i:])
		word = word[:i]
	}
	// Group chats append the bot's username to commands.
	if at := strings.Index(word, "@"); at >= 0 {
		word = word[:at]
	}
	if word == "" {
		return Command{}, false
	}

	return Command{
		Action: strings.ToLower(word),
		Args:   strings.Fields(rest),
		Rest:   rest,
	}, true
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
