package workflow

import (
	"strings"
)

// Commands that do not start a workflow.
const (
	CommandStart  = "start"
	CommandStop   = "stop"
	CommandHelp   = "help"
	CommandCancel = "cancel"
)

// Command is a parsed prefixed keyword.
type Command struct {
	Name string
}

// ParseCommand recognizes "<prefix><keyword>[@bot]". Text after the keyword
// is ignored. A mention of a
// different bot, or a keyword with characters other than letters, digits and
// underscores, is not a command.
func ParseCommand(prefix, botName, text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return Command{}, false
	}
	rest := text[len(prefix):]

	keyword, _, _ := strings.Cut(rest, " ")
	if at := strings.IndexByte(keyword, '@'); at >= 0 {
		mention := keyword[at+1:]
		keyword = keyword[:at]
		if botName != "" && !strings.EqualFold(mention, botName) {
			return Command{}, false
		}
	}
	if !isKeyword(keyword) {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(keyword)}, true
}

func isKeyword(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}
