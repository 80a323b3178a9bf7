package command

import (
	"strings"

	"github.com/keshon/commando/internal/chat"
)

const nbsp = "\u00a0"

// AnyUsage renders how to invoke text with prefix and/or by mentioning bot.
// Both empty renders just the command in code markup.
func AnyUsage(text, prefix string, bot *chat.User) string {
	nb := strings.ReplaceAll(text, " ", nbsp)
	if prefix == "" && bot == nil {
		return "`" + nb + "`"
	}

	var b strings.Builder
	if prefix != "" {
		if len(prefix) > 1 && !strings.HasSuffix(prefix, " ") {
			prefix += " "
		}
		b.WriteString("`" + strings.ReplaceAll(prefix, " ", nbsp) + nb + "`")
	}
	if prefix != "" && bot != nil {
		b.WriteString(" or ")
	}
	if bot != nil {
		b.WriteString("`@" + strings.ReplaceAll(bot.Tag(), " ", nbsp) + nbsp + nb + "`")
	}
	return b.String()
}
