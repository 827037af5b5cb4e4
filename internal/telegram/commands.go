package telegram

import "strings"

const (
	verbStart          = "start"
	verbHelp           = "help"
	verbStatus         = "status"
	verbSubscriptions  = "subscriptions"
	verbMuteAll        = "mute_all"
	verbStop           = "stop"
	verbUnmuteAll      = "unmute_all"
	verbUnsubscribe    = "unsubscribe"
	verbSubscribe      = "subscribe"
	verbUnsubscribeAll = "unsubscribe_all"

	verbUnknown = "unknown"
)

const (
	replyHelp = "LuggageHub bot commands:\n" +
		"/status - linked account and notification state\n" +
		"/subscriptions - your active listing subscriptions\n" +
		"/mute_all or /stop - pause all notifications\n" +
		"/unmute_all - resume notifications\n" +
		"/unsubscribe <id> - pause one subscription\n" +
		"/subscribe <id> - resume one subscription\n" +
		"/unsubscribe_all - pause every subscription\n" +
		"/help - show this message"
	replyUnknown        = "Unknown command. Send /help to see the available commands."
	replyNotLinked      = "This chat is not linked to a LuggageHub account yet. Open the link from your profile page to connect it."
	replyInvalidToken   = "This link has expired or was already used. Request a new one from your profile page."
	replyFailed         = "Something went wrong, please try again later."
	replyMuted          = "Notifications are paused. Send /unmute_all to turn them back on."
	replyUnmuted        = "Notifications are on again."
	replyNoSubscription = "You have no active subscriptions."
)

type command struct {
	verb string
	arg  string
	// bot is the @username suffix of the verb, if any.
	bot string
}

// parseCommand splits "/verb@bot arg" into its parts. ok is false for text
// that is not a slash command.
func parseCommand(text string) (command, bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return command{}, false
	}

	verb := strings.TrimPrefix(fields[0], "/")
	var bot string
	if at := strings.IndexByte(verb, '@'); at >= 0 {
		bot = verb[at+1:]
		verb = verb[:at]
	}

	cmd := command{verb: strings.ToLower(verb), bot: bot}
	if len(fields) > 1 {
		cmd.arg = fields[1]
	}
	return cmd, cmd.verb != ""
}

func (c command) addressedTo(botUsername string) bool {
	if c.bot == "" || botUsername == "" {
		return true
	}
	return strings.EqualFold(c.bot, botUsername)
}

func (c command) known() bool {
	switch c.verb {
	case verbStart, verbHelp, verbStatus, verbSubscriptions, verbMuteAll, verbStop,
		verbUnmuteAll, verbUnsubscribe, verbSubscribe, verbUnsubscribeAll:
		return true
	default:
		return false
	}
}
