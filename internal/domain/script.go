package domain

import "fmt"

// CommandScript is the ordered list of bot commands issued per cycle. The
// order matters: the bot's game state is sequential, so the script is never
// reordered or parallelized.
type CommandScript []string

func DefaultScript() CommandScript {
	return CommandScript{"/treat", "/iron", "/treat", "/bonus"}
}

// ProfileCommand asks the bot to post the profile card the balance is
// scraped from.
const ProfileCommand = "/profile"

// TransferCommand builds the command that sends the farmed amount to the
// configured recipient.
func TransferCommand(amount int64, recipient string) string {
	return fmt.Sprintf("/give %d %s", amount, recipient)
}

// GroupTitle names a disposable farm group.
func GroupTitle(suffix string) string {
	return "Farm_" + suffix
}
