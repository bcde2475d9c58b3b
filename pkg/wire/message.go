// Package wire defines the line-oriented chat protocol: the Conn transport
// capability, its TCP and WebSocket implementations, and the text vocabulary
// exchanged between server and client.
//
// Every protocol unit is a single newline-terminated ASCII line. Trailing
// carriage returns are tolerated on input and never produced on output.
package wire

// DefaultMaxLineLen is the maximum serialized line length in bytes,
// including the trailing newline. Lines over the limit are never sent;
// receiving one is a transport error.
const DefaultMaxLineLen = 1024

// Server responses.
const (
	RespOK   = "OK"
	RespPong = "PONG"
)

// ERR reasons understood by clients.
const (
	ReasonNotAuthenticated     = "not-authenticated"
	ReasonAlreadyAuthenticated = "already-authenticated"
	ReasonInvalidUsername      = "invalid-username"
	ReasonUsernameTaken        = "username-taken"
	ReasonUnknownCommand       = "unknown-command"
	ReasonEmptyMessage         = "empty-message"
	ReasonInvalidDMFormat      = "invalid-dm-format"
	ReasonUserNotFound         = "user-not-found"
)

// Err builds an "ERR <reason>" response line.
func Err(reason string) string {
	return "ERR " + reason
}

// FormatChat builds the broadcast chat line "MSG <sender> <text>".
func FormatChat(sender, text string) string {
	return "MSG " + sender + " " + text
}

// FormatDM builds the direct-message line "DM <sender> <text>".
func FormatDM(sender, text string) string {
	return "DM " + sender + " " + text
}

// FormatInfo builds the notification line "INFO <text>".
func FormatInfo(text string) string {
	return "INFO " + text
}

// FormatUser builds one "USER <name>" line of a WHO reply.
func FormatUser(name string) string {
	return "USER " + name
}
