package gallery

// Level is the severity of a user-facing notice
type Level int

const (
	LevelPlain Level = iota
	LevelInfo
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelError:
		return "error"
	default:
		return "plain"
	}
}

// Notice is a transient message for the user. Notices are fire-and-forget:
// the controller never waits on, or reads back from, the sink.
type Notice struct {
	Level Level
	Text  string
}

// Notifier receives notices emitted by the controller
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a plain function to the Notifier interface
type NotifierFunc func(n Notice)

// Notify calls f(n)
func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

// User-facing notice texts
const (
	MsgEmptyQuery   = "Empty string is not a valid search query. Please type again."
	MsgSameQuery    = "Search query is the same as the previous one. Please provide a new search query."
	MsgEndOfResults = "You've reached the end of the search results."
	MsgNoResults    = "No images found. Try a different search."
	msgFetchFailed  = "An error occurred while fetching data: %v"
)
