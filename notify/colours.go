package notify

const (
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m" // Bright black, often appears as gray

	ResetColor = "\033[0m" // Reset to default color
)

var levelColors = map[Level]string{
	LevelSuccess: Green,
	LevelInfo:    Cyan,
	LevelError:   Red,
}
