package i

// Logger is the leveled logger every component receives through its config.
type Logger interface {
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}
