package executor

// Event is a filesystem change that should trigger a new pass
type Event struct {
	Source string
}

type Executor interface {
	OnWatchEvent(ev Event) error
	Start() error
	Stop() error
}
