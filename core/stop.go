package core

import (
	"os"
	"sync"
)

// StopSignal is a one shot stop shared by every watcher. It fires the
// first time the stop file is seen, which consumes the file, or when
// Trigger is called. Once fired it stays fired.
type StopSignal struct {
	path  string
	mtx   sync.Mutex
	done  chan struct{}
	fired bool
}

// NewStopSignal returns a StopSignal watching the file at path. An empty
// path disables the file check.
func NewStopSignal(path string) *StopSignal {
	return &StopSignal{
		path: path,
		done: make(chan struct{}),
	}
}

// Check returns whether the signal has fired, consuming the stop file
// if it is present.
func (s *StopSignal) Check() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.fired {
		return true
	}
	if s.path == "" {
		return false
	}
	if _, err := os.Stat(s.path); err != nil {
		return false
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		log.Errorf("Error removing stop file %s: %s", s.path, err)
	}
	log.Infof("Stop file %s found", s.path)
	s.fire()
	return true
}

// Trigger fires the signal.
func (s *StopSignal) Trigger() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.fired {
		s.fire()
	}
}

// Done is closed when the signal fires.
func (s *StopSignal) Done() <-chan struct{} {
	return s.done
}

func (s *StopSignal) fire() {
	s.fired = true
	close(s.done)
}
