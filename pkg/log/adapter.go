// Package log adapts logrus to the logger interfaces of third-party libraries.
package log

import "github.com/sirupsen/logrus"

// StoreLogAdapter implements badger.Logger using logrus. Badger is chatty at info level,
// so its info messages are demoted to debug.
type StoreLogAdapter struct {
	*logrus.Entry
}

// NewStoreLogAdapter creates a new adapter
func NewStoreLogAdapter(entry *logrus.Entry) *StoreLogAdapter {
	return &StoreLogAdapter{entry}
}

// Errorf logs an error message
func (l *StoreLogAdapter) Errorf(f string, v ...interface{}) { l.Entry.Errorf(f, v...) }

// Warningf logs a warning message
func (l *StoreLogAdapter) Warningf(f string, v ...interface{}) { l.Entry.Warningf(f, v...) }

// Infof logs badger's info messages at debug level
func (l *StoreLogAdapter) Infof(f string, v ...interface{}) { l.Entry.Debugf(f, v...) }

// Debugf logs a debug message
func (l *StoreLogAdapter) Debugf(f string, v ...interface{}) { l.Entry.Debugf(f, v...) }
