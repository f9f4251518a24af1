package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newBufferedEntry(level logrus.Level) (*logrus.Entry, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return logrus.NewEntry(logger), &buf
}

func TestStoreLogAdapter_Levels(t *testing.T) {
	entry, buf := newBufferedEntry(logrus.InfoLevel)
	adapter := NewStoreLogAdapter(entry)

	adapter.Errorf("error %s", "boom")
	adapter.Warningf("warning %d", 42)
	adapter.Infof("info %v", "compaction")
	adapter.Debugf("debug")

	out := buf.String()
	assert.Contains(t, out, "level=error msg=\"error boom\"")
	assert.Contains(t, out, "level=warning msg=\"warning 42\"")
	assert.NotContains(t, out, "compaction", "info is demoted below the info level")
	assert.NotContains(t, out, "msg=debug")
}

func TestStoreLogAdapter_InfoVisibleAtDebug(t *testing.T) {
	entry, buf := newBufferedEntry(logrus.DebugLevel)
	NewStoreLogAdapter(entry).Infof("opening %s", "db")

	assert.Contains(t, buf.String(), "level=debug msg=\"opening db\"")
}
