package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelGatesDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer func() {
		SetOutput(os.Stdout)
		SetLevel("info")
	}()

	SetLevel("info")
	Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetLevel("debug")
	Debugf("shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "level=DEBUG")
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer func() {
		SetOutput(os.Stdout)
		SetLevel("info")
	}()

	SetLevel("chatty")
	Infof("still here")
	Debugf("still hidden")
	assert.Contains(t, buf.String(), "still here")
	assert.NotContains(t, buf.String(), "still hidden")
}

func TestSetOutputRedirects(t *testing.T) {
	var first, second bytes.Buffer
	SetOutput(&first)
	Warnf("one")
	SetOutput(&second)
	Warnf("two")
	defer SetOutput(os.Stdout)

	assert.Contains(t, first.String(), "one")
	assert.NotContains(t, first.String(), "two")
	assert.Contains(t, second.String(), "two")
}
