package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedDrain(t *testing.T) {
	f := NewFeed(8)
	f.Success("Appointment created successfully")
	f.Error("Failed to load available doctors")

	notices := f.Drain()
	assert.Len(t, notices, 2)
	assert.Equal(t, LevelSuccess, notices[0].Level)
	assert.Equal(t, "Appointment created successfully", notices[0].Message)
	assert.Equal(t, LevelError, notices[1].Level)

	assert.Empty(t, f.Drain(), "second drain should be empty")
}

func TestFeedBound(t *testing.T) {
	f := NewFeed(3)
	f.Error("one")
	f.Error("two")
	f.Error("three")
	f.Error("four")

	notices := f.Drain()
	assert.Len(t, notices, 3)
	assert.Equal(t, "two", notices[0].Message, "oldest notice should be dropped")
	assert.Equal(t, "four", notices[2].Message)
}

func TestMultiFansOut(t *testing.T) {
	a := NewFeed(4)
	b := NewFeed(4)
	n := Multi(a, b)

	n.Success("ok")
	n.Error("bad")

	assert.Len(t, a.Drain(), 2)
	assert.Len(t, b.Drain(), 2)
}
