package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSet(t *testing.T) {
	s := NewStringSet("b", "a", "b")
	assert.True(t, s.Contains("a"))
	assert.False(t, s.Contains("c"))
	assert.Equal(t, []string{"a", "b"}, s.GetSlice())

	s.Add("c")
	s.Remove("a")
	assert.Equal(t, []string{"b", "c"}, s.GetSlice())

	assert.Empty(t, NewStringSetSized(4).GetSlice())
	assert.Equal(t, []string{"x"}, NewStringSetFromSlice([]string{"x"}).GetSlice())
}
