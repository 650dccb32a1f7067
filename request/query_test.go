package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuery(t *testing.T) {
	assert.Equal(t, "", parseQuery(""))
	assert.Equal(t, "a=1&b=two+words", parseQuery("a=1&b=two words"))
	assert.Equal(t, "a=1", parseQuery("a=1&b=null&c=undefined"))
	assert.Equal(t, "a=pre%20escaped", parseQuery("a=!pre%20escaped"))
	assert.Equal(t, "a=1", parseQuery("a=1&broken"))
}
