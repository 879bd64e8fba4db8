package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValue(t *testing.T) {
	k, v, ok := KeyValue("token=a=b", '=')
	assert.True(t, ok)
	assert.Equal(t, "token", k)
	assert.Equal(t, "a=b", v)

	k, v, ok = KeyValue("X-Key: abc")
	assert.True(t, ok)
	assert.Equal(t, "X-Key", k)
	assert.Equal(t, " abc", v)

	_, _, ok = KeyValue("novalue", '=')
	assert.False(t, ok)
}

func TestParams(t *testing.T) {
	got, err := Params([]string{"Token=T1", " key =X-API-Key", "value=", "token=T2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"token": "T2", "key": "X-API-Key", "value": ""}, got)

	_, err = Params([]string{"broken"})
	assert.Error(t, err)
	_, err = Params([]string{"=x"})
	assert.Error(t, err)
}

func TestSplitTrim(t *testing.T) {
	assert.Nil(t, SplitTrim("", ","))
	assert.Equal(t, []string{"a", "b"}, SplitTrim(" a, ,b ,", ","))
}
