package flushio

import (
	"bytes"
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewWriteFlusher(t *testing.T) {
	t.Run("discard needs no flush", func(t *testing.T) {
		wf := NewWriteFlusher(ioutil.Discard)
		_, err := wf.Write([]byte("gone"))
		require.NoError(t, err)
		assert.NoError(t, wf.Flush())
	})

	t.Run("buffers pass through", func(t *testing.T) {
		var buf bytes.Buffer
		wf := NewWriteFlusher(&buf)
		_, err := wf.Write([]byte("kept"))
		require.NoError(t, err)
		require.NoError(t, wf.Flush())
		assert.Equal(t, "kept", buf.String())
	})

	t.Run("existing write flushers pass through", func(t *testing.T) {
		var buf bytes.Buffer
		wf := NewWriteFlusher(&buf)
		assert.Equal(t, wf, NewWriteFlusher(wf))
	})
}

func Test_WriteFlushers(t *testing.T) {
	assert.Nil(t, WriteFlushers())

	var a, b bytes.Buffer
	wf := WriteFlushers(NewWriteFlusher(&a), NewWriteFlusher(&b))
	n, err := wf.Write([]byte("both"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.NoError(t, wf.Flush())
	assert.Equal(t, "both", a.String())
	assert.Equal(t, "both", b.String())

	single := NewWriteFlusher(&a)
	assert.Equal(t, single, WriteFlushers(single), "one flusher stays itself")
	assert.Equal(t, single, WriteFlushers(nil, single), "nils drop out")
}
