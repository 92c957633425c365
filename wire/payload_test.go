package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackUnpackCall(t *testing.T) {
	payload, err := PackCall("math.square", []interface{}{int64(7)}, map[string]interface{}{"unit": "m"})
	require.NoError(t, err)

	call, err := UnpackCall(payload)
	require.NoError(t, err)
	require.Equal(t, "math.square", call.Name)
	require.Len(t, call.Args, 1)
	require.Equal(t, "m", call.Kwargs["unit"])
}

func TestPackUnpackCallNilArgs(t *testing.T) {
	payload, err := PackCall("ping", nil, nil)
	require.NoError(t, err)

	call, err := UnpackCall(payload)
	require.NoError(t, err)
	require.Equal(t, "ping", call.Name)
	require.Empty(t, call.Args)
	require.Empty(t, call.Kwargs)
}

func TestPackUnpackResult(t *testing.T) {
	payload, err := PackResult("hello")
	require.NoError(t, err)

	value, err := UnpackResult(payload)
	require.NoError(t, err)
	require.Equal(t, "hello", value)
}

func TestPackUnpackError(t *testing.T) {
	payload, err := PackError("ZeroDivisionError", "x", "Traceback (most recent call last):\n  line 1")
	require.NoError(t, err)

	triple, err := UnpackError(payload)
	require.NoError(t, err)
	require.Equal(t, "ZeroDivisionError", triple.Name)
	require.Equal(t, "x", triple.Message)
	require.Contains(t, triple.Traceback, "line 1")
}

func TestUnpackCallRejectsMalformedPayload(t *testing.T) {
	_, err := UnpackCall([]byte{0xc1}) // msgpack reserved/never-used byte
	require.Error(t, err)
}
