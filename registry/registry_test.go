package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func echoCallable(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, nil
	}
	return args[0], nil
}

func TestRegisterLookupFlat(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("echo", echoCallable))

	fn, err := r.Lookup("echo")
	require.NoError(t, err)
	result, err := fn("peer-1", []interface{}{"hello"}, nil)
	require.NoError(t, err)
	require.Equal(t, "hello", result)
}

func TestRegisterLookupNested(t *testing.T) {
	r := New()
	square := func(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		x := args[0].(int64)
		return x * x, nil
	}
	require.NoError(t, r.Register("math.square", square))

	fn, err := r.Lookup("math.square")
	require.NoError(t, err)
	result, err := fn("peer-1", []interface{}{int64(7)}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(49), result)
}

func TestLookupMissingIsServiceNotFound(t *testing.T) {
	r := New()
	_, err := r.Lookup("nope")
	require.Error(t, err)
}

func TestLookupInternalNodeIsServiceNotFound(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("a.b.c", echoCallable))
	_, err := r.Lookup("a.b")
	require.Error(t, err)
}

func TestRegisterThroughLeafConflicts(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("a.b", echoCallable))
	err := r.Register("a.b.c", echoCallable)
	require.Error(t, err)
}

func TestRegisterOverInternalNodeConflicts(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("a.b.c", echoCallable))
	err := r.Register("a.b", echoCallable)
	require.Error(t, err)
}

func TestRegisterLeafCollisionReplaces(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("a", echoCallable))
	replacement := func(peerID string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return "replaced", nil
	}
	require.NoError(t, r.Register("a", replacement))

	fn, err := r.Lookup("a")
	require.NoError(t, err)
	result, err := fn("peer-1", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "replaced", result)
}

func TestNamesLists(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("a.b", echoCallable))
	require.NoError(t, r.Register("c", echoCallable))

	names := r.Names()
	require.ElementsMatch(t, []string{"a.b", "c"}, names)
}

func TestNewLocalCarriesIdentity(t *testing.T) {
	r := NewLocal("worker-1")
	require.Equal(t, "worker-1", r.Identity())
}
