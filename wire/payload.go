package wire

import (
	"bytes"
	"fmt"

	"github.com/hashicorp/go-msgpack/codec"

	"zrpc/zrpcerr"
)

// msgpackHandle decodes raw byte strings to Go strings and is safe to share
// across concurrent encoders/decoders, since it carries no per-call state.
var msgpackHandle = &codec.MsgpackHandle{RawToString: true, WriteExt: true}

// Call is the unpacked form of a WORK payload: a dotted procedure name,
// its ordered positional arguments, and its keyword arguments.
type Call struct {
	Name   string
	Args   []interface{}
	Kwargs map[string]interface{}
}

// PackCall encodes a WORK payload as the three-element tuple
// (name, positional_args, keyword_args).
func PackCall(name string, args []interface{}, kwargs map[string]interface{}) ([]byte, error) {
	if args == nil {
		args = []interface{}{}
	}
	if kwargs == nil {
		kwargs = map[string]interface{}{}
	}
	return encode([]interface{}{name, args, kwargs})
}

// UnpackCall is the inverse of PackCall.
func UnpackCall(payload []byte) (Call, error) {
	var tuple []interface{}
	if err := decode(payload, &tuple); err != nil {
		return Call{}, fmt.Errorf("%w: %v", zrpcerr.ErrMalformedPayload, err)
	}
	if len(tuple) != 3 {
		return Call{}, fmt.Errorf("%w: call tuple has %d elements, want 3", zrpcerr.ErrMalformedPayload, len(tuple))
	}
	name, ok := tuple[0].(string)
	if !ok {
		return Call{}, fmt.Errorf("%w: call name is not a string", zrpcerr.ErrMalformedPayload)
	}
	args, _ := tuple[1].([]interface{})
	kwargs, _ := toStringMap(tuple[2])
	return Call{Name: name, Args: args, Kwargs: kwargs}, nil
}

// PackResult encodes an OK payload: the raw return value.
func PackResult(value interface{}) ([]byte, error) {
	return encode(value)
}

// UnpackResult decodes an OK payload into an untyped value; callers that
// know the expected shape can further decode the returned interface{}.
func UnpackResult(payload []byte) (interface{}, error) {
	var value interface{}
	if err := decode(payload, &value); err != nil {
		return nil, fmt.Errorf("%w: %v", zrpcerr.ErrMalformedPayload, err)
	}
	return value, nil
}

// ErrorTriple is the unpacked form of an ERROR payload.
type ErrorTriple struct {
	Name      string
	Message   string
	Traceback string
}

// PackError encodes an ERROR payload as the (exception_name, message,
// traceback_string) triple.
func PackError(name, message, traceback string) ([]byte, error) {
	return encode([]interface{}{name, message, traceback})
}

// UnpackError is the inverse of PackError.
func UnpackError(payload []byte) (ErrorTriple, error) {
	var tuple []interface{}
	if err := decode(payload, &tuple); err != nil {
		return ErrorTriple{}, fmt.Errorf("%w: %v", zrpcerr.ErrMalformedPayload, err)
	}
	if len(tuple) != 3 {
		return ErrorTriple{}, fmt.Errorf("%w: error tuple has %d elements, want 3", zrpcerr.ErrMalformedPayload, len(tuple))
	}
	name, _ := tuple[0].(string)
	message, _ := tuple[1].(string)
	traceback, _ := tuple[2].(string)
	return ErrorTriple{Name: name, Message: message, Traceback: traceback}, nil
}

func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, msgpackHandle)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(payload []byte, v interface{}) error {
	dec := codec.NewDecoder(bytes.NewReader(payload), msgpackHandle)
	return dec.Decode(v)
}

func toStringMap(v interface{}) (map[string]interface{}, bool) {
	if m, ok := v.(map[string]interface{}); ok {
		return m, true
	}
	if m, ok := v.(map[interface{}]interface{}); ok {
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}
