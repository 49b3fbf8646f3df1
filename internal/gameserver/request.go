package gameserver

import (
	"math"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/overstack/internal/game/run"
)

// fields reads typed values out of a request Struct.
type fields struct {
	m map[string]*structpb.Value
}

func requestFields(in *structpb.Struct) fields {
	if in == nil {
		return fields{}
	}
	return fields{m: in.GetFields()}
}

func (f fields) has(key string) bool {
	v, ok := f.m[key]
	if !ok {
		return false
	}
	_, null := v.GetKind().(*structpb.Value_NullValue)
	return !null
}

func (f fields) number(key string, def float64) (float64, error) {
	if !f.has(key) {
		return def, nil
	}
	n, ok := f.m[key].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
	return n.NumberValue, nil
}

func (f fields) integer(key string, def int) (int, error) {
	n, err := f.number(key, float64(def))
	if err != nil {
		return 0, err
	}
	if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer, got %v", key, n)
	}
	return int(n), nil
}

func (f fields) str(key, def string) (string, error) {
	if !f.has(key) {
		return def, nil
	}
	s, ok := f.m[key].GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s must be a string", key)
	}
	return s.StringValue, nil
}

func (f fields) strings(key string, def []string) ([]string, error) {
	if !f.has(key) {
		return def, nil
	}
	l, ok := f.m[key].GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a list of strings", key)
	}
	out := make([]string, 0, len(l.ListValue.GetValues()))
	for i, v := range l.ListValue.GetValues() {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "%s[%d] must be a string", key, i)
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}

// seed accepts a number or a decimal string; strings carry seeds above 2^53
// without loss.
func (f fields) seed(key string, def uint64) (uint64, error) {
	if !f.has(key) {
		return def, nil
	}
	switch k := f.m[key].GetKind().(type) {
	case *structpb.Value_StringValue:
		v, err := strconv.ParseUint(k.StringValue, 10, 64)
		if err != nil {
			return 0, status.Errorf(codes.InvalidArgument, "%s: %v", key, err)
		}
		return v, nil
	case *structpb.Value_NumberValue:
		n := k.NumberValue
		if n < 0 || n != math.Trunc(n) || n >= math.MaxUint64 {
			return 0, status.Errorf(codes.InvalidArgument, "%s must be a non-negative integer, got %v", key, n)
		}
		return uint64(n), nil
	}
	return 0, status.Errorf(codes.InvalidArgument, "%s must be a number or decimal string", key)
}

func (f fields) handle() (run.Handle, error) {
	if !f.has("handle") {
		return 0, status.Error(codes.InvalidArgument, "handle is required")
	}
	n, err := f.number("handle", 0)
	if err != nil {
		return 0, err
	}
	if n < 0 || n != math.Trunc(n) || n > math.MaxUint32 {
		return 0, status.Errorf(codes.InvalidArgument, "handle must be a uint32, got %v", n)
	}
	return run.Handle(n), nil
}

func response(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}

func stringList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
