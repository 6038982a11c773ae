package definition

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Assign sets the exported field of the struct behind instance to value.
// String values are parsed when the field holds a number, bool or duration.
func Assign(instance any, field string, value any) error {
	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("definition: cannot inject %s into %T", field, instance)
	}
	f := v.Elem().FieldByName(field)
	if !f.IsValid() {
		return fmt.Errorf("definition: %T has no field %s", instance, field)
	}
	if !f.CanSet() {
		return fmt.Errorf("definition: field %s of %T is not exported", field, instance)
	}

	if value == nil {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(f.Type()) {
		f.Set(val)
		return nil
	}
	if s, ok := value.(string); ok {
		parsed, err := parseInto(s, f.Type())
		if err != nil {
			return fmt.Errorf("definition: field %s of %T: %w", field, instance, err)
		}
		f.Set(parsed)
		return nil
	}
	return fmt.Errorf("definition: cannot assign %T to field %s (%s) of %T", value, field, f.Type(), instance)
}

var durationType = reflect.TypeOf(time.Duration(0))

func parseInto(s string, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	if t == durationType {
		d, err := time.ParseDuration(s)
		if err != nil {
			return out, err
		}
		out.SetInt(int64(d))
		return out, nil
	}
	switch t.Kind() {
	case reflect.String:
		out.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return out, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return out, err
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return out, err
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return out, err
		}
		out.SetFloat(n)
	default:
		return out, fmt.Errorf("cannot parse %q into %s", s, t)
	}
	return out, nil
}

// Fill copies the value behind replacement into the object behind handle so
// that everyone holding handle observes replacement. Both must be non-nil
// pointers of the same type; Fill reports whether the copy happened.
func Fill(handle, replacement any) bool {
	h := reflect.ValueOf(handle)
	r := reflect.ValueOf(replacement)
	if h.Kind() != reflect.Pointer || h.IsNil() || r.Kind() != reflect.Pointer || r.IsNil() {
		return false
	}
	if h.Type() != r.Type() {
		return false
	}
	if h.Pointer() != r.Pointer() {
		h.Elem().Set(r.Elem())
	}
	return true
}
