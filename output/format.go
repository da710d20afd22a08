package output

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// TimeLayout is used to render time.Time values as text.
const TimeLayout = "2006-01-02 15:04:05"

// FormatValue renders a value as text for delimited files and width measurement.
func FormatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", v)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float64:
		// Pour les floats, sans notation scientifique
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format("2006-01-02")
		}
		return v.Format(TimeLayout)
	case fmt.Stringer:
		return v.String()
	default:
		// types nommés (type Amount float64...) : on passe par reflect
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return strconv.FormatInt(rv.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return strconv.FormatUint(rv.Uint(), 10)
		case reflect.Pointer:
			if rv.IsNil() {
				return ""
			}
			return FormatValue(rv.Elem().Interface())
		}
		return fmt.Sprintf("%v", v)
	}
}

func formatAll(values []any) []string {
	rec := make([]string, len(values))
	for i, v := range values {
		rec[i] = FormatValue(v)
	}
	return rec
}
