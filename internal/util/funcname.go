package util

import (
	"reflect"
	"runtime"
	"strings"
)

// FuncName derives a registration name for a bare function value. The
// package path and any closure suffixes are stripped, so
// "pkg/path.AddNumbers" becomes "AddNumbers" and method values keep only the
// method name. Anonymous functions yield compiler-generated names like
// "func1"; callers wrapping closures should supply an explicit name instead.
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return ""
	}
	full := runtime.FuncForPC(v.Pointer()).Name()
	if idx := strings.LastIndex(full, "."); idx >= 0 {
		full = full[idx+1:]
	}
	// Method values carry a "-fm" suffix.
	return strings.TrimSuffix(full, "-fm")
}
