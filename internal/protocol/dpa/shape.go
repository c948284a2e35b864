package dpa

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// shapeField 结构体中必须出现的 JSON 键
type shapeField struct {
	key      string
	typ      reflect.Type
	nullable bool
}

var (
	shapeCache    sync.Map // reflect.Type -> []shapeField
	unmarshalerTy = reflect.TypeFor[json.Unmarshaler]()
)

// requiredFields 不带 omitempty 且未忽略的导出字段
func requiredFields(t reflect.Type) []shapeField {
	if v, ok := shapeCache.Load(t); ok {
		return v.([]shapeField)
	}
	fields := make([]shapeField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || strings.Contains(opts, "omitempty") {
			continue
		}
		if name == "" {
			name = f.Name
		}
		k := f.Type.Kind()
		fields = append(fields, shapeField{
			key:      name,
			typ:      f.Type,
			nullable: k == reflect.Slice || k == reflect.Map || k == reflect.Pointer,
		})
	}
	v, _ := shapeCache.LoadOrStore(t, fields)
	return v.([]shapeField)
}

// checkShape 逐层确认 raw 含有 t 的全部必需键；标量字段为 null 视同缺失
func checkShape(raw json.RawMessage, t reflect.Type, path string) error {
	if reflect.PointerTo(t).Implements(unmarshalerTy) {
		return nil
	}
	switch t.Kind() {
	case reflect.Pointer:
		if isJSONNull(raw) {
			return nil
		}
		return checkShape(raw, t.Elem(), path)
	case reflect.Slice:
		if t.Elem().Kind() != reflect.Struct || isJSONNull(raw) {
			return nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return &MalformedJSONError{Key: path, Reason: "is not an array"}
		}
		for i, item := range items {
			if err := checkShape(item, t.Elem(), path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
	default:
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return &MalformedJSONError{Key: path, Reason: "is not an object"}
	}
	fields := requiredFields(t)
	present := make(map[string]any, len(obj))
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.key)
		if v, ok := obj[f.key]; ok && (f.nullable || !isJSONNull(v)) {
			present[f.key] = v
		}
	}
	if err := ValidateJSONShape(present, keys...); err != nil {
		var merr *MalformedJSONError
		if errors.As(err, &merr) {
			return &MalformedJSONError{Key: path + "." + merr.Key}
		}
		return err
	}
	for _, f := range fields {
		if err := checkShape(obj[f.key], f.typ, path+"."+f.key); err != nil {
			return err
		}
	}
	return nil
}
