package upload

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/dmitrymomot/uploadkit/core"
)

var (
	fileType      = reflect.TypeOf((*File)(nil))
	fileSliceType = reflect.TypeOf([]*File(nil))
)

// Bind returns a binder for the typed handler pipeline.
//
// It reuses the Body stored by Middleware, or parses the request itself, and
// maps it onto the target struct:
//
//	type UploadRequest struct {
//		Title   string         `form:"title"`
//		Tags    []string       `form:"tags"`
//		Avatar  *upload.File   `file:"avatar"`
//		Gallery []*upload.File `file:"gallery"`
//		Raw     any            `form:"attachments"` // raw Body value
//	}
//
// Requests that are not multipart/form-data are left to other binders.
// Parse failures are returned as is (ErrParse, ErrPayloadTooLarge, ...); type
// mismatches while binding, including text parts under a *File or []*File
// field, wrap core.ErrBadRequest.
func (i *Interceptor) Bind() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		body, ok := BodyFromContext(r.Context())
		if !ok {
			if !IsMultipart(r) {
				return nil
			}
			parsed, err := i.Parse(r)
			if err != nil {
				return err
			}
			body = parsed
		}

		if err := BindBody(body, v); err != nil {
			return fmt.Errorf("%w: %w", core.ErrBadRequest, err)
		}
		return nil
	}
}

// BindBody maps body values onto the struct pointed to by v using `form` and
// `file` struct tags.
func BindBody(body Body, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("target must be a non-nil pointer")
	}

	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return errors.New("target must be a pointer to struct")
	}

	rt := rv.Type()
	for idx := range rv.NumField() {
		field := rv.Field(idx)
		fieldType := rt.Field(idx)

		if !field.CanSet() {
			continue
		}

		name, isFileTag := tagName(fieldType)
		if name == "" {
			continue
		}

		values := body.Values(name)
		if len(values) == 0 {
			continue
		}

		var err error
		switch {
		case fieldType.Type.Kind() == reflect.Interface:
			err = setRawValue(field, body.Get(name))
		case fieldType.Type.Kind() == reflect.Slice && fieldType.Type.Elem().Kind() == reflect.Interface:
			err = setRawValue(field, values)
		case isFileTag:
			err = setFileField(field, fieldType.Type, values)
		default:
			err = setFieldValue(field, fieldType.Type, body.Strings(name))
		}
		if err != nil {
			return fmt.Errorf("field %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

// tagName returns the body key for a struct field and whether it is a file field.
func tagName(f reflect.StructField) (string, bool) {
	if tag := f.Tag.Get("file"); tag != "" {
		if tag == "-" {
			return "", false
		}
		name, _, _ := strings.Cut(tag, ",")
		return name, true
	}
	if tag := f.Tag.Get("form"); tag != "" {
		if tag == "-" {
			return "", false
		}
		name, _, _ := strings.Cut(tag, ",")
		return name, false
	}
	return "", false
}

func setRawValue(field reflect.Value, value any) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return nil
	}
	if !rv.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("cannot assign %s to %s", rv.Type(), field.Type())
	}
	field.Set(rv)
	return nil
}

// setFileField sets *File or []*File fields. Every value must be a file;
// declare the field as any or []any to receive text parts as well.
func setFileField(field reflect.Value, fieldType reflect.Type, values []any) error {
	files := make([]*File, 0, len(values))
	for idx, v := range values {
		f, ok := v.(*File)
		if !ok || f == nil {
			return fmt.Errorf("value %d is not a file", idx)
		}
		files = append(files, f)
	}

	switch fieldType {
	case fileType:
		if len(files) > 0 {
			field.Set(reflect.ValueOf(files[0]))
		}
		return nil
	case fileSliceType:
		if len(files) > 0 {
			field.Set(reflect.ValueOf(files))
		}
		return nil
	default:
		return fmt.Errorf("unsupported type for file field: %v (expected *upload.File or []*upload.File)", fieldType)
	}
}

// setFieldValue sets the field value from string values.
func setFieldValue(field reflect.Value, fieldType reflect.Type, values []string) error {
	if len(values) == 0 {
		return nil
	}

	if fieldType.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(fieldType.Elem()))
		}
		return setFieldValue(field.Elem(), fieldType.Elem(), values)
	}

	if fieldType.Kind() == reflect.Slice {
		slice := reflect.MakeSlice(fieldType, len(values), len(values))
		for idx, value := range values {
			if err := setFieldValue(slice.Index(idx), fieldType.Elem(), []string{value}); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	}

	value := values[0]
	switch fieldType.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, fieldType.Bits())
		if err != nil {
			return fmt.Errorf("invalid int value %q", value)
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, fieldType.Bits())
		if err != nil {
			return fmt.Errorf("invalid uint value %q", value)
		}
		field.SetUint(n)

	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, fieldType.Bits())
		if err != nil {
			return fmt.Errorf("invalid float value %q", value)
		}
		field.SetFloat(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			switch strings.ToLower(value) {
			case "on", "yes":
				b = true
			case "off", "no", "":
				b = false
			default:
				return fmt.Errorf("invalid bool value %q", value)
			}
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported type %s", fieldType.Kind())
	}

	return nil
}
