// Package config provides environment-based configuration loading, URI option
// overlays, and validation.
//
// Configuration structs declare three kinds of tags:
//
//	type WireFormatConfig struct {
//		CacheSize int `env:"OPENWIRE_CACHE_SIZE" env-default:"1024" opt:"wireFormat.cacheSize" validate:"min=0"`
//	}
//
// Load fills a struct from the environment (and .env file) and validates it.
// ApplyOptions overlays broker URI query options (key=value pairs) onto the
// already-loaded struct, matching each option key against the opt tag.
package config

import (
	"reflect"
	"strconv"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Load reads configuration from .env file or environment variables and validates it.
func Load[T any](cfg *T) error {
	if err := cleanenv.ReadConfig(".env", cfg); err != nil {
		// No .env file; rely on environment variables and env-default tags.
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return errors.Wrap(err, "failed to read env config")
		}
	}
	return Validate(cfg)
}

// Validate runs struct tag validation on cfg.
func Validate(cfg any) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return errors.New(errors.CodeInvalidArgument, "config validation failed", err)
	}
	return nil
}

// ApplyOptions overlays URI query options onto cfg. Each struct field tagged
// `opt:"name"` is settable from options["name"]. Option keys are
// case-sensitive. Unknown keys are returned so the caller can decide whether
// they belong to another layer or are an error.
func ApplyOptions(cfg any, options map[string]string) (unknown map[string]string, err error) {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, errors.Newf(errors.CodeInvalidArgument, "ApplyOptions requires a struct pointer, got %T", cfg)
	}
	fields := optFields(v.Elem())

	unknown = make(map[string]string)
	for key, raw := range options {
		field, ok := fields[key]
		if !ok {
			unknown[key] = raw
			continue
		}
		if err := setField(field, raw); err != nil {
			return nil, errors.Newf(errors.CodeInvalidArgument, "invalid value %q for option %q: %v", raw, key, err)
		}
	}
	return unknown, nil
}

func optFields(v reflect.Value) map[string]reflect.Value {
	fields := make(map[string]reflect.Value)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if tag, ok := f.Tag.Lookup("opt"); ok && tag != "" && tag != "-" {
			fields[tag] = v.Field(i)
			continue
		}
		// Nested config structs contribute their own opt tags.
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Time{}) {
			for k, fv := range optFields(v.Field(i)) {
				fields[k] = fv
			}
		}
	}
	return fields
}

func setField(field reflect.Value, raw string) error {
	// time.Duration options are numeric milliseconds on ActiveMQ URIs.
	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(int64(time.Duration(ms) * time.Millisecond))
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		return errors.Newf(errors.CodeInvalidArgument, "unsupported option field kind %s", field.Kind())
	}
	return nil
}
