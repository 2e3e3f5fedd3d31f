// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// FlagBinder is implemented by types that bind their own flags.
// When a struct field's type implements FlagBinder, [BindFlags] calls
// AddFlags instead of reflecting struct tags.
type FlagBinder interface {
	AddFlags(flagSet *pflag.FlagSet)
}

// FlagsFromParams creates a [pflag.FlagSet] with flags bound to the
// tagged fields of params, which must be a pointer to a struct. Panics
// on invalid input (programming error, not runtime data).
//
//	var params inspectParams
//	command := &cli.Command{
//	    Flags: func() *pflag.FlagSet {
//	        return cli.FlagsFromParams("inspect", &params)
//	    },
//	    Run: func(ctx context.Context, args []string) error {
//	        // params fields are populated after flag parsing
//	    },
//	}
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): %v", name, err))
	}
	return flagSet
}

// BindFlags registers pflag entries for each tagged field in params.
// params must be a pointer to a struct.
//
// # Struct tags
//
//   - flag:"name" or flag:"name,n": the long flag name and optional
//     single-character shorthand. Fields without a flag tag are skipped.
//   - desc:"help text": the flag's help description.
//   - default:"value": the default value, parsed according to the
//     field's Go type. If omitted, the type's zero value is used.
//   - enum:"a,b,c": string fields only: the accepted values. Anything
//     else fails flag parsing, and the choices are listed in help.
//
// # Supported field types
//
// string, bool, int, uint32, [time.Duration], []string.
//
// # Struct composition
//
// Struct fields whose pointer implements [FlagBinder] bind through
// AddFlags. Other embedded structs are bound recursively, so shared
// flag groups like [JSONOutput] can be embedded.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStructFields(value.Elem(), flagSet)
}

func bindStructFields(structValue reflect.Value, flagSet *pflag.FlagSet) error {
	structType := structValue.Type()

	for i := range structType.NumField() {
		field := structType.Field(i)
		fieldValue := structValue.Field(i)

		if field.Type.Kind() == reflect.Struct && field.IsExported() && fieldValue.CanAddr() {
			if binder, ok := fieldValue.Addr().Interface().(FlagBinder); ok {
				binder.AddFlags(flagSet)
				continue
			}
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := bindStructFields(fieldValue, flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		flagTag := field.Tag.Get("flag")
		if flagTag == "" {
			continue
		}
		if !fieldValue.CanAddr() {
			return fmt.Errorf("field %s: not addressable", field.Name)
		}

		name, shorthand, _ := strings.Cut(flagTag, ",")
		spec := flagSpec{
			name:         name,
			shorthand:    shorthand,
			description:  field.Tag.Get("desc"),
			defaultValue: field.Tag.Get("default"),
			choices:      field.Tag.Get("enum"),
		}
		if err := bindField(fieldValue, flagSet, spec); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}

	return nil
}

type flagSpec struct {
	name         string
	shorthand    string
	description  string
	defaultValue string
	choices      string
}

func bindField(fieldValue reflect.Value, flagSet *pflag.FlagSet, spec flagSpec) error {
	pointer := fieldValue.Addr().Interface()
	if spec.choices != "" {
		target, ok := pointer.(*string)
		if !ok {
			return fmt.Errorf("enum tag on non-string flag --%s", spec.name)
		}
		value := &enumValue{target: target, choices: strings.Split(spec.choices, ",")}
		if spec.defaultValue != "" {
			if err := value.Set(spec.defaultValue); err != nil {
				return fmt.Errorf("default for --%s: %w", spec.name, err)
			}
		}
		description := fmt.Sprintf("%s (%s)", spec.description, strings.Join(value.choices, ", "))
		flagSet.VarP(value, spec.name, spec.shorthand, description)
		return nil
	}

	switch target := pointer.(type) {
	case *string:
		flagSet.StringVarP(target, spec.name, spec.shorthand, spec.defaultValue, spec.description)

	case *bool:
		defaultValue, err := parseDefault(spec.defaultValue, false, strconv.ParseBool)
		if err != nil {
			return fmt.Errorf("default for --%s: %w", spec.name, err)
		}
		flagSet.BoolVarP(target, spec.name, spec.shorthand, defaultValue, spec.description)

	case *int:
		defaultValue, err := parseDefault(spec.defaultValue, 0, strconv.Atoi)
		if err != nil {
			return fmt.Errorf("default for --%s: %w", spec.name, err)
		}
		flagSet.IntVarP(target, spec.name, spec.shorthand, defaultValue, spec.description)

	case *uint32:
		defaultValue, err := parseDefault(spec.defaultValue, 0, func(s string) (uint32, error) {
			parsed, err := strconv.ParseUint(s, 0, 32)
			return uint32(parsed), err
		})
		if err != nil {
			return fmt.Errorf("default for --%s: %w", spec.name, err)
		}
		flagSet.Uint32VarP(target, spec.name, spec.shorthand, defaultValue, spec.description)

	case *time.Duration:
		defaultValue, err := parseDefault(spec.defaultValue, 0, time.ParseDuration)
		if err != nil {
			return fmt.Errorf("default for --%s: %w", spec.name, err)
		}
		flagSet.DurationVarP(target, spec.name, spec.shorthand, defaultValue, spec.description)

	case *[]string:
		var defaultValue []string
		if spec.defaultValue != "" {
			defaultValue = strings.Split(spec.defaultValue, ",")
		}
		flagSet.StringSliceVarP(target, spec.name, spec.shorthand, defaultValue, spec.description)

	default:
		return fmt.Errorf("unsupported type %s for flag --%s", fieldValue.Type(), spec.name)
	}

	return nil
}

func parseDefault[T any](text string, zero T, parse func(string) (T, error)) (T, error) {
	if text == "" {
		return zero, nil
	}
	return parse(text)
}

// enumValue is a string flag restricted to a fixed set of choices.
type enumValue struct {
	target  *string
	choices []string
}

func (e *enumValue) String() string {
	if e.target == nil {
		return ""
	}
	return *e.target
}

func (e *enumValue) Set(value string) error {
	if !slices.Contains(e.choices, value) {
		return fmt.Errorf("must be one of %s", strings.Join(e.choices, ", "))
	}
	*e.target = value
	return nil
}

func (e *enumValue) Type() string {
	return "string"
}
