// Package validate envuelve go-playground/validator con los tags propios de la clínica.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"vet-clinic/internal/platform/apperr"

	playground "github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *playground.Validate
)

func get() *playground.Validate {
	once.Do(func() {
		v := playground.New()

		// nombres de campo = tag json, para que el mensaje coincida con el payload
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		_ = v.RegisterValidation("rut", func(fl playground.FieldLevel) bool {
			return ValidRUT(fl.Field().String())
		})
		_ = v.RegisterValidation("hhmm", func(fl playground.FieldLevel) bool {
			return validClock(fl.Field().String())
		})

		instance = v
	})
	return instance
}

// Struct valida s y devuelve un apperr de tipo ErrValidation con los campos fallidos.
func Struct(op string, s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.E(apperr.ErrValidation, op, "", err)
	}

	msgs := make([]string, 0, len(verrs))
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
		msgs = append(msgs, message(fe))
	}
	return apperr.E(apperr.ErrValidation, op, strings.Join(fields, ","), errors.New(strings.Join(msgs, "; ")))
}

// Var valida un valor suelto con un tag (p.ej. "email").
func Var(op, field string, value any, tag string) error {
	if err := get().Var(value, tag); err != nil {
		return apperr.E(apperr.ErrValidation, op, field, fmt.Errorf("%s is invalid", field))
	}
	return nil
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "rut":
		return fmt.Sprintf("%s must be a valid RUT", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must match %s", fe.Field(), fe.Param())
	case "hhmm":
		return fmt.Sprintf("%s must be HH:mm", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", fe.Field(), fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func validClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	for _, c := range []byte{s[0], s[1], s[3], s[4]} {
		if c < '0' || c > '9' {
			return false
		}
	}
	return h < 24 && m < 60
}
