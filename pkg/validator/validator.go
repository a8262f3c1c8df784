package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

var (
	hhmmPattern     = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	registerOnce    sync.Once
	registerErr     error
)

var customValidators = map[string]validator.Func{
	// signup only offers the self-service roles
	"signup_role": func(fl validator.FieldLevel) bool {
		role := fl.Field().String()
		return role == "DOCTOR" || role == "PATIENT"
	},
	"hhmm": func(fl validator.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	},
	"isodate": func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	},
	"currency": func(fl validator.FieldLevel) bool {
		return currencyPattern.MatchString(fl.Field().String())
	},
}

var messages = map[string]string{
	"required":    "%s is required",
	"email":       "%s must be a valid email address",
	"min":         "%s is too short",
	"max":         "%s is too long",
	"gt":          "%s must be greater than %s",
	"gte":         "%s must be at least %s",
	"lte":         "%s must be at most %s",
	"len":         "%s must be %s characters",
	"numeric":     "%s must be numeric",
	"oneof":       "%s must be one of [%s]",
	"url":         "%s must be a valid URL",
	"uuid":        "%s must be a valid id",
	"signup_role": "%s must be DOCTOR or PATIENT",
	"hhmm":        "%s must be a time in HH:MM format",
	"isodate":     "%s must be a date in YYYY-MM-DD format",
	"currency":    "%s must be a 3 letter currency code",
}

// Register installs the custom tags and json field naming on v.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	for tag, fn := range customValidators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// RegisterWithGin installs the custom tags on gin's binding engine. Safe to call repeatedly.
func RegisterWithGin() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin binding engine is not validator/v10")
			return
		}
		registerErr = Register(v)
	})
	return registerErr
}

// Describe turns a bind error into a single client-facing sentence.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		format, ok := messages[fe.Tag()]
		if !ok {
			return fmt.Sprintf("%s is invalid", fe.Field())
		}
		if strings.Count(format, "%s") == 2 {
			return fmt.Sprintf(format, fe.Field(), fe.Param())
		}
		return fmt.Sprintf(format, fe.Field())
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return "request body is not valid JSON"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("%s has the wrong type", typeErr.Field)
	case err != nil && err.Error() == "EOF":
		return "request body is required"
	}
	return "invalid request"
}
