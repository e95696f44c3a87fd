package services

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const maxNameLength = 255

var noSlash = validation.Match(regexp.MustCompile(`^[^/\\]+$`)).Error("must not contain a slash")

// enumRule accepts empty or nil values and anything parse accepts.
func enumRule[T any](parse func(string) (T, error)) validation.Rule {
	return validation.By(func(value interface{}) error {
		v, isNil := validation.Indirect(value)
		if isNil {
			return nil
		}
		s, _ := v.(string)
		if s == "" {
			return nil
		}
		_, err := parse(s)
		return err
	})
}
