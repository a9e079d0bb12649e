package handlers

import (
	"errors"
	"fmt"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLen = 8

	passwordRuleMessage = "Passwords must be at least 8 characters in length, and it must include at least " +
		"one capital letter (or uppercase), one lowercase, one number and one special character"
	passwordMismatchMessage = "Passwords don't match"
)

var registerOnce sync.Once

// registerValidators adds the gateway's custom rules to gin's validator engine.
func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("password", validatePassword)
		}
	})
}

func validatePassword(fl validator.FieldLevel) bool {
	return StrongPassword(fl.Field().String())
}

// StrongPassword reports whether p has at least 8 characters including an upper-case letter,
// a lower-case letter, a digit and a character that is none of those.
func StrongPassword(p string) bool {
	if utf8.RuneCountInString(p) < minPasswordLen {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}

// bindingMessage turns a binding failure into a message a client can act on.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "password":
		return passwordRuleMessage
	case "eqfield":
		return passwordMismatchMessage
	case "required":
		return fmt.Sprintf("%s is required", jsonName(fe))
	case "email":
		return "email is not a valid email address"
	default:
		return fmt.Sprintf("%s is invalid", jsonName(fe))
	}
}

func jsonName(fe validator.FieldError) string {
	switch fe.Field() {
	case "Email":
		return "email"
	case "Password":
		return "password"
	case "ConfirmedPassword":
		return "confirmed_password"
	}
	return fe.Field()
}
