package browser

import (
	"context"
	"errors"
	"strings"

	"github.com/go-rod/rod"

	"github.com/jdziat/entrybatch/pkg/core"
)

// classify marks errors caused by a momentarily blocked form as transient.
func classify(err error) error {
	if err == nil || core.IsTransient(err) {
		return err
	}
	if blocked(err) {
		return core.Transient(err)
	}
	return err
}

func blocked(err error) bool {
	var covered *rod.CoveredError
	var notInteractable *rod.NotInteractableError
	var invisible *rod.InvisibleShapeError

	switch {
	case errors.As(err, &covered),
		errors.As(err, &notInteractable),
		errors.As(err, &invisible),
		errors.Is(err, ErrOverlayBlocking),
		errors.Is(err, ErrValueMismatch):
		return true
	}
	return clickIntercepted(err.Error())
}

// clickIntercepted recognises interception messages reported by the driver
// when a blockUI overlay swallows the click.
func clickIntercepted(msg string) bool {
	msg = strings.ToLower(msg)
	if !strings.Contains(msg, "element click intercepted") {
		return false
	}
	return strings.Contains(msg, "blockui") || strings.Contains(msg, "blockoverlay")
}

func isNotFound(err error) bool {
	var notFound *rod.ElementNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, context.DeadlineExceeded)
}

func isXPath(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(")
}

// value resolves the text a binding writes for rec.
func (b Binding) value(rec *core.Record) string {
	if b.Field != "" {
		if v := strings.TrimSpace(rec.Field(b.Field)); v != "" {
			return v
		}
	}
	return b.Default
}

// valueAccepted compares what the input holds with what was typed. Inputs
// that reformat numbers are accepted when the digits match.
func valueAccepted(got, want string) bool {
	got, want = strings.TrimSpace(got), strings.TrimSpace(want)
	if got == want {
		return true
	}
	return digits(got) != "" && digits(got) == digits(want)
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
