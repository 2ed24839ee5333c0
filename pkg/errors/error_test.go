package errors

import (
	stderrors "errors"
	"testing"
)

func TestNewUsesDefaultMessage(t *testing.T) {
	err := New(LanguageNotSupported)
	if err.Error() != "Programming language not supported" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !Is(err, LanguageNotSupported) {
		t.Fatal("expected code match")
	}
}

func TestWrapPreservesUnderlyingError(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := Wrapf(cause, CacheError, "rate limit check failed")
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive errors.Is")
	}
	if err.Error() != "rate limit check failed" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestGetErrorWrapsForeignErrors(t *testing.T) {
	err := GetError(stderrors.New("boom"))
	if err.Code != InternalServerError {
		t.Fatalf("foreign errors must map to InternalServerError, got %d", err.Code)
	}
	if GetError(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}

func TestValidationErrorCarriesDetails(t *testing.T) {
	err := ValidationError("language", "required")
	if err.Code != ValidationFailed {
		t.Fatalf("unexpected code %d", err.Code)
	}
	if err.Details["field"] != "language" || err.Details["reason"] != "required" {
		t.Fatalf("unexpected details %v", err.Details)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[ErrorCode]int{
		Success:              200,
		Unauthorized:         401,
		TooManyRequests:      429,
		ValidationFailed:     400,
		NoTestCases:          400,
		CodeTooLarge:         400,
		LanguageNotSupported: 400,
		InternalServerError:  500,
		JudgeSystemError:     500,
	}
	for code, want := range cases {
		if got := code.HTTPStatus(); got != want {
			t.Fatalf("code %d: expected %d, got %d", code, want, got)
		}
	}
}
