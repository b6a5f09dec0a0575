package client

import (
	"errors"
	"testing"
	"time"
)

func TestUpstreamError(t *testing.T) {
	t.Run("with type", func(t *testing.T) {
		err := &UpstreamError{
			StatusCode: 401,
			Type:       "authentication_error",
			Message:    "OAuth token has expired",
		}

		expected := "usage api error (status 401, authentication_error): OAuth token has expired"
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("without type", func(t *testing.T) {
		err := &UpstreamError{
			StatusCode: 502,
			Message:    "bad gateway",
		}

		expected := "usage api error (status 502): bad gateway"
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})
}

func TestNewUpstreamError(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		body        string
		wantType    string
		wantMessage string
	}{
		{
			name:        "standard envelope",
			statusCode:  429,
			body:        `{"error": {"type": "rate_limit_error", "message": "Too many requests"}}`,
			wantType:    "rate_limit_error",
			wantMessage: "Too many requests",
		},
		{
			name:        "plain text body",
			statusCode:  502,
			body:        "upstream unavailable\n",
			wantType:    "",
			wantMessage: "upstream unavailable",
		},
		{
			name:        "empty body",
			statusCode:  500,
			body:        "",
			wantType:    "",
			wantMessage: "",
		},
		{
			name:        "envelope without message falls back to raw body",
			statusCode:  500,
			body:        `{"error": {"type": "internal_error"}}`,
			wantType:    "",
			wantMessage: `{"error": {"type": "internal_error"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newUpstreamError(tt.statusCode, []byte(tt.body))

			if err.StatusCode != tt.statusCode {
				t.Errorf("expected status %d, got %d", tt.statusCode, err.StatusCode)
			}
			if err.Type != tt.wantType {
				t.Errorf("expected type %q, got %q", tt.wantType, err.Type)
			}
			if err.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, err.Message)
			}
		})
	}
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{Timeout: 30 * time.Second}

	expected := "usage api request timeout after 30s"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestParseError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := &ParseError{
		RawResponse: `{"five_hour": `,
		Cause:       cause,
	}

	if !errors.Is(err, cause) {
		t.Error("expected error to wrap cause")
	}
	expected := "usage api response parse error: unexpected end of JSON input"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}
