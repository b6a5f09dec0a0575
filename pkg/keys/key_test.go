package keys

import (
	"strings"
	"testing"
)

func TestGenerateSecret(t *testing.T) {
	plaintext, err := generateSecret()
	if err != nil {
		t.Fatalf("generateSecret failed: %v", err)
	}

	if !strings.HasPrefix(plaintext, "callisto-") {
		t.Errorf("expected callisto- prefix, got %q", plaintext)
	}

	// 32 bytes of base64url is 43 characters
	secret := strings.TrimPrefix(plaintext, "callisto-")
	if len(secret) != 43 {
		t.Errorf("expected 43-character secret, got %d", len(secret))
	}
	if strings.ContainsAny(secret, "+/=") {
		t.Errorf("expected url-safe unpadded encoding, got %q", secret)
	}
}

func TestGenerateSecret_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		plaintext, err := generateSecret()
		if err != nil {
			t.Fatalf("generateSecret failed: %v", err)
		}
		if seen[plaintext] {
			t.Fatalf("duplicate key generated: %q", plaintext)
		}
		seen[plaintext] = true
	}
}

func TestDigest(t *testing.T) {
	d1 := digest("callisto-abc")
	d2 := digest("callisto-abc")
	d3 := digest("callisto-abd")

	if d1 != d2 {
		t.Error("expected identical digests for identical input")
	}
	if d1 == d3 {
		t.Error("expected different digests for different input")
	}
	// SHA-256 hex is 64 characters
	if len(d1) != 64 {
		t.Errorf("expected 64-character digest, got %d", len(d1))
	}
}

func TestDisplayPrefix(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
		expected  string
	}{
		{
			name:      "full-length key",
			plaintext: "callisto-a1b2c3d4e5f6g7h8",
			expected:  "callisto-a1b",
		},
		{
			name:      "short input returned whole",
			plaintext: "callisto",
			expected:  "callisto",
		},
		{
			name:      "exactly prefix length",
			plaintext: "callisto-a1b",
			expected:  "callisto-a1b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := displayPrefix(tt.plaintext)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
