package csrf

import (
	"testing"
	"time"
)

func TestIssueValidate(t *testing.T) {
	m, err := NewManager("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	token, err := m.Issue()
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if err := m.Validate(token); err != nil {
		t.Errorf("fresh token rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	m, _ := NewManager("secret", time.Hour)
	other, _ := NewManager("other", time.Hour)

	foreign, _ := other.Issue()
	for name, token := range map[string]string{
		"empty":   "",
		"garbage": "not-a-token",
		"foreign": foreign,
	} {
		if err := m.Validate(token); err != ErrInvalidToken {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestValidateExpired(t *testing.T) {
	m, _ := NewManager("secret", time.Minute)
	start := time.Now()
	m.now = func() time.Time { return start }

	token, _ := m.Issue()
	m.now = func() time.Time { return start.Add(2 * time.Minute) }

	if err := m.Validate(token); err != ErrInvalidToken {
		t.Errorf("expired token should be rejected, got %v", err)
	}
}

func TestRandomSecret(t *testing.T) {
	a, _ := NewManager("", 0)
	b, _ := NewManager("", 0)

	token, _ := a.Issue()
	if err := a.Validate(token); err != nil {
		t.Errorf("token rejected by its issuer: %v", err)
	}
	if err := b.Validate(token); err == nil {
		t.Error("generated secrets should differ")
	}
	if a.lifetime != 24*time.Hour {
		t.Errorf("expected default lifetime, got %v", a.lifetime)
	}
}
