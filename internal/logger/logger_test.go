package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"local", "dev", "prod"} {
		if _, err := NewLogger(env, ""); err != nil {
			t.Errorf("NewLogger(%q) error: %v", env, err)
		}
	}

	if _, err := NewLogger("staging", ""); err == nil {
		t.Error("NewLogger accepted unknown environment")
	}
	if _, err := NewLogger("prod", "verbose"); err == nil {
		t.Error("NewLogger accepted invalid level")
	}
	if _, err := NewLogger("prod", "debug"); err != nil {
		t.Errorf("NewLogger with level override error: %v", err)
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got == nil {
		t.Fatal("FromContext returned nil for bare context")
	}

	l := zap.NewNop().With(zap.String("k", "v"))
	ctx := ContextWithLogger(context.Background(), l)
	if got := FromContext(ctx); got != l {
		t.Error("FromContext did not return the attached logger")
	}
}
