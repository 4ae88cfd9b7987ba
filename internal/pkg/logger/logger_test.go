package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("開発環境ではデバッグレベル", func(t *testing.T) {
		l := NewLogger("development")
		require.NotNil(t, l)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("本番環境ではインフォレベル", func(t *testing.T) {
		l := NewLogger("production")
		require.NotNil(t, l)
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("LOG_LEVELで上書きできる", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "error")
		l := NewLogger("development")
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
	})
}

func TestSetAndGet(t *testing.T) {
	original := Get()
	defer Set(original)

	replacement := zap.NewNop()
	Set(replacement)
	assert.Same(t, replacement, Get())
}
