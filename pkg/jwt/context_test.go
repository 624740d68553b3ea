package jwt_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/threew1h/converter/pkg/jwt"
)

func TestTokenContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		ctx := jwt.SetToken(context.Background(), "test.jwt.token")

		token, ok := jwt.GetToken(ctx)
		assert.True(t, ok)
		assert.Equal(t, "test.jwt.token", token)
	})

	t.Run("absent token", func(t *testing.T) {
		t.Parallel()
		token, ok := jwt.GetToken(context.Background())
		assert.False(t, ok)
		assert.Empty(t, token)
	})
}
