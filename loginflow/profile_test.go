package loginflow_test

import (
	"testing"

	apperrors "github.com/jrsteele09/go-google-login/internal/errors"
	"github.com/jrsteele09/go-google-login/loginflow"
	"github.com/stretchr/testify/require"
)

func TestDecodeProfile(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		p, err := loginflow.DecodeProfile([]byte(`{"id":"1","avatar":"a.png","username":"jo","discriminator":"0042","email":"jo@example.com","locale":"en"}`))
		require.NoError(t, err)
		require.Equal(t, "1", p.ID)
		require.Equal(t, "jo", p.Username)
		require.Equal(t, "0042", p.Discriminator)
		require.NotNil(t, p.Avatar)
		require.Equal(t, "a.png", *p.Avatar)
		require.NotNil(t, p.Email)
		require.Equal(t, "jo@example.com", *p.Email)
	})

	t.Run("optional fields absent or null", func(t *testing.T) {
		p, err := loginflow.DecodeProfile([]byte(`{"id":"1","username":"jo","discriminator":"0042","avatar":null}`))
		require.NoError(t, err)
		require.Nil(t, p.Avatar)
		require.Nil(t, p.Email)
	})

	invalid := map[string]string{
		"missing id":            `{"username":"jo","discriminator":"0042"}`,
		"missing username":      `{"id":"1","discriminator":"0042"}`,
		"missing discriminator": `{"id":"1","username":"jo"}`,
		"id not a string":       `{"id":1,"username":"jo","discriminator":"0042"}`,
		"null username":         `{"id":"1","username":null,"discriminator":"0042"}`,
		"email not a string":    `{"id":"1","username":"jo","discriminator":"0042","email":true}`,
		"not an object":         `["1","jo"]`,
		"not json":              `<html>oops</html>`,
		"empty body":            ``,
	}
	for name, body := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := loginflow.DecodeProfile([]byte(body))
			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrDeserialization)
		})
	}
}
