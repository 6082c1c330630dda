package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateUserToken(t *testing.T) {
	svc := NewJWTService("test-secret", 24, 1)
	id := uuid.New()

	token, err := svc.GenerateUser(id)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.SubjectID)
	assert.Equal(t, KindUser, claims.Kind)
}

func TestGenerateAndValidateAdminToken(t *testing.T) {
	svc := NewJWTService("test-secret", 24, 1)
	id := uuid.New()

	token, err := svc.GenerateAdmin(id)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.SubjectID)
	assert.Equal(t, KindAdmin, claims.Kind)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 24, 1).GenerateUser(uuid.New())
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", 24, 1).Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-secret", -1, -1)
	token, err := svc.GenerateUser(uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", 24, 1)
	_, err := svc.Validate("not-a-token")
	assert.Error(t, err)
}
