package services

import (
	"testing"

	"github.com/devsync/teamchat-api/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(env.users, env.creds)

	user, err := svc.Register(RegisterInput{
		Name:        "Alice",
		Email:       "  Alice@Example.com ",
		Password:    "secret1",
		GithubToken: "ghp_alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, constants.DefaultProfilePicture, user.Pic)
	assert.NotEqual(t, "ghp_alice", user.GithubToken)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	token, err := env.creds.TokenFor(user)
	require.NoError(t, err)
	assert.Equal(t, "ghp_alice", token)

	_, err = svc.Register(RegisterInput{Name: "A2", Email: "alice@example.com", Password: "secret1", GithubToken: "x"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	loggedIn, err := svc.Login(LoginInput{Email: "ALICE@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, err = svc.Login(LoginInput{Email: "alice@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(LoginInput{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(env.users, env.creds)

	_, err := svc.Register(RegisterInput{Name: "Alice", Email: "a@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Register(RegisterInput{Name: "Alice", Email: "not-an-email", Password: "secret1", GithubToken: "t"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Register(RegisterInput{Name: "Alice", Email: "a@example.com", Password: "123", GithubToken: "t"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestAuthService_UpdateGithubToken(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(env.users, env.creds)
	user, err := svc.Register(RegisterInput{Name: "Alice", Email: "a@example.com", Password: "secret1", GithubToken: "ghp_one"})
	require.NoError(t, err)

	changed, err := svc.UpdateGithubToken(user.ID, "ghp_one")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = svc.UpdateGithubToken(user.ID, "ghp_two")
	require.NoError(t, err)
	assert.True(t, changed)

	reloaded, err := svc.GetUser(user.ID)
	require.NoError(t, err)
	token, err := env.creds.TokenFor(reloaded)
	require.NoError(t, err)
	assert.Equal(t, "ghp_two", token)

	_, err = svc.UpdateGithubToken(999, "ghp")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = svc.UpdateGithubToken(user.ID, " ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_SearchUsersExcludesRequester(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(env.users, env.creds)
	alice := env.addUser(t, "Alice", "")
	env.addUser(t, "Alina", "")
	env.addUser(t, "Bob", "")

	users, err := svc.SearchUsers(alice.ID, "ALI")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Alina", users[0].Name)
}
