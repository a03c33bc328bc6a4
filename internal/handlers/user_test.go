package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"message-service/internal/apperror"
	"message-service/internal/auth"
	"message-service/internal/middleware"
	"message-service/internal/mocks"
	"message-service/internal/models"
	"message-service/internal/repositories"
)

func setupUserRouter(handler *UserHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/user/signup", handler.Signup)
	r.POST("/api/user/signin", middleware.ValidateSignin(), handler.Signin)
	r.GET("/api/user/:username", handler.Get)
	r.PUT("/api/user/:username", handler.Update)
	r.DELETE("/api/user/:username", handler.Delete)
	r.GET("/api/user/:username/groups", handler.Groups)
	return r
}

func TestSignupSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Username == "alice" && u.PasswordHash != "" && u.PasswordHash != "pw"
	})).Return(models.User{Username: "alice", Email: "a@example.com"}, nil).Once()

	handler := NewUserHandler(users, new(mocks.GroupRepositoryMock), auth.NewTokenService("key"), nil)
	router := setupUserRouter(handler)

	body := bytes.NewBufferString(`{"username":"alice","password":"pw","email":"a@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/user/signup", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	users.AssertExpectations(t)
}

func TestSignupDuplicateUsername(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Create", mock.Anything, mock.Anything).
		Return(nil, apperror.NewValidation("username already exists!", nil)).Once()

	handler := NewUserHandler(users, new(mocks.GroupRepositoryMock), auth.NewTokenService("key"), nil)
	router := setupUserRouter(handler)

	body := bytes.NewBufferString(`{"username":"alice","password":"pw"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/user/signup", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "username already exists!", rec.Body.String())
}

func TestSignupMissingFields(t *testing.T) {
	handler := NewUserHandler(new(mocks.UserRepositoryMock), new(mocks.GroupRepositoryMock), auth.NewTokenService("key"), nil)
	router := setupUserRouter(handler)

	body := bytes.NewBufferString(`{"username":"alice"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/user/signup", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "non-empty username and password expected", rec.Body.String())
}

func TestSigninIssuesUsableToken(t *testing.T) {
	hash, err := auth.HashPassword("pw")
	require.NoError(t, err)

	users := new(mocks.UserRepositoryMock)
	users.On("Get", mock.Anything, "alice").
		Return(models.User{Username: "alice", PasswordHash: hash}, nil).Once()

	tokens := auth.NewTokenService("key")
	handler := NewUserHandler(users, new(mocks.GroupRepositoryMock), tokens, nil)
	router := setupUserRouter(handler)

	body := bytes.NewBufferString(`{"username":"alice","password":"pw"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/user/signin", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var token string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	username, err := tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", username)
}

func TestSigninWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("pw")
	require.NoError(t, err)

	users := new(mocks.UserRepositoryMock)
	users.On("Get", mock.Anything, "alice").
		Return(models.User{Username: "alice", PasswordHash: hash}, nil).Once()

	handler := NewUserHandler(users, new(mocks.GroupRepositoryMock), auth.NewTokenService("key"), nil)
	router := setupUserRouter(handler)

	body := bytes.NewBufferString(`{"username":"alice","password":"nope"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/user/signin", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid Password", rec.Body.String())
}

func TestSigninUnknownUser(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Get", mock.Anything, "ghost").Return(nil, repositories.ErrUserNotFound).Once()

	handler := NewUserHandler(users, new(mocks.GroupRepositoryMock), auth.NewTokenService("key"), nil)
	router := setupUserRouter(handler)

	body := bytes.NewBufferString(`{"username":"ghost","password":"pw"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/user/signin", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUserSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Get", mock.Anything, "alice").
		Return(models.User{Username: "alice", Email: "a@example.com"}, nil).Once()

	handler := NewUserHandler(users, new(mocks.GroupRepositoryMock), auth.NewTokenService("key"), nil)
	router := setupUserRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/user/alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "password")
}

func TestGetUserNotFound(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Get", mock.Anything, "ghost").Return(nil, repositories.ErrUserNotFound).Once()

	handler := NewUserHandler(users, new(mocks.GroupRepositoryMock), auth.NewTokenService("key"), nil)
	router := setupUserRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/user/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "user not found", rec.Body.String())
}

func TestUpdateUser(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Update", mock.Anything, "alice", mock.MatchedBy(func(p models.UserPatch) bool {
		return p.Email != nil && *p.Email == "new@example.com" && p.PasswordHash == nil
	})).Return(models.User{Username: "alice", Email: "new@example.com"}, nil).Once()

	handler := NewUserHandler(users, new(mocks.GroupRepositoryMock), auth.NewTokenService("key"), nil)
	router := setupUserRouter(handler)

	body := bytes.NewBufferString(`{"email":"new@example.com"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/user/alice", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestDeleteUser(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Delete", mock.Anything, "alice").Return(nil).Once()

	handler := NewUserHandler(users, new(mocks.GroupRepositoryMock), auth.NewTokenService("key"), nil)
	router := setupUserRouter(handler)

	req := httptest.NewRequest(http.MethodDelete, "/api/user/alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUserGroups(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Get", mock.Anything, "alice").Return(models.User{Username: "alice"}, nil).Once()

	groups := new(mocks.GroupRepositoryMock)
	groups.On("ListGroupsForUser", mock.Anything, "alice").
		Return([]models.Group{{ID: 1, Name: "devs", Owner: "alice"}}, nil).Once()

	handler := NewUserHandler(users, groups, auth.NewTokenService("key"), nil)
	router := setupUserRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/user/alice/groups", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var list []models.Group
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "devs", list[0].Name)
}

func TestUserGroupsUnknownUser(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Get", mock.Anything, "ghost").Return(nil, repositories.ErrUserNotFound).Once()

	handler := NewUserHandler(users, new(mocks.GroupRepositoryMock), auth.NewTokenService("key"), nil)
	router := setupUserRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/user/ghost/groups", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteUserRepoFailure(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Delete", mock.Anything, "alice").Return(errors.New("db down")).Once()

	handler := NewUserHandler(users, new(mocks.GroupRepositoryMock), auth.NewTokenService("key"), nil)
	router := setupUserRouter(handler)

	req := httptest.NewRequest(http.MethodDelete, "/api/user/alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
