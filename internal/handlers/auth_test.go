package handlers

import (
	"net/http"
	"net/url"

	"github.com/yukikurage/collab-api/internal/dto"
	apierrors "github.com/yukikurage/collab-api/internal/errors"
)

func (suite *HandlerTestSuite) TestSignupVerifyAndLogin() {
	w := suite.request(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "newuser",
		"email":    "newuser@example.com",
		"password": "supersecret",
	}, nil)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var account dto.AccountDTO
	suite.decode(w, &account)
	suite.Equal("newuser", account.Username)
	suite.False(account.Enabled)

	login := map[string]string{"username": "newuser", "password": "supersecret"}
	w = suite.request(http.MethodPost, "/api/auth/login", login, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	token := suite.mail.Token("newuser@example.com")
	suite.Require().NotEmpty(token)
	w = suite.request(http.MethodPost, "/api/auth/verify-email", map[string]string{"token": token}, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodPost, "/api/auth/login", login, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	w = suite.request(http.MethodGet, "/api/auth/me", nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &account)
	suite.Equal("newuser@example.com", account.Email)
	suite.True(account.Enabled)
}

func (suite *HandlerTestSuite) TestSignup_Validation() {
	w := suite.request(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "ab",
		"email":    "not-an-email",
		"password": "supersecret",
	}, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidInput, suite.errorCode(w))

	w = suite.request(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "shortpass",
		"email":    "shortpass@example.com",
		"password": "short",
	}, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	suite.login("taken")
	w = suite.request(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "taken",
		"email":    "other@example.com",
		"password": "supersecret",
	}, nil)
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal(apierrors.ErrCodeAlreadyExists, suite.errorCode(w))
}

func (suite *HandlerTestSuite) TestLoginFailuresAndLogout() {
	_, cookies := suite.login("existing")

	w := suite.request(http.MethodPost, "/api/auth/login", map[string]string{"username": "existing", "password": "wrong-password"}, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal(apierrors.ErrCodeUnauthorized, suite.errorCode(w))

	w = suite.request(http.MethodGet, "/api/auth/me", nil, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.request(http.MethodPost, "/api/auth/logout", nil, cookies)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/api/auth/me", nil, w.Result().Cookies())
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestPasswordResetFlow() {
	user, _ := suite.login("forgetful")

	w := suite.request(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": user.Email}, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	link, err := url.Parse(suite.mail.Token(user.Email))
	suite.Require().NoError(err)
	suite.Equal("/reset-password", link.Path)

	w = suite.request(http.MethodPost, "/api/auth/reset-password", map[string]string{
		"token":        link.Query().Get("token"),
		"new_password": "brand-new-password",
	}, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodPost, "/api/auth/login", map[string]string{"username": "forgetful", "password": "brand-new-password"}, nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "ghost@example.com"}, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteAccount() {
	_, cookies := suite.login("leaving")

	w := suite.request(http.MethodDelete, "/api/auth/account", map[string]string{"password": "nope"}, cookies)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, "/api/auth/account", map[string]string{"password": "password123"}, cookies)
	suite.Require().Equal(http.StatusNoContent, w.Code)

	w = suite.request(http.MethodPost, "/api/auth/login", map[string]string{"username": "leaving", "password": "password123"}, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}
