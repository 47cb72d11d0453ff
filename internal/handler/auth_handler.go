/*
Package handler provides HTTP handler functions for user authentication and management.
*/
package handler

import (
	"errors"
	"net/http"
	"regexp"
	"time"
	"unicode/utf8"

	"wordplaza/internal/app/account"
	"wordplaza/internal/pkg/auth/jwt"
	"wordplaza/internal/pkg/errs"
	"wordplaza/internal/pkg/logx"
	"wordplaza/internal/pkg/randx"
	"wordplaza/internal/pkg/req"
	"wordplaza/internal/pkg/resp"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-z0-9_]{4,20}$`)
)

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister processes the request to create a new user account with only username and password.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input RegisterInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !usernameRegex.MatchString(input.Username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < 6 || passwordLen > 50 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		nickname, err := randx.Nickname()
		if err != nil {
			nickname = "User_X"
		}

		user, err := deps.Accounts.CreateUser(r.Context(), input.Username, input.Password, nickname)
		if err != nil {
			if errors.Is(err, account.ErrDuplicateUsername) {
				logx.Warn("registration conflict: username already exists", "username", input.Username)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user in database")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		payload := &jwt.Payload{
			ID:       user.ID,
			UserType: "registered",
			Nickname: user.Nickname,
		}

		tokenString, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.UserIdentityExpiration)
		if err != nil {
			logx.Error(err, "failed to generate token after registration")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": tokenString,
			"user": map[string]any{
				"id":        user.ID,
				"username":  user.Username,
				"nickname":  user.Nickname,
				"userType":  "registered",
				"createdAt": user.CreatedAt.Format(time.RFC3339),
			},
		})
	}
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin verifies user credentials and issues a JWT token.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if identity := jwt.GetPayloadFromContext(r); identity != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		user, err := deps.Accounts.Authenticate(r.Context(), input.Username, input.Password)
		if err != nil {
			if errors.Is(err, account.ErrInvalidCredentials) {
				logx.Warn("login: credential check failed", "username", input.Username)
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
				return
			}

			logx.Error(err, "login: user fetch failed", "username", input.Username)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		payload := &jwt.Payload{
			ID:       user.ID,
			UserType: "registered",
			Nickname: user.Nickname,
		}

		token, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.UserIdentityExpiration)
		if err != nil {
			logx.Error(err, "login: jwt generation failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": token,
			"user": map[string]any{
				"id":       user.ID,
				"username": user.Username,
				"nickname": user.Nickname,
				"userType": "registered",
			},
		})
	}
}
