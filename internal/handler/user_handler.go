/*
Package handler provides HTTP handler functions for user authentication and management.
*/
package handler

import (
	"errors"
	"net/http"

	"wordplaza/internal/app/account"
	"wordplaza/internal/pkg/auth/jwt"
	"wordplaza/internal/pkg/errs"
	"wordplaza/internal/pkg/logx"
	"wordplaza/internal/pkg/resp"
)

// HandleGetUserStats returns the lifetime game statistics of the
// authenticated user.
func HandleGetUserStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil || identity.UserType != "registered" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		stats, err := deps.Accounts.GetStats(r.Context(), identity.ID)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}

			logx.Error(err, "get_user_stats: stats fetch failed", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"stats": map[string]any{
				"gamesPlayed": stats.GamesPlayed,
				"wins":        stats.Wins,
				"points":      stats.Points,
			},
		})
	}
}
