/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting,
optional account binding via token, upgrading the HTTP connection to WebSocket, and
initiating the client lifecycle.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"wordplaza/internal/app/world"
	"wordplaza/internal/pkg/auth/jwt"
	"wordplaza/internal/pkg/errs"
	"wordplaza/internal/pkg/limiter"
	"wordplaza/internal/pkg/logx"
	"wordplaza/internal/pkg/randx"
	"wordplaza/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// An optional token query parameter binds the connection to a registered account so
// that game results count toward its stats; without it the connection is a guest.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			rateLimitErr := errs.NewError(errs.ErrRateLimitExceeded)
			resp.RespondError(w, r, rateLimitErr)
			return
		}

		var account *world.BoundAccount
		if tokenString := r.URL.Query().Get("token"); tokenString != "" {
			payload, err := jwt.ParseToken(tokenString, deps.Config.JWTSecret)
			if err != nil {
				logx.Warn("WebSocket token invalid, continuing as guest.", "ip", ip)
			} else {
				account = &world.BoundAccount{
					ID:       payload.ID,
					Nickname: payload.Nickname,
				}
			}
		}

		connID := randx.EventID()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := world.NewClient(deps.Service, deps.Hub, conn, connID, account)

		go client.WritePump()

		logx.Info("WebSocket connection established and client registered", "conn_id", connID)

		client.ReadPump()
	}
}
