package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/auth"
	"github.com/frahmantamala/gearguard/internal/transport"
)

// Authenticator resolves a bearer token. auth.Handler satisfies it.
type Authenticator interface {
	Authenticate(token string) (*auth.User, error)
}

type Handler struct {
	*transport.BaseHandler
	hub      *Hub
	auth     Authenticator
	upgrader websocket.Upgrader
}

// NewHandler accepts connections from allowedOrigins (comma separated, "*"
// for any).
func NewHandler(hub *Hub, authenticator Authenticator, allowedOrigins string) *Handler {
	origins := map[string]bool{}
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = true
		}
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(hub.logger),
		hub:         hub,
		auth:        authenticator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// ServeWS authenticates with ?token= (browsers cannot set headers on the
// upgrade) or the Authorization header.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = h.ExtractTokenFromHeader(r)
	}
	if token == "" {
		h.HandleServiceError(w, internal.ErrAuthRequired)
		return
	}

	user, err := h.auth.Authenticate(token)
	if err != nil {
		h.Logger.Error("ServeWS: authentication failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("ServeWS: upgrade failed", "error", err, "user_id", user.ID)
		return
	}

	client := NewClient(h.hub, conn, user.ID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	h.Logger.Info("ServeWS: client connected", "user_id", user.ID)
}
