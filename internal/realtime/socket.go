package realtime

import (
	"fmt"
	"net/http"
	"sync"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"

	"github.com/unihub-app/unihub-backend/pkg/logger"
	"github.com/unihub-app/unihub-backend/pkg/utils"
)

// SocketServer bridges the hub to socket.io clients. Each authenticated
// connection joins a personal room and holds hub subscriptions for the user's
// live sequences; disconnect releases them.
type SocketServer struct {
	server *socketio.Server
	hub    *Hub
	secret string

	mu          sync.Mutex
	socketSubs  map[string][]*Subscription // socket id -> held subscriptions
	onlineUsers map[string]string          // userId -> socket id
}

func NewSocketServer(hub *Hub, jwtSecret string) *SocketServer {
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
			&polling.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
		},
	})

	ss := &SocketServer{
		server:      server,
		hub:         hub,
		secret:      jwtSecret,
		socketSubs:  make(map[string][]*Subscription),
		onlineUsers: make(map[string]string),
	}

	server.OnConnect("/", ss.onConnect)
	server.OnEvent("/", "join_channel", func(s socketio.Conn, channelID string) {
		userID, _ := s.Context().(string)
		if userID == "" || channelID == "" {
			return
		}
		s.Join("channel:" + channelID)
		ss.attach(s.ID(), TopicChannelMessages(channelID), "channel:"+channelID)
	})
	server.OnDisconnect("/", ss.onDisconnect)
	server.OnError("/", func(s socketio.Conn, e error) {
		logger.Warn().Err(e).Msg("socket error")
	})

	go server.Serve()
	return ss
}

func (ss *SocketServer) onConnect(s socketio.Conn) error {
	s.SetContext("")
	url := s.URL()

	token := url.Query().Get("token")
	if token == "" {
		token = url.Query().Get("auth_token") // Fallback
	}
	if token == "" {
		return fmt.Errorf("authentication required")
	}

	claims, err := utils.ValidateToken(token, ss.secret)
	if err != nil {
		return fmt.Errorf("invalid token")
	}
	userID := claims.UserID

	s.SetContext(userID)
	s.Join(userID)

	ss.mu.Lock()
	ss.onlineUsers[userID] = s.ID()
	ss.mu.Unlock()

	// Forward the user's live sequences to the personal room.
	ss.attach(s.ID(), TopicUserNotifications(userID), userID)
	ss.attach(s.ID(), TopicUserRequests(userID), userID)
	ss.attach(s.ID(), TopicUserChannels(userID), userID)

	logger.Debug().Str("user_id", userID).Str("socket_id", s.ID()).Msg("socket connected")
	return nil
}

// attach subscribes to a hub topic and pumps its events to the given room
// until the subscription is closed on disconnect.
func (ss *SocketServer) attach(socketID, topic, room string) {
	sub := ss.hub.Subscribe(topic)

	ss.mu.Lock()
	ss.socketSubs[socketID] = append(ss.socketSubs[socketID], sub)
	ss.mu.Unlock()

	go func() {
		for ev := range sub.C {
			ss.server.BroadcastToRoom("/", room, ev.Kind, ev.Payload)
		}
	}()
}

func (ss *SocketServer) onDisconnect(s socketio.Conn, reason string) {
	ss.mu.Lock()
	subs := ss.socketSubs[s.ID()]
	delete(ss.socketSubs, s.ID())
	for userID, socketID := range ss.onlineUsers {
		if socketID == s.ID() {
			delete(ss.onlineUsers, userID)
			break
		}
	}
	ss.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	logger.Debug().Str("reason", reason).Msg("socket disconnected")
}

// IsUserOnline checks if a user has a live socket.
func (ss *SocketServer) IsUserOnline(userID string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	_, ok := ss.onlineUsers[userID]
	return ok
}

// ServeHTTP lets the gin router mount /socket.io.
func (ss *SocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ss.server.ServeHTTP(w, r)
}

func (ss *SocketServer) Close() error {
	return ss.server.Close()
}
