package api

import "github.com/realReloadTime/web-development/internal/envelope"

// Room is a chat room the current user belongs to.
type Room struct {
	ID               envelope.ID        `json:"id"`
	Name             string             `json:"name"`
	IsGroup          bool               `json:"is_group"`
	CreatedAt        envelope.Timestamp `json:"created_at"`
	ParticipantCount int                `json:"participant_count"`
}

// Participant is a room membership.
type Participant struct {
	ID       envelope.ID        `json:"id"`
	RoomID   envelope.ID        `json:"room_id"`
	UserID   envelope.ID        `json:"user_id"`
	IsAdmin  bool               `json:"is_admin"`
	JoinedAt envelope.Timestamp `json:"joined_at"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
}

// User is an entry of the user directory.
type User struct {
	ID       envelope.ID `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
}

type onlineResponse struct {
	OnlineUsers []envelope.OnlineUser `json:"online_users"`
}

type unreadResponse struct {
	UnreadCount int `json:"unread_count"`
}
