package model

import "time"

// User is a participant account.
//
// PasswordHash holds a bcrypt hash, never the plaintext credential, and is
// excluded from JSON.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Nickname     string `json:"nickname"`
	PasswordHash string `json:"-"` // user_password
	IsAdmin      bool   `json:"isAdmin"`
}

// Identity is the authenticated principal kept in the visitor's session
// state between login and logout.
type Identity struct {
	UserID   int64
	Name     string
	Nickname string
	IsAdmin  bool
}

// IdentityOf builds the session identity for u.
func IdentityOf(u *User) *Identity {
	return &Identity{
		UserID:   u.ID,
		Name:     u.Name,
		Nickname: u.Nickname,
		IsAdmin:  u.IsAdmin,
	}
}

// Session is a collaboration/event grouping of users. It has nothing to do
// with the HTTP session that carries an Identity.
type Session struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PermissionUser is the level given to members created in the roster editor.
const PermissionUser = "user"

// Membership is a User_Session row. (UserID, SessionID) is unique.
type Membership struct {
	UserID     int64      `json:"userId"`
	SessionID  int64      `json:"sessionId"`
	JoinedAt   time.Time  `json:"joinedAt"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
	Permission string     `json:"permission"`
}

// Member is the roster view of a user inside one session.
type Member struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
}

// Progress is a User_Project row. A nil CompletedAt means not completed.
//
// The table has no uniqueness on (UserID, ProjectID); see GiveProject.
type Progress struct {
	UserID      int64      `json:"userId"`
	ProjectID   int64      `json:"projectId"`
	Bookmark    *int64     `json:"bookmark,omitempty"` // video id
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
