package transport

import "time"

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	AccessExp   time.Time `json:"access_exp"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	IsAdmin     bool      `json:"is_admin"`
}
