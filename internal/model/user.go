package model

// User represents a registered account. The password column only ever holds
// a bcrypt hash.
type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Name         string `json:"name" gorm:"size:255;not null"`
	Email        string `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `json:"-" gorm:"column:password;size:255;not null"` // Never expose in JSON
}

// UserView is the externally visible projection of a User.
type UserView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// View strips credential material from the user.
func (u *User) View() UserView {
	return UserView{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}
