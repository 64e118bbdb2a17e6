package model

const (
	RoleChoriste = "CHORISTE"
	RoleAdmin    = "ADMIN"
)

// Account lifecycle. Status only moves forward: email verification
// promotes to pending approval, an admin action promotes to active.
const (
	StatusPendingEmailVerification = "PENDING_EMAIL_VERIFICATION"
	StatusPendingMCApproval        = "PENDING_MC_APPROVAL"
	StatusActive                   = "ACTIVE"
)

type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	PasswordHash     string `json:"-"`
	FullName         string `json:"full_name"`
	Role             string `json:"role"`
	Status           string `json:"status"`
	RefreshTokenHash string `json:"-"`
	Ctime            int64  `json:"ctime"`
	Mtime            int64  `json:"mtime"`
}

// PublicUser is the projection returned by auth and user endpoints.
// Password and refresh-token hashes never leave the service.
type PublicUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Status   string `json:"status,omitempty"`
	Ctime    int64  `json:"createdAt,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		Status:   u.Status,
		Ctime:    u.Ctime,
	}
}

func ValidRole(role string) bool {
	return role == RoleChoriste || role == RoleAdmin
}
