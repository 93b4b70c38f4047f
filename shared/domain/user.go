package domain

// User is the viewer identity snapshot taken at write time. Email may be
// empty: older accounts and some providers expose no address, and callers
// must treat that as unknown, not as a real value.
type User struct {
	Id          string `json:"uid"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	Email       string `json:"email,omitempty"`
}

// NameOrAnonymous is the display fallback used everywhere a name is shown
// or put into an email.
func (u User) NameOrAnonymous() string {
	if u.DisplayName == "" {
		return "Anonymous"
	}
	return u.DisplayName
}
