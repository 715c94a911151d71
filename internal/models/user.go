package models

import "strings"

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
	Initials  string `json:"initials"`
}

// Identity is what the identity provider tells us about a signed-in account.
type Identity struct {
	ExternalID  string `json:"externalId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoUrl"`
}

// Initials takes the first letter of the first two space-separated tokens of name.
func Initials(name string) string {
	tokens := strings.Split(name, " ")
	var b strings.Builder
	for i := 0; i < len(tokens) && i < 2; i++ {
		for _, r := range tokens[i] {
			b.WriteRune(r)
			break
		}
	}
	return b.String()
}

// DisplayNameFor falls back to the local part of the email when name is empty.
func DisplayNameFor(name, email string) string {
	if name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// PlaceholderAvatar returns a deterministic placeholder image URL for name.
func PlaceholderAvatar(name string) string {
	return "https://picsum.photos/seed/" + name + "/200"
}
