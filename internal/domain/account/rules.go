package account

import (
	"net/mail"
	"slices"
	"strings"
	"unicode"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordBytes = 72
)

type Role string

const (
	RoleUser   Role = "user"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleEditor:
		return RoleEditor, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrUnknownRole
	}
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail accepts a bare address (no display name) with a dotted domain.
func ValidateEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != strings.TrimSpace(email) {
		return false
	}
	at := strings.LastIndex(addr.Address, "@")
	if at <= 0 {
		return false
	}
	domain := addr.Address[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// ValidatePasswordFormat requires a letter and a digit and a length bcrypt can hash.
func ValidatePasswordFormat(password string) bool {
	if len([]rune(password)) < MinPasswordLength || len(password) > MaxPasswordBytes {
		return false
	}
	hasLetter := strings.IndexFunc(password, unicode.IsLetter) >= 0
	hasDigit := strings.IndexFunc(password, unicode.IsDigit) >= 0
	return hasLetter && hasDigit
}

// EmailDomain returns the lowercased part after the last "@".
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

func IsAllowedDomain(email string, allowed []string) bool {
	domain := EmailDomain(email)
	return domain != "" && slices.Contains(allowed, domain)
}

func IsAdminEmail(email string, adminEmails []string) bool {
	return slices.Contains(adminEmails, NormalizeEmail(email))
}

// Satisfies reports whether a user with the given flags holds role.
// Admins hold every role.
func Satisfies(isEditor bool, isAdmin bool, role Role) bool {
	switch role {
	case RoleAdmin:
		return isAdmin
	case RoleEditor:
		return isEditor || isAdmin
	default:
		return true
	}
}
