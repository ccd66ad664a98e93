// Package tone selects a communication style from an appearance
// description and supplies the prompts that rewrite an answer into that
// style.
package tone

import (
	"fmt"
	"strings"
)

// Profile is one of the four supported communication styles.
type Profile string

const (
	ChildFriendly        Profile = "child_friendly"
	ElderFriendly        Profile = "elder_friendly"
	ProfessionalFriendly Profile = "professional_friendly"
	CasualFriendly       Profile = "casual_friendly"
)

// Profiles lists every supported profile in a stable order.
func Profiles() []Profile {
	return []Profile{ChildFriendly, ElderFriendly, ProfessionalFriendly, CasualFriendly}
}

// Parse normalizes and validates a profile name.
func Parse(s string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown tone %q (supported: %v)", s, Profiles())
	}
	return p, nil
}

func (p Profile) Valid() bool {
	switch p {
	case ChildFriendly, ElderFriendly, ProfessionalFriendly, CasualFriendly:
		return true
	}
	return false
}

func (p Profile) String() string {
	return string(p)
}

// Audience is the phrase the rewrite instruction addresses the listener
// with.
func (p Profile) Audience() string {
	switch p {
	case ChildFriendly:
		return "children"
	case ElderFriendly:
		return "elderly people"
	case ProfessionalFriendly:
		return "professional adult"
	case CasualFriendly:
		return "casual and chill adult"
	}
	return strings.ReplaceAll(string(p), "_", " ")
}
