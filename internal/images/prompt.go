package images

import "fmt"

// Role names one of S6's three image slots.
type Role string

const (
	RoleHero   Role = "hero"
	RoleMid    Role = "mid"
	RoleBottom Role = "bottom"
)

// AspectRatio returns the configured aspect ratio key for a role.
func (r Role) AspectRatio(hero, mid, bottom string) string {
	switch r {
	case RoleHero:
		return hero
	case RoleMid:
		return mid
	case RoleBottom:
		return bottom
	default:
		return "1:1"
	}
}

// BuildPrompt derives a deterministic image prompt from the headline and
// role, per S6's "prompts derived from Headline and each image's role".
func BuildPrompt(headline string, role Role) string {
	switch role {
	case RoleHero:
		return fmt.Sprintf("A professional, editorial hero banner image representing the topic: %q. Wide cinematic composition, no embedded text.", headline)
	case RoleMid:
		return fmt.Sprintf("A supporting illustrative image for an article about %q, placed mid-article. Clean, modern, no embedded text.", headline)
	case RoleBottom:
		return fmt.Sprintf("A closing, summary-style illustrative image for an article about %q. Calm, conclusive tone, no embedded text.", headline)
	default:
		return headline
	}
}
