// Package policy derives the password validation rule set from the
// application settings and evaluates candidate passwords against it.
package policy

import (
	"fmt"
	"unicode"

	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/db/controller/setting"
)

// Defaults used when the backing settings are absent.
const (
	DefaultMinLength        = 8
	DefaultRequireUppercase = true
	DefaultRequireLowercase = true
	DefaultRequireNumbers   = true
	DefaultRequireSymbols   = false
)

// Rule is a single predicate with the message reported when it is violated.
type Rule struct {
	Name    string
	Message string
	Check   func(password string) bool
}

// Policy is the ordered list of password rules in effect.
type Policy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumbers   bool
	RequireSymbols   bool
}

// Load reads the current password settings from the store. Missing keys
// fall back to the documented defaults.
func Load(db *gorm.DB) Policy {
	return Policy{
		MinLength:        int(setting.IntValue(db, "min_password_length", DefaultMinLength)),
		RequireUppercase: setting.BoolValue(db, "require_uppercase", DefaultRequireUppercase),
		RequireLowercase: setting.BoolValue(db, "require_lowercase", DefaultRequireLowercase),
		RequireNumbers:   setting.BoolValue(db, "require_numbers", DefaultRequireNumbers),
		RequireSymbols:   setting.BoolValue(db, "require_symbols", DefaultRequireSymbols),
	}
}

// Rules expands the policy into its ordered predicate list.
func (p Policy) Rules() []Rule {
	rules := []Rule{
		{
			Name:    "min_length",
			Message: fmt.Sprintf("The password must be at least %d characters.", p.MinLength),
			Check: func(password string) bool {
				return len([]rune(password)) >= p.MinLength
			},
		},
	}

	if p.RequireUppercase {
		rules = append(rules, Rule{
			Name:    "uppercase",
			Message: "The password must contain at least one uppercase letter.",
			Check:   containsFunc(unicode.IsUpper),
		})
	}

	if p.RequireLowercase {
		rules = append(rules, Rule{
			Name:    "lowercase",
			Message: "The password must contain at least one lowercase letter.",
			Check:   containsFunc(unicode.IsLower),
		})
	}

	if p.RequireNumbers {
		rules = append(rules, Rule{
			Name:    "number",
			Message: "The password must contain at least one number.",
			Check:   containsFunc(unicode.IsDigit),
		})
	}

	if p.RequireSymbols {
		rules = append(rules, Rule{
			Name:    "symbol",
			Message: "The password must contain at least one special character.",
			Check: containsFunc(func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r)
			}),
		})
	}

	return rules
}

// Validate evaluates a candidate password and its confirmation. It returns
// the messages of every violated rule so the caller can highlight each
// failure; an empty slice means the password is accepted.
func (p Policy) Validate(password, confirmation string) []string {
	var violations []string

	if password == "" {
		violations = append(violations, "The password field is required.")
		return violations
	}

	for _, rule := range p.Rules() {
		if !rule.Check(password) {
			violations = append(violations, rule.Message)
		}
	}

	if password != confirmation {
		violations = append(violations, "The password confirmation does not match.")
	}

	return violations
}

func containsFunc(match func(rune) bool) func(string) bool {
	return func(password string) bool {
		for _, r := range password {
			if match(r) {
				return true
			}
		}

		return false
	}
}
