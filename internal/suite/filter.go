package suite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/pflag"
)

var _ pflag.Value = (*Patterns)(nil)

// Patterns is a repeatable --run/--skip flag value matched against case names.
type Patterns []*regexp.Regexp

func (p Patterns) String() string {
	quoted := make([]string, 0, len(p))
	for _, rx := range p {
		quoted = append(quoted, fmt.Sprintf("%q", rx.String()))
	}
	return strings.Join(quoted, ", ")
}

func (p *Patterns) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("regexp.Compile(%q) > %w", value, err)
	}
	*p = append(*p, rx)
	return nil
}

func (p Patterns) Type() string {
	return "regex"
}

func (p Patterns) matches(name string) bool {
	for _, rx := range p {
		if rx.MatchString(name) {
			return true
		}
	}
	return false
}

// Filter selects cases by name. With no Include patterns every case is
// included; Exclude always wins.
type Filter struct {
	Include Patterns
	Exclude Patterns
}

func (f Filter) Match(name string) bool {
	if f.Exclude.matches(name) {
		return false
	}
	return len(f.Include) == 0 || f.Include.matches(name)
}

// Apply returns a copy of s holding only the matching cases, and the names
// of the cases left out.
func (f Filter) Apply(s Suite) (Suite, []string) {
	selected := s
	selected.Cases = nil
	var skipped []string
	for _, c := range s.Cases {
		if f.Match(c.Name) {
			selected.Cases = append(selected.Cases, c)
		} else {
			skipped = append(skipped, c.Name)
		}
	}
	return selected, skipped
}
