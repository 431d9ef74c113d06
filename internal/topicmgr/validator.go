package topicmgr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Topic names are dot-separated lowercase segments, e.g. arena.event.logged.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

// ValidateName checks a topic name without registering it.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name %q must be dot-separated lowercase segments", name)
	}
	return nil
}

func validate(t Topic) error {
	if err := ValidateName(t.Name); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return errors.New("description is empty")
	}
	switch t.Scope {
	case ScopeFramework:
		if t.Module != "" {
			return errors.New("framework topics have no module")
		}
	case ScopeModule:
		if t.Module == "" {
			return errors.New("module topics need a module")
		}
		if !strings.HasPrefix(t.Name, t.Module+".") {
			return fmt.Errorf("module topic must start with %q", t.Module+".")
		}
	default:
		return fmt.Errorf("unknown scope %q", t.Scope)
	}
	return nil
}
