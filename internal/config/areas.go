package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/you/taskconsole/domain"
	"gopkg.in/yaml.v3"
)

// AreaRule maps a path prefix to the role allowed to browse it
type AreaRule struct {
	Prefix string      `yaml:"prefix"`
	Role   domain.Role `yaml:"role"`
}

// DefaultAreas are the console's two role-scoped areas
func DefaultAreas() []AreaRule {
	return []AreaRule{
		{Prefix: "/admin", Role: domain.RoleAdmin},
		{Prefix: "/users", Role: domain.RoleUser},
	}
}

// MatchArea returns the role required for path using the longest matching prefix
func MatchArea(rules []AreaRule, path string) (domain.Role, bool) {
	best := -1
	var role domain.Role
	for _, r := range rules {
		if path != r.Prefix && !strings.HasPrefix(path, strings.TrimSuffix(r.Prefix, "/")+"/") {
			continue
		}
		if len(r.Prefix) > best {
			best = len(r.Prefix)
			role = r.Role
		}
	}
	return role, best >= 0
}

func loadAreaRules(path string) ([]AreaRule, error) {
	bytes, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultAreas(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read area rules file: %w", err)
	}

	var file struct {
		Areas []AreaRule `yaml:"areas"`
	}
	if err := yaml.Unmarshal(bytes, &file); err != nil {
		return nil, fmt.Errorf("could not parse area rules yaml: %w", err)
	}
	if len(file.Areas) == 0 {
		return DefaultAreas(), nil
	}
	for _, a := range file.Areas {
		if !strings.HasPrefix(a.Prefix, "/") {
			return nil, fmt.Errorf("area prefix %q must start with /", a.Prefix)
		}
		if !a.Role.Valid() {
			return nil, fmt.Errorf("area %s: unknown role %q", a.Prefix, a.Role)
		}
	}
	sort.SliceStable(file.Areas, func(i, j int) bool { return len(file.Areas[i].Prefix) > len(file.Areas[j].Prefix) })
	return file.Areas, nil
}
