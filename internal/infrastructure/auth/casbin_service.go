package auth

import (
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"github.com/you/taskconsole/domain"
)

// DefaultModel is used when no model file is configured
const DefaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// DefaultPolicies are seeded when the policy store is empty
var DefaultPolicies = [][]string{
	{domain.RoleAdmin.Subject(), "/api/*", "GET|POST|PUT|DELETE"},
	{domain.RoleUser.Subject(), "/api/tasks", "GET"},
	{domain.RoleUser.Subject(), "/api/tasks/:id", "PUT"},
}

type CasbinService struct{ E *casbin.Enforcer }

// NewCasbinService builds an enforcer backed by the gorm adapter when db is non-nil,
// otherwise by an in-memory policy set. modelPath may be empty to use DefaultModel.
func NewCasbinService(db *gorm.DB, modelPath string) (*CasbinService, error) {
	m, err := loadModel(modelPath)
	if err != nil {
		return nil, err
	}

	var E *casbin.Enforcer
	if db != nil {
		adp, err := gormadapter.NewAdapterByDB(db)
		if err != nil {
			return nil, fmt.Errorf("casbin adapter: %w", err)
		}
		if E, err = casbin.NewEnforcer(m, adp); err != nil {
			return nil, err
		}
		if err := E.LoadPolicy(); err != nil {
			return nil, err
		}
	} else if E, err = casbin.NewEnforcer(m, memoryAdapter{}); err != nil {
		return nil, err
	}

	if err := seed(E); err != nil {
		return nil, err
	}
	return &CasbinService{E}, nil
}

// memoryAdapter keeps policies only in the enforcer, so SavePolicy is a no-op
type memoryAdapter struct{}

func (memoryAdapter) LoadPolicy(model.Model) error { return nil }
func (memoryAdapter) SavePolicy(model.Model) error { return nil }
func (memoryAdapter) AddPolicy(string, string, []string) error { return nil }
func (memoryAdapter) RemovePolicy(string, string, []string) error { return nil }
func (memoryAdapter) RemoveFilteredPolicy(string, string, int, ...string) error { return nil }

var _ persist.Adapter = memoryAdapter{}

func loadModel(modelPath string) (model.Model, error) {
	if modelPath != "" {
		return model.NewModelFromFile(modelPath)
	}
	return model.NewModelFromString(DefaultModel)
}

func seed(E *casbin.Enforcer) error {
	existing, err := E.GetPolicy()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, p := range DefaultPolicies {
		if _, err := E.AddPolicy(p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("seed policy %v: %w", p, err)
		}
	}
	slog.Default().Info("seeded default casbin policies", "module", "auth", "count", len(DefaultPolicies))
	return nil
}
