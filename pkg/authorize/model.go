package authorize

import (
	"github.com/casbin/casbin/v2/model"
)

// defaultModel is used when no model file is configured.
const defaultModel = `[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act, eft

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = (g(r.sub, p.sub, r.dom) || g(r.sub, p.sub, "sys") || r.sub == p.sub) && (p.dom == "*" || p.dom == r.dom) && (p.obj == "*" || p.obj == r.obj) && (p.act == "*" || p.act == r.act || (p.act == "manage" && r.act in ('create', 'read', 'update', 'delete', 'list')))
`

// LoadModel reads the casbin model at path, or the built-in model when path
// is empty.
func LoadModel(path string) (model.Model, error) {
	if path == "" {
		return model.NewModelFromString(defaultModel)
	}
	return model.NewModelFromFile(path)
}
