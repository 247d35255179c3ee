package trex

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Access-control roles of the suite contracts.
var (
	AgentRole        = crypto.Keccak256Hash([]byte("AGENT_ROLE"))
	TokenRole        = crypto.Keccak256Hash([]byte("TOKEN_ROLE"))
	DefaultAdminRole = common.Hash{}
)

var roles = map[string]common.Hash{
	"AGENT_ROLE":         AgentRole,
	"TOKEN_ROLE":         TokenRole,
	"DEFAULT_ADMIN_ROLE": DefaultAdminRole,
}

// Role resolves a role name (case-insensitive) to its identifier.
func Role(name string) (common.Hash, error) {
	if h, ok := roles[strings.ToUpper(name)]; ok {
		return h, nil
	}
	return common.Hash{}, fmt.Errorf("unknown role %q", name)
}

// RoleNames lists the known role names, sorted.
func RoleNames() []string {
	out := make([]string, 0, len(roles))
	for n := range roles {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
