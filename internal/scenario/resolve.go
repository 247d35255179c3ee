package scenario

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/trexctl/internal/contract"
	"github.com/Mohsinsiddi/trexctl/internal/onchainid"
	"github.com/Mohsinsiddi/trexctl/internal/trex"
	"github.com/Mohsinsiddi/trexctl/internal/wallet"
)

// Reference prefixes understood in arguments and expectations.
const (
	prefixVar      = "$"
	prefixContract = "contract:"
	prefixKeyHash  = "keyhash:"
)

// resolver turns scenario references into ABI-ready values.
type resolver struct {
	suite  *trex.Suite
	roster *wallet.Roster
	vars   map[string]common.Address
}

// resolve maps roster names, identity:<holder>, contract:<name>, role names,
// keyhash:<ref> and $var to addresses or hashes. Lists resolve element-wise;
// anything else passes through for ABI coercion.
func (r *resolver) resolve(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			rv, err := r.resolve(e)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	case string:
		return r.resolveString(x)
	}
	return v, nil
}

func (r *resolver) resolveString(s string) (interface{}, error) {
	switch {
	case strings.HasPrefix(s, prefixVar):
		addr, ok := r.vars[s[len(prefixVar):]]
		if !ok {
			return nil, fmt.Errorf("undefined variable %s", s)
		}
		return addr, nil
	case strings.HasPrefix(s, trex.IdentityPrefix), strings.HasPrefix(s, prefixContract):
		c, err := r.suite.Contract(strings.TrimPrefix(s, prefixContract))
		if err != nil {
			return nil, err
		}
		return c.Address, nil
	case strings.HasPrefix(s, prefixKeyHash):
		ref, err := r.resolveString(s[len(prefixKeyHash):])
		if err != nil {
			return nil, err
		}
		addr, ok := ref.(common.Address)
		if !ok {
			return nil, fmt.Errorf("%s: %q is not an address", s, s[len(prefixKeyHash):])
		}
		return onchainid.KeyHash(addr), nil
	case strings.HasSuffix(strings.ToUpper(s), "_ROLE"):
		return trex.Role(s)
	}
	if addr, err := r.roster.Address(s); err == nil {
		return addr, nil
	}
	return s, nil
}

// format renders a view result or resolved value for comparison and display.
func format(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case *big.Int:
		return x.String()
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case [32]byte:
		return common.Hash(x).Hex()
	case []byte:
		return "0x" + common.Bytes2Hex(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// equalValues compares a view result with a resolved expectation. Numbers
// compare by value, addresses and hex bytes ignore case, anything else must
// render identically.
func equalValues(got, want interface{}) bool {
	switch got.(type) {
	case *big.Int, uint8, uint16, uint32, uint64, int8, int16, int32, int64:
		g, err := contract.ToBig(got)
		if err != nil {
			return false
		}
		w, err := contract.ToBig(want)
		return err == nil && g.Cmp(w) == 0
	case common.Address, common.Hash, [32]byte, []byte:
		return strings.EqualFold(format(got), format(want))
	}
	return format(got) == format(want)
}

// parseChange parses "+500", "-1000" or "0".
func parseChange(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("invalid change %q", s)
	}
	return n, nil
}
