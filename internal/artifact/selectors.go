package artifact

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/crypto/sha3"
)

// Function is one ABI function with its canonical signature and selector.
type Function struct {
	Name       string
	Signature  string // e.g. "transfer(address,uint256)"
	Selector   string // 0x-prefixed 4-byte selector
	Mutability string
}

// ReadOnly reports whether calling the function cannot change state.
func (f Function) ReadOnly() bool {
	return f.Mutability == "view" || f.Mutability == "pure"
}

// Functions lists the artifact's functions sorted by signature.
func (a *Artifact) Functions() []Function {
	out := make([]Function, 0, len(a.ABI.Methods))
	for _, m := range a.ABI.Methods {
		sig := signature(m)
		out = append(out, Function{
			Name:       m.RawName,
			Signature:  sig,
			Selector:   Selector(sig),
			Mutability: m.StateMutability,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature < out[j].Signature })
	return out
}

// Selector computes the 4-byte selector of a canonical signature.
func Selector(sig string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

func signature(m abi.Method) string {
	types := make([]string, len(m.Inputs))
	for i, in := range m.Inputs {
		types[i] = in.Type.String()
	}
	return m.RawName + "(" + strings.Join(types, ",") + ")"
}
