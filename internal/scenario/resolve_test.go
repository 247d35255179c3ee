package scenario

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValues(t *testing.T) {
	addr := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, "<nil>"},
		{big.NewInt(-42), "-42"},
		{addr, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"},
		{common.Hash{1}, "0x0100000000000000000000000000000000000000000000000000000000000000"},
		{[32]byte{0xff}, "0xff00000000000000000000000000000000000000000000000000000000000000"},
		{[]byte{0xde, 0xad}, "0xdead"},
		{true, "true"},
		{false, "false"},
		{"ERC-3643", "ERC-3643"},
		{uint8(18), "18"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, format(tt.in))
	}
}

func TestEqualValues(t *testing.T) {
	addr := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	assert.True(t, equalValues(addr, common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")))
	assert.True(t, equalValues(addr, "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"))
	assert.True(t, equalValues([]byte{0xab}, "0xAB"))
	assert.True(t, equalValues(big.NewInt(7), 7))
	assert.True(t, equalValues(uint8(0), 0))
	assert.True(t, equalValues(big.NewInt(7), "7"))
	assert.False(t, equalValues(big.NewInt(7), "8"))
	assert.False(t, equalValues(big.NewInt(7), "seven"))
	assert.False(t, equalValues(true, false))
	assert.True(t, equalValues(true, true))
}

func TestEqualValuesStringsAreExact(t *testing.T) {
	assert.True(t, equalValues("TREX", "TREX"))
	assert.False(t, equalValues("TREX", "trex"))
	assert.False(t, equalValues("ERC-3643", "erc-3643"))
}

func TestEqualValuesYAMLFloats(t *testing.T) {
	want := new(big.Int).Exp(big.NewInt(10), big.NewInt(21), nil)
	assert.True(t, equalValues(want, 1e21))
	assert.False(t, equalValues(want, 2e21))
	assert.False(t, equalValues(big.NewInt(1), 1.5))
}

func TestParseChange(t *testing.T) {
	for in, want := range map[string]int64{"+500": 500, "-1000": -1000, "0": 0, " 3 ": 3} {
		got, err := parseChange(in)
		require.NoError(t, err, in)
		assert.Zero(t, got.Cmp(big.NewInt(want)), in)
	}
	_, err := parseChange("lots")
	assert.ErrorContains(t, err, `invalid change "lots"`)
}
