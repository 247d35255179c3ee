package contract

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustType(t *testing.T, s string) abi.Type {
	t.Helper()
	typ, err := abi.NewType(s, "", nil)
	require.NoError(t, err)
	return typ
}

func TestCoerceIntegers(t *testing.T) {
	v, err := Coerce(mustType(t, "uint8"), 6)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), v)

	v, err = Coerce(mustType(t, "uint16"), "300")
	require.NoError(t, err)
	assert.Equal(t, uint16(300), v)

	v, err = Coerce(mustType(t, "uint256"), float64(1000))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), v)

	v, err = Coerce(mustType(t, "int64"), -5)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), v)

	v, err = Coerce(mustType(t, "uint256"), "0x10")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(16), v)
}

func TestCoerceIntegerErrors(t *testing.T) {
	_, err := Coerce(mustType(t, "uint8"), 256)
	assert.ErrorContains(t, err, "overflows")

	_, err = Coerce(mustType(t, "uint256"), -1)
	assert.ErrorContains(t, err, "negative")

	_, err = Coerce(mustType(t, "uint256"), 1.5)
	assert.Error(t, err)

	_, err = Coerce(mustType(t, "uint256"), "abc")
	assert.Error(t, err)
}

func TestCoerceSignedBounds(t *testing.T) {
	v, err := Coerce(mustType(t, "int8"), -128)
	require.NoError(t, err)
	assert.Equal(t, int8(-128), v)

	v, err = Coerce(mustType(t, "int8"), 127)
	require.NoError(t, err)
	assert.Equal(t, int8(127), v)

	_, err = Coerce(mustType(t, "int8"), -129)
	assert.ErrorContains(t, err, "overflows")
	_, err = Coerce(mustType(t, "int8"), 128)
	assert.ErrorContains(t, err, "overflows")

	minInt256 := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
	v, err = Coerce(mustType(t, "int256"), minInt256)
	require.NoError(t, err)
	assert.Equal(t, 0, minInt256.Cmp(v.(*big.Int)))

	_, err = Coerce(mustType(t, "int256"), new(big.Int).Sub(minInt256, big.NewInt(1)))
	assert.ErrorContains(t, err, "overflows")
}

func TestCoerceAddressAndBool(t *testing.T) {
	want := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	v, err := Coerce(mustType(t, "address"), "0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	require.NoError(t, err)
	assert.Equal(t, want, v)

	_, err = Coerce(mustType(t, "address"), "0x1234")
	assert.Error(t, err)

	v, err = Coerce(mustType(t, "bool"), "TRUE")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestCoerceBytes(t *testing.T) {
	v, err := Coerce(mustType(t, "bytes"), "0x0102")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, v)

	v, err = Coerce(mustType(t, "bytes"), "Some claim public data.")
	require.NoError(t, err)
	assert.Equal(t, []byte("Some claim public data."), v)

	h := common.HexToHash("0xabcd")
	v, err = Coerce(mustType(t, "bytes32"), h)
	require.NoError(t, err)
	assert.Equal(t, [32]byte(h), v)

	_, err = Coerce(mustType(t, "bytes32"), "0x01")
	assert.ErrorContains(t, err, "want 32 bytes")
}

func TestCoerceSlices(t *testing.T) {
	v, err := Coerce(mustType(t, "uint16[]"), []interface{}{300, "42", 666})
	require.NoError(t, err)
	assert.Equal(t, []uint16{300, 42, 666}, v)

	v, err = Coerce(mustType(t, "uint256[]"), []int{500, 500})
	require.NoError(t, err)
	if diff := cmp.Diff([]*big.Int{big.NewInt(500), big.NewInt(500)}, v, cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })); diff != "" {
		t.Errorf("uint256[] mismatch (-want +got):\n%s", diff)
	}

	v, err = Coerce(mustType(t, "bool[]"), []interface{}{false, "false"})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, v)

	_, err = Coerce(mustType(t, "address[]"), "0x01")
	assert.ErrorContains(t, err, "want a list")
}

func TestCoerceArgsCountMismatch(t *testing.T) {
	args := abi.Arguments{{Name: "a", Type: mustType(t, "uint256")}}
	_, err := CoerceArgs(args, nil)
	assert.ErrorContains(t, err, "argument count mismatch")

	_, err = CoerceArgs(args, []interface{}{"x"})
	assert.ErrorContains(t, err, "argument a (uint256)")
}
