package fixtures

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
)

// fixturesDir returns the absolute path to the fixtures directory.
func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// ArtifactsDir is a Hardhat-style artifacts tree with every suite contract.
// The bytecode is a tag, not runnable EVM code: only the fake backend deploys it.
func ArtifactsDir() string {
	return filepath.Join(fixturesDir(), "artifacts")
}

type fixtureArtifact struct {
	name string
	abi  abi.ABI
	code []byte
}

// loadArtifacts parses every fixture artifact that carries bytecode.
func loadArtifacts() ([]fixtureArtifact, error) {
	var out []fixtureArtifact
	err := filepath.WalkDir(ArtifactsDir(), func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || strings.HasSuffix(path, ".dbg.json") {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var raw struct {
			ContractName string          `json:"contractName"`
			ABI          json.RawMessage `json:"abi"`
			Bytecode     string          `json:"bytecode"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if raw.Bytecode == "" || raw.Bytecode == "0x" {
			return nil
		}
		parsed, err := abi.JSON(strings.NewReader(string(raw.ABI)))
		if err != nil {
			return err
		}
		code, err := hexutil.Decode(raw.Bytecode)
		if err != nil {
			return err
		}
		out = append(out, fixtureArtifact{name: raw.ContractName, abi: parsed, code: code})
		return nil
	})
	return out, err
}

// ABI returns the parsed ABI of a fixture artifact.
func ABI(t *testing.T, name string) abi.ABI {
	t.Helper()
	arts, err := loadArtifacts()
	require.NoError(t, err)
	for _, a := range arts {
		if a.name == name {
			return a.abi
		}
	}
	require.Failf(t, "unknown fixture artifact", "%s", name)
	return abi.ABI{}
}

// WriteFile writes content under dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
