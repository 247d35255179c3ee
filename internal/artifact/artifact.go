package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Artifact is a compiled contract: ABI plus creation bytecode.
type Artifact struct {
	Name     string
	Path     string
	ABI      abi.ABI
	RawABI   json.RawMessage
	Bytecode []byte         // empty for interfaces and abstract contracts
	Address  common.Address // set only by hardhat-deploy deployment files
}

// Deployable reports whether the artifact carries creation bytecode.
func (a *Artifact) Deployable() bool { return len(a.Bytecode) > 0 }

// Load reads an artifact file. The contract name defaults to the file name
// when the artifact does not carry one.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read artifact file: %w", err)
	}
	a, err := Parse(strings.TrimSuffix(filepath.Base(path), ".json"), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.Path = path
	return a, nil
}

// Parse decodes one of:
//   - Hardhat:        {"contractName":..., "abi":[...], "bytecode":"0x..."}
//   - Foundry:        {"abi":[...], "bytecode":{"object":"0x..."}}
//   - hardhat-deploy: {"address":"0x...", "abi":[...], "bytecode":"0x..."}
func Parse(name string, data []byte) (*Artifact, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("artifact file is empty")
	}
	if data[0] == '[' {
		return nil, fmt.Errorf("file is a raw ABI array, not an artifact: bytecode is required")
	}

	var raw struct {
		ContractName string          `json:"contractName"`
		ABI          json.RawMessage `json:"abi"`
		Bytecode     json.RawMessage `json:"bytecode"`
		Address      string          `json:"address"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid artifact JSON: %w", err)
	}
	if len(raw.ABI) < 2 || raw.ABI[0] != '[' {
		return nil, fmt.Errorf("artifact has no \"abi\" array")
	}

	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("parsing artifact ABI: %w", err)
	}

	a := &Artifact{Name: name, ABI: parsed, RawABI: raw.ABI}
	if raw.ContractName != "" {
		a.Name = raw.ContractName
	}
	if common.IsHexAddress(raw.Address) {
		a.Address = common.HexToAddress(raw.Address)
	}

	if len(raw.Bytecode) > 0 && string(raw.Bytecode) != "null" {
		bcHex, err := extractBytecodeHex(raw.Bytecode)
		if err != nil {
			return nil, fmt.Errorf("extracting bytecode from artifact: %w", err)
		}
		if bcHex != "" && bcHex != "0x" {
			if strings.Contains(bcHex, "__") {
				return nil, fmt.Errorf("bytecode has unlinked library placeholders")
			}
			if !strings.HasPrefix(bcHex, "0x") {
				bcHex = "0x" + bcHex
			}
			a.Bytecode, err = hexutil.Decode(bcHex)
			if err != nil {
				return nil, fmt.Errorf("invalid bytecode hex in artifact: %w", err)
			}
		}
	}
	return a, nil
}

// extractBytecodeHex handles the two common artifact formats:
//   - Hardhat:  "bytecode": "0x608060..."          (JSON string)
//   - Foundry:  "bytecode": {"object": "0x608060..."} (JSON object)
func extractBytecodeHex(raw json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str), nil
	}

	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Object), nil
	}

	return "", fmt.Errorf("bytecode field is neither a hex string nor a {\"object\":\"0x...\"} object")
}
