package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// AddressList is the YAML blacklist file. Addresses apply to both tokens and pools.
//
//	tokens:
//	  - 0x...
//	pools:
//	  - 0x...
//	addresses:
//	  - 0x...
type AddressList struct {
	Tokens    []string `yaml:"tokens"`
	Pools     []string `yaml:"pools"`
	Addresses []string `yaml:"addresses"`
}

// LoadAddressList reads an AddressList from path.
func LoadAddressList(path string) (AddressList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AddressList{}, fmt.Errorf("read address list: %w", err)
	}
	var list AddressList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return AddressList{}, fmt.Errorf("parse address list %s: %w", path, err)
	}
	return list, nil
}

// TokenAddresses returns tokens plus the shared addresses.
func (l AddressList) TokenAddresses() ([]common.Address, error) {
	return ParseAddresses(append(append([]string(nil), l.Tokens...), l.Addresses...))
}

// PoolAddresses returns pools plus the shared addresses.
func (l AddressList) PoolAddresses() ([]common.Address, error) {
	return ParseAddresses(append(append([]string(nil), l.Pools...), l.Addresses...))
}

// ParseAddresses converts string addresses into common.Address.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

// ParseAddress converts a single required address.
func ParseAddress(name, input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return common.Address{}, fmt.Errorf("%s is required", name)
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid %s: %s", name, input)
	}
	return common.HexToAddress(input), nil
}
