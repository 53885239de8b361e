package dex

import "github.com/ethereum/go-ethereum/accounts/abi"

const erc20ABIJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"}
]`

var erc20ABI = &lazyABI{json: erc20ABIJSON}

// ERC20ABI returns the parsed ERC20 decimals ABI.
func ERC20ABI() (abi.ABI, error) { return erc20ABI.get() }
