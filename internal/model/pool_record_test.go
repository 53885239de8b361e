package model

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"poolFilter/internal/pool"
)

func TestPoolRecordToConstantProduct(t *testing.T) {
	line := `{"address":"0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc","variant":"v2",` +
		`"token0":"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48","token1":"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",` +
		`"decimals0":6,"decimals1":18,"reserve0":"20000000000","reserve1":"0x8ac7230489e80000"}`

	var record PoolRecord
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	p, err := record.ToPool()
	if err != nil {
		t.Fatalf("to pool failed: %v", err)
	}
	if p.Variant() != pool.ConstantProduct {
		t.Fatalf("variant mismatch: %s", p.Variant())
	}
	r0, r1 := p.Reserves()
	if r0.Dec() != "20000000000" || r1.Dec() != "10000000000000000000" {
		t.Fatalf("reserves mismatch: %s %s", r0.Dec(), r1.Dec())
	}
	price, err := p.PriceOf(common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"))
	if err != nil {
		t.Fatalf("price failed: %v", err)
	}
	if price != 2000 {
		t.Fatalf("price mismatch: %v", price)
	}
}

func TestPoolRecordToConcentrated(t *testing.T) {
	record := PoolRecord{
		Address:      "0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640",
		Variant:      "v3",
		Token0:       "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Token1:       "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		Decimals0:    6,
		Decimals1:    18,
		Fee:          500,
		SqrtPriceX96: "79228162514264337593543950336",
		Liquidity:    "1000000",
	}

	p, err := record.ToPool()
	if err != nil {
		t.Fatalf("to pool failed: %v", err)
	}
	if p.Variant() != pool.ConcentratedLiquidity {
		t.Fatalf("variant mismatch: %s", p.Variant())
	}
}

func TestPoolRecordInvalid(t *testing.T) {
	cases := []PoolRecord{
		{Address: "0x1", Variant: "v2", Token0: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Token1: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"},
		{Address: "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc", Variant: "v4"},
		{Address: "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc", Variant: "v2", Token0: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Token1: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Reserve0: "-5"},
		{Address: "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc", Variant: "v2", Factory: "uniswap", Token0: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Token1: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"},
	}
	for i, record := range cases {
		if _, err := record.ToPool(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
