package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMergesFileAndFlags(t *testing.T) {
	cfgFile := writeFile(t, "config.yaml", `
rpc: http://localhost:8545
reference-asset: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
dex:
  - v2:0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f
  - v3:0x1F98431c8aD98523631AE4a59f267346ea31F984
min-value: "2.5"
strategy: direct
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("concurrency", 8, "")
	flags.String("blacklist-tokens", "", "")
	require.NoError(t, flags.Parse([]string{"--concurrency=3", "--blacklist-tokens=0x01, 0x02,"}))

	cfg, err := Load(cfgFile, flags)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Len(t, cfg.Dexes, 2)
	assert.Equal(t, "2.5", cfg.MinValue)
	assert.Equal(t, StrategyDirect, cfg.Strategy)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, []string{"0x01", "0x02"}, cfg.BlacklistTokens)
	assert.Equal(t, 300, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, "v2", cfg.FiatPoolVariant)
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	cfgFile := writeFile(t, "config.yaml", "strategy: sideways\n")
	_, err := Load(cfgFile, nil)
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("POOLFILTER_BATCH_SIZE", "766")
	cfgFile := writeFile(t, "config.yaml", "rpc: http://node\n")
	cfg, err := Load(cfgFile, nil)
	require.NoError(t, err)
	assert.Equal(t, 766, cfg.BatchSize)
}

func TestLoadBlacklist(t *testing.T) {
	cfgFile := writeFile(t, "config.yaml", "mode: tokens\nin: pools.jsonl\n")
	cfg, err := LoadBlacklist(cfgFile, nil)
	require.NoError(t, err)
	assert.Equal(t, ModeTokens, cfg.Mode)
	assert.Equal(t, "pools.jsonl", cfg.In)

	bad := writeFile(t, "config.yaml", "mode: everything\n")
	_, err = LoadBlacklist(bad, nil)
	assert.Error(t, err)
}

func TestLoadAddressList(t *testing.T) {
	path := writeFile(t, "blacklist.yaml", `
tokens:
  - 0xdAC17F958D2ee523a2206206994597C13D831ec7
pools:
  - 0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc
addresses:
  - 0x0000000000000000000000000000000000000001
`)
	list, err := LoadAddressList(path)
	require.NoError(t, err)

	tokens, err := list.TokenAddresses()
	require.NoError(t, err)
	assert.Equal(t, []common.Address{
		common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"),
		common.HexToAddress("0x0000000000000000000000000000000000000001"),
	}, tokens)

	pools, err := list.PoolAddresses()
	require.NoError(t, err)
	assert.Len(t, pools, 2)

	_, err = ParseAddresses([]string{"0xnothex"})
	assert.Error(t, err)
	_, err = ParseAddress("reference-asset", "")
	assert.Error(t, err)
}
