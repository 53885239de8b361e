package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"

	"poolFilter/internal/config"
	"poolFilter/internal/filter"
	"poolFilter/internal/model"
	"poolFilter/internal/pool"
	"poolFilter/internal/storage"
)

// loadPools reads the snapshot at path. records[i] is the source of pools[i].
func loadPools(path string) ([]pool.Pool, []model.PoolRecord, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("input path is required")
	}
	records, err := storage.ReadPoolRecords(path)
	if err != nil {
		return nil, nil, err
	}
	pools := make([]pool.Pool, len(records))
	for i, record := range records {
		p, err := record.ToPool()
		if err != nil {
			return nil, nil, fmt.Errorf("pool %d (%s): %w", i, record.Address, err)
		}
		pools[i] = p
	}
	return pools, records, nil
}

// loadBlacklists merges flag and file addresses into token and pool blacklists.
func loadBlacklists(tokens, pools []string, file string) (filter.Blacklist, filter.Blacklist, error) {
	tokenAddrs, err := config.ParseAddresses(tokens)
	if err != nil {
		return nil, nil, fmt.Errorf("blacklist tokens: %w", err)
	}
	poolAddrs, err := config.ParseAddresses(pools)
	if err != nil {
		return nil, nil, fmt.Errorf("blacklist pools: %w", err)
	}

	if file != "" {
		list, err := config.LoadAddressList(file)
		if err != nil {
			return nil, nil, err
		}
		fileTokens, err := list.TokenAddresses()
		if err != nil {
			return nil, nil, fmt.Errorf("blacklist file tokens: %w", err)
		}
		filePools, err := list.PoolAddresses()
		if err != nil {
			return nil, nil, fmt.Errorf("blacklist file pools: %w", err)
		}
		tokenAddrs = append(tokenAddrs, fileTokens...)
		poolAddrs = append(poolAddrs, filePools...)
	}

	return filter.NewBlacklist(tokenAddrs...), filter.NewBlacklist(poolAddrs...), nil
}

// factoriesOf maps each pool to the checksummed factory its record names, if any.
func factoriesOf(pools []pool.Pool, records []model.PoolRecord) map[common.Address]string {
	out := make(map[common.Address]string, len(records))
	for i, p := range pools {
		if records[i].Factory != "" {
			out[p.Address()] = common.HexToAddress(records[i].Factory).Hex()
		}
	}
	return out
}

func findPool(pools []pool.Pool, address common.Address) pool.Pool {
	for _, p := range pools {
		if p.Address() == address {
			return p
		}
	}
	return nil
}

type jsonlWriter struct {
	file   *os.File
	writer *bufio.Writer
}

func newJSONLWriter(path string) (*jsonlWriter, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &jsonlWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *jsonlWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *jsonlWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
