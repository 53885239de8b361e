package model

import "time"

// FilteredPool is a pool kept by a filter run, with the values it was judged by.
type FilteredPool struct {
	RunID          string `json:"run_id"`
	Address        string `json:"address"`
	Variant        string `json:"variant"`
	Factory        string `json:"factory,omitempty"`
	Token0         string `json:"token0"`
	Token1         string `json:"token1"`
	ReferenceValue string `json:"reference_value,omitempty"`
	FiatValue      string `json:"fiat_value,omitempty"`
}

// FilterRun summarizes one filter invocation.
type FilterRun struct {
	ID             string    `json:"id"`
	ChainID        uint64    `json:"chain_id"`
	BlockNumber    uint64    `json:"block_number"`
	Strategy       string    `json:"strategy"`
	ReferenceAsset string    `json:"reference_asset"`
	Stage          string    `json:"stage"`
	Threshold      string    `json:"threshold"`
	InputPools     int       `json:"input_pools"`
	KeptPools      int       `json:"kept_pools"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}
