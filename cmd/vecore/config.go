// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/voltfi/vecore/ve"
)

// Config is the node configuration file. Roles map capabilities to the
// addresses allowed to exercise them; an absent capability is denied to
// everyone.
type Config struct {
	// TokenAddress namespaces the reward token ledger in state.
	TokenAddress string `yaml:"tokenAddress"`

	Roles map[string][]string `yaml:"roles"`

	// Funding carries verifier accrual figures reported out of band. A
	// standalone node has no verifier network feeding it, so the figures
	// are supplied by the operator per settled epoch.
	Funding []FundingEntry `yaml:"funding"`
}

type FundingEntry struct {
	Epoch    uint64 `yaml:"epoch"`
	Pool     string `yaml:"pool"`
	Verifier string `yaml:"verifier"`
	Amount   string `yaml:"amount"`
}

func defaultConfig() *Config {
	return &Config{
		TokenAddress: ve.BytesToAddress([]byte("vecore.token")).String(),
	}
}

func loadConfig(path string) (*Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

// roleAuthorizer grants capabilities per the Roles section.
type roleAuthorizer struct {
	grants map[string]map[ve.Address]bool
}

func newRoleAuthorizer(roles map[string][]string) (*roleAuthorizer, error) {
	grants := make(map[string]map[ve.Address]bool, len(roles))
	for capability, addrs := range roles {
		set := make(map[ve.Address]bool, len(addrs))
		for _, raw := range addrs {
			addr, err := ve.ParseAddress(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "roles.%s", capability)
			}
			set[*addr] = true
		}
		grants[capability] = set
	}
	return &roleAuthorizer{grants}, nil
}

func (a *roleAuthorizer) Authorize(caller ve.Address, capability string) bool {
	return a.grants[capability][caller]
}

// configFunding serves accrual lookups from the Funding section.
type configFunding struct {
	accruals map[fundingKey]*big.Int
}

type fundingKey struct {
	epoch    uint64
	pool     ve.Address
	verifier ve.Address
}

func newConfigFunding(entries []FundingEntry) (*configFunding, error) {
	accruals := make(map[fundingKey]*big.Int, len(entries))
	for i, e := range entries {
		pool, err := ve.ParseAddress(e.Pool)
		if err != nil {
			return nil, errors.Wrapf(err, "funding[%d].pool", i)
		}
		verifier, err := ve.ParseAddress(e.Verifier)
		if err != nil {
			return nil, errors.Wrapf(err, "funding[%d].verifier", i)
		}
		amount, ok := new(big.Int).SetString(e.Amount, 10)
		if !ok {
			return nil, errors.Errorf("funding[%d].amount: not a decimal number", i)
		}
		accruals[fundingKey{e.Epoch, *pool, *verifier}] = amount
	}
	return &configFunding{accruals}, nil
}

func (f *configFunding) AccruedOf(epoch uint64, pool, verifier ve.Address) (*big.Int, error) {
	if amount, ok := f.accruals[fundingKey{epoch, pool, verifier}]; ok {
		return new(big.Int).Set(amount), nil
	}
	return new(big.Int), nil
}
