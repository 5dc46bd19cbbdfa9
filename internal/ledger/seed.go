package ledger

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/trustform/assessd/internal/model"
)

// LoadSeeds reads a yaml list of credit grants.
func LoadSeeds(path string) ([]*model.CreditSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seeds []*model.CreditSeed

	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("bad credits file %s: %w", path, err)
	}

	return seeds, nil
}

const seedPrefix = "seed: "

// Seed applies the entries of a credits file. An entry is identified by its organization,
// credit type, transaction type and description; the n-th entry with the same identity is
// recorded only while the journal holds fewer than n seeded rows for it, so restarting with
// the same file grants nothing twice and appending an entry grants only the new one.
// Changing the amount of an entry already applied has no effect.
func (l *Ledger) Seed(seeds []*model.CreditSeed) (int, error) {
	n := 0
	seen := make(map[string]int64)

	for _, s := range seeds {
		if s == nil {
			continue
		}

		typ := s.Type
		if typ == "" {
			typ = model.Purchase
		}

		desc := s.Description
		if desc == "" {
			desc = "initial grant"
		}

		desc = seedPrefix + desc

		key := fmt.Sprintf("%s/%s/%s/%s", s.OrganizationID, s.CreditType, typ, desc)
		seen[key]++

		cnt, err := l.dbm.TransactionQuery().
			Organization(s.OrganizationID).
			CreditType(s.CreditType).
			Type(typ).
			Description(desc).
			Count()
		if err != nil {
			return n, err
		}

		if cnt >= seen[key] {
			l.logger.Debug(fmt.Sprintf("skip seed %q for %s/%s, already applied", desc, s.OrganizationID, s.CreditType))
			continue
		}

		if _, err := l.Record(s.OrganizationID, s.CreditType, s.Amount, typ, desc); err != nil {
			return n, fmt.Errorf("seed %s/%s: %w", s.OrganizationID, s.CreditType, err)
		}

		n++
	}

	return n, nil
}

// SeedFile loads path and applies it with Seed.
func (l *Ledger) SeedFile(path string) (int, error) {
	seeds, err := LoadSeeds(path)
	if err != nil {
		return 0, err
	}

	return l.Seed(seeds)
}
