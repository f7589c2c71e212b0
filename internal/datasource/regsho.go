package datasource

import (
	"context"
	"encoding/json"
	"os"
	"strings"
)

// RegSHOSet is the set of symbols on the Reg-SHO threshold list. Membership
// is the only query the screener needs.
type RegSHOSet map[string]struct{}

// Contains reports membership, case-insensitively.
func (s RegSHOSet) Contains(symbol string) bool {
	_, ok := s[strings.ToUpper(symbol)]
	return ok
}

func newRegSHOSet(tickers []string) RegSHOSet {
	set := make(RegSHOSet, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// LoadRegSHOFile reads a JSON array of tickers from disk. A missing or
// malformed file yields an empty set and the error; callers typically log
// and continue, since a missing threshold list only disables one exclusion
// filter.
func LoadRegSHOFile(path string) (RegSHOSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RegSHOSet{}, err
	}
	var tickers []string
	if err := json.Unmarshal(raw, &tickers); err != nil {
		return RegSHOSet{}, err
	}
	return newRegSHOSet(tickers), nil
}

// FetchRegSHO loads the same JSON array from a URL.
func FetchRegSHO(ctx context.Context, url string) (RegSHOSet, error) {
	var tickers []string
	if err := getJSON(ctx, HTTPClient, url, &tickers); err != nil {
		return RegSHOSet{}, err
	}
	return newRegSHOSet(tickers), nil
}
