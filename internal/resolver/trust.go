package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/fernwell/nodeatlas/internal/storage"
)

// TrustEntry is one curated name -> identifier binding. Conflicts lists
// other names or libraries known to collide with this one; they are
// surfaced as warnings but never lower trust-tier confidence.
type TrustEntry struct {
	GUID      string   `json:"guid"`
	Conflicts []string `json:"conflicts,omitempty"`
	FullName  string   `json:"full_name,omitempty"`
	Inputs    []string `json:"inputs,omitempty"`
	Outputs   []string `json:"outputs,omitempty"`
}

// LoadTrustList reads the curated trust list. A missing file yields an
// empty list: running without curation is normal, just less confident.
func LoadTrustList(store storage.Provider, path string) (map[string]TrustEntry, error) {
	data, err := store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]TrustEntry{}, nil
		}
		return nil, fmt.Errorf("resolver: load trust list: %w", err)
	}

	var trust map[string]TrustEntry
	if err := json.Unmarshal(data, &trust); err != nil {
		return nil, fmt.Errorf("resolver: decode trust list %s: %w", path, err)
	}
	return trust, nil
}
