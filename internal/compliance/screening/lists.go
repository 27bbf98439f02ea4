package screening

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadLists reads watchlists from a JSON file containing an array of List
// objects.
func LoadLists(path string) ([]List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist file %s: %w", path, err)
	}
	var lists []List
	if err := json.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("parse watchlist file %s: %w", path, err)
	}
	return lists, nil
}
