package directory

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadCatalog reads the drug catalog from a JSON file. Entries without a
// name are dropped.
func LoadCatalog(path string) ([]CatalogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var entries []CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog file %s: %w", path, err)
	}

	valid := make([]CatalogEntry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		valid = append(valid, e)
	}
	return valid, nil
}

// LoadPharmacies reads the on-duty pharmacy listings from a JSON file.
// Entries missing a name or a city are dropped.
func LoadPharmacies(path string) ([]Pharmacy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pharmacies file: %w", err)
	}

	var entries []Pharmacy
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode pharmacies file %s: %w", path, err)
	}

	valid := make([]Pharmacy, 0, len(entries))
	for _, p := range entries {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.City) == "" {
			continue
		}
		valid = append(valid, p)
	}
	return valid, nil
}
