package glossary

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads the glossary store at path. A missing file is not an error and
// yields an empty glossary.
func Load(path string) ([]Term, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read glossary %q: %w", path, err)
	}

	var terms []Term
	if err := json.Unmarshal(content, &terms); err != nil {
		return nil, fmt.Errorf("parse glossary %q: %w", path, err)
	}
	return Normalize(terms), nil
}

// Save writes terms to path, creating parent directories as needed. Terms
// are normalized before writing so the stored file never contains empty or
// padded entries.
func Save(path string, terms []Term) error {
	normalized := Normalize(terms)
	if normalized == nil {
		normalized = []Term{}
	}

	payload, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return fmt.Errorf("encode glossary: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create glossary dir: %w", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o600); err != nil {
		return fmt.Errorf("write glossary %q: %w", path, err)
	}
	return nil
}
