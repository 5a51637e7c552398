package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/myvaultapp/myvault/internal/flagx"
)

// parseJson overlays values from the JSON config file named by -c/-config,
// if any. Absent keys keep their current values.
func parseJson(config *Config) error {
	fileName := flagx.JsonConfigFlags()

	if fileName == "" {
		return nil
	}

	data, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parsing config file %s: %w", fileName, err)
	}

	return nil
}
