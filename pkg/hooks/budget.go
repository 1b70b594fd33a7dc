package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grovetools/fleet/errors"
)

const budgetKey = "api_budget_monthly"

// ReadBudget returns the user-set monthly API budget from the reserved
// config document. ok is false when the document is missing, unparsable,
// or carries no budget; the caller decides the default.
func (s *Store) ReadBudget() (amount float64, ok bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, ReservedConfigName))
	if err != nil {
		return 0, false
	}
	var config map[string]interface{}
	if err := json.Unmarshal(data, &config); err != nil {
		return 0, false
	}
	amount, ok = config[budgetKey].(float64)
	return amount, ok
}

// SetBudget persists the monthly API budget into the reserved config
// document via the atomic write path, preserving any other keys. An
// unparsable existing document is replaced rather than blocking the
// write.
func (s *Store) SetBudget(amount float64) error {
	if amount < 0 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("budget cannot be negative: %.2f", amount))
	}

	config := map[string]interface{}{}
	if data, err := os.ReadFile(filepath.Join(s.dir, ReservedConfigName)); err == nil {
		if err := json.Unmarshal(data, &config); err != nil || config == nil {
			config = map[string]interface{}{}
		}
	}
	config[budgetKey] = amount

	payload, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStatusWriteFailed, "failed to encode budget config")
	}
	if err := atomicWriteJSON(filepath.Join(s.dir, ReservedConfigName), payload); err != nil {
		return errors.Wrap(err, errors.ErrCodeStatusWriteFailed, "failed to write budget config")
	}
	return nil
}
