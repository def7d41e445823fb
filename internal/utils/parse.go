package utils

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// ParseLenientJSON unmarshals content into T, falling back to jsonrepair when
// strict parsing fails. Hand-authored metadata blocks commonly carry unquoted
// keys, single quotes or trailing commas; the repair pass normalizes those
// before one retry. The error from a failed retry includes both the original
// and the repaired text.
func ParseLenientJSON[T any](content string) (T, error) {
	var result T

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	} else {
		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return result, fmt.Errorf("unmarshaling as %T: %w (repair also failed: %v)", result, err, repairErr)
		}
		if retryErr := json.Unmarshal([]byte(repaired), &result); retryErr != nil {
			return result, fmt.Errorf("unmarshaling repaired JSON as %T: %w (original: %s, repaired: %s)",
				result, retryErr, content, repaired)
		}
	}
	return result, nil
}
