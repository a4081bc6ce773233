package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CanonicalHash computes the supply-chain fingerprint of a fetched tool
// catalog: SHA-256 over the sorted-key, whitespace-free JSON serialization
// of the tool list. The hash is invariant under map key order in the input
// schemas and changes iff any tool's name, description, or schema content
// changes.
//
// The hash deliberately covers the raw fetched list, not a normalized
// projection — it is a tamper tripwire, not a semantic diff.
func CanonicalHash(tools []CatalogTool) (string, error) {
	list := make([]any, 0, len(tools))
	for _, t := range tools {
		// encoding/json emits map keys in sorted order with no incidental
		// whitespace, which is exactly the canonical form we need. Nested
		// schema maps sort the same way.
		list = append(list, map[string]any{
			"name":         t.Name,
			"description":  t.Description,
			"input_schema": t.InputSchema,
		})
	}

	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("canonicalize tool list: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
