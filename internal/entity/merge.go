// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package entity

import "encoding/json"

// merge shallow-merges fields over rec by JSON round trip: the record
// is flattened to a map, the partial fields overwrite matching keys,
// and the result is decoded back. Unknown keys are dropped by the
// decode, so a stray field name cannot corrupt the record.
func merge[T any](rec T, fields map[string]any) (T, error) {
	var out T

	raw, err := json.Marshal(rec)
	if err != nil {
		return out, err
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return out, err
	}
	for k, v := range fields {
		m[k] = v
	}

	merged, err := json.Marshal(m)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(merged, &out); err != nil {
		return out, err
	}
	return out, nil
}
