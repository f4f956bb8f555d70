package config

import (
	"encoding/json"
	"hash/fnv"
)

// hashBytes returns a stable 64-bit hash of b. Empty input returns 0.
func hashBytes(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}

func hashConfig(cfg *Config) uint64 {
	if cfg == nil {
		return 0
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return 0
	}
	return hashBytes(b)
}

// SameTimetable reports whether two configs describe the same timetable.
func SameTimetable(a, b *Config) bool {
	if a == nil || b == nil {
		return a == b
	}
	ha, _ := json.Marshal(a.Timetable)
	hb, _ := json.Marshal(b.Timetable)
	return hashBytes(ha) == hashBytes(hb)
}
