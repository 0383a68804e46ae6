// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package points

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/rate-my-teacher/models"
)

// Tiers maps a badge type to its thresholds. Level n is awarded when the
// metric reaches Tiers[type][n-1].
type Tiers map[string][]int64

// DefaultTiers is used when no badge file is configured.
func DefaultTiers() Tiers {
	return Tiers{
		models.BadgeVoter:  {1, 10, 50, 100},
		models.BadgeStreak: {3, 7, 30},
		models.BadgePoints: {25, 100, 500},
	}
}

// badgeOrder fixes evaluation order so results are deterministic.
var badgeOrder = []string{models.BadgeVoter, models.BadgeStreak, models.BadgePoints}

// LoadTiers reads a YAML file of the form
//
//	voter: [1, 10, 50, 100]
//	streak: [3, 7, 30]
//	points: [25, 100, 500]
//
// Types missing from the file keep their defaults.
func LoadTiers(path string) (Tiers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read badge config: %w", err)
	}

	var file Tiers
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse badge config: %w", err)
	}

	tiers := DefaultTiers()
	for badgeType, levels := range file {
		if _, ok := tiers[badgeType]; !ok {
			return nil, fmt.Errorf("unknown badge type %q", badgeType)
		}
		tiers[badgeType] = levels
	}
	return tiers, tiers.Validate()
}

// Validate requires positive, strictly increasing thresholds.
func (t Tiers) Validate() error {
	for badgeType, levels := range t {
		var prev int64
		for i, v := range levels {
			if v <= prev {
				return fmt.Errorf("badge %s level %d: threshold %d must be positive and above the previous level", badgeType, i+1, v)
			}
			prev = v
		}
	}
	return nil
}
