package config

import (
	"fmt"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.LoginRateLimit <= 0 {
		return fmt.Errorf("auth.login_rate_limit must be > 0 (got %d)", c.Auth.LoginRateLimit)
	}

	if err := c.Unlock.validate(); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}

	if err := c.Compliance.validate(); err != nil {
		return fmt.Errorf("compliance: %w", err)
	}

	return nil
}

func (u *UnlockConfig) validate() error {
	if u.DefaultDurationMinutes <= 0 {
		return fmt.Errorf("default_duration_minutes must be > 0 (got %d)", u.DefaultDurationMinutes)
	}
	if u.MaxDurationMinutes < u.DefaultDurationMinutes {
		return fmt.Errorf("max_duration_minutes must be >= default_duration_minutes (got %d < %d)",
			u.MaxDurationMinutes, u.DefaultDurationMinutes)
	}
	if u.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be > 0 (got %v)", u.SweepInterval)
	}
	return nil
}

func (c *ComplianceConfig) validate() error {
	if c.WarningBandPoints < 0 || c.WarningBandPoints > 50 {
		return fmt.Errorf("warning_band_points must be in [0, 50] (got %v)", c.WarningBandPoints)
	}
	if c.AmberFloorPercent <= 0 || c.AmberFloorPercent >= 100 {
		return fmt.Errorf("amber_floor_percent must be in (0, 100) (got %v)", c.AmberFloorPercent)
	}
	if c.SnapshotCacheSize <= 0 {
		return fmt.Errorf("snapshot_cache_size must be > 0 (got %d)", c.SnapshotCacheSize)
	}
	return nil
}
