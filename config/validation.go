package config

import "fmt"

// ValidationError describes one problem found in a Config. Level is
// either "error" (Load fails) or "warning" (Load succeeds, the caller may
// still want to surface it).
type ValidationError struct {
	Field   string
	Message string
	Level   string
}

func (e ValidationError) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.Level, e.Field, e.Message)
}

// ValidateConfiguration checks cfg for internally inconsistent or
// out-of-range settings. It never looks at reachability of an external
// service (DHT bootstrap nodes, the IPFS daemon, Postgres) — those fail
// naturally the first time a backend is used.
func ValidateConfiguration(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.DHT != nil && cfg.DHT.MaxValueSize < 0 {
		errs = append(errs, ValidationError{"dht.max_value_size", "must not be negative", "error"})
	}

	if cfg.IPFS != nil {
		if cfg.IPFS.MaxValueSize < 0 {
			errs = append(errs, ValidationError{"ipfs.max_value_size", "must not be negative", "error"})
		}
		if cfg.IPFS.DefaultLifetime < 0 {
			errs = append(errs, ValidationError{"ipfs.default_lifetime", "must not be negative", "error"})
		}
	}

	if cfg.Hybrid != nil && cfg.Hybrid.Threshold < 0 {
		errs = append(errs, ValidationError{"hybrid.threshold", "must not be negative", "error"})
	}
	if cfg.DHT != nil && cfg.IPFS != nil && cfg.Hybrid != nil &&
		cfg.Hybrid.Threshold > cfg.DHT.MaxValueSize {
		errs = append(errs, ValidationError{
			"hybrid.threshold",
			"exceeds dht.max_value_size; payloads between the two sizes go to the DHT and are rejected as too large",
			"warning",
		})
	}

	if cfg.Server != nil {
		if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
			errs = append(errs, ValidationError{"server.port", "must be a valid TCP port", "error"})
		}
		if cfg.Server.MaxTTL < 0 {
			errs = append(errs, ValidationError{"server.max_ttl", "must not be negative", "error"})
		}
	}

	if cfg.Logging != nil {
		switch cfg.Logging.Level {
		case "", "debug", "info", "warn", "error":
		default:
			errs = append(errs, ValidationError{"logging.level", "unrecognized level: " + cfg.Logging.Level, "warning"})
		}
	}

	return errs
}
