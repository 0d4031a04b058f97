package cli

import (
	"fmt"
	"strconv"
	"strings"

	"scout-sync-go/pkg/config"
	"scout-sync-go/pkg/utils"

	"github.com/pelletier/go-toml/v2"
)

// ShowConfig displays the current configuration
func (a *App) ShowConfig() {
	data, err := toml.Marshal(a.cfg)
	if err != nil {
		fmt.Fprintf(a.out, "Error marshaling config: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, string(data))
}

// SetConfig sets a configuration value and saves the file.
// Format: section.key=value (e.g., "cli.poll_interval_ms=1000")
func (a *App) SetConfig(setStr string) error {
	if err := applySetting(a.cfg, setStr); err != nil {
		return err
	}
	return config.Save(a.cfg)
}

func applySetting(cfg *config.Config, setStr string) error {
	parts := strings.SplitN(setStr, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid format: expected 'section.key=value'")
	}

	keyPath := strings.Split(parts[0], ".")
	value := parts[1]

	if len(keyPath) != 2 {
		return fmt.Errorf("invalid key format: expected 'section.key'")
	}

	section := keyPath[0]
	key := keyPath[1]

	switch section {
	case "database":
		switch key {
		case "url":
			cfg.Database.URL = value
		default:
			return fmt.Errorf("unknown database key: %s", key)
		}
	case "api":
		switch key {
		case "host":
			cfg.API.Host = value
		case "port":
			return setInt(&cfg.API.Port, key, value, 1)
		case "admin_key":
			cfg.API.AdminKey = value
		default:
			return fmt.Errorf("unknown api key: %s", key)
		}
	case "cli":
		switch key {
		case "base_url":
			return setURL(&cfg.CLI.BaseURL, value)
		case "api_key":
			cfg.CLI.APIKey = value
		case "poll_interval_ms":
			return setInt(&cfg.CLI.PollIntervalMS, key, value, 1)
		case "auto_start_polling":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid auto_start_polling value: %s", value)
			}
			cfg.CLI.AutoStartPolling = &b
		default:
			return fmt.Errorf("unknown cli key: %s", key)
		}
	case "redis":
		switch key {
		case "addr":
			cfg.Redis.Addr = value
		case "password":
			cfg.Redis.Password = value
		case "db":
			return setInt(&cfg.Redis.DB, key, value, 0)
		case "status_ttl_minutes":
			return setInt(&cfg.Redis.StatusTTLMinutes, key, value, 1)
		default:
			return fmt.Errorf("unknown redis key: %s", key)
		}
	case "scraper":
		switch key {
		case "transfermarkt_url":
			return setURL(&cfg.Scraper.TransfermarktURL, value)
		case "request_delay_ms":
			return setInt(&cfg.Scraper.RequestDelayMS, key, value, 0)
		case "timeout_seconds":
			return setInt(&cfg.Scraper.TimeoutSeconds, key, value, 1)
		default:
			return fmt.Errorf("unknown scraper key: %s", key)
		}
	case "sheets":
		switch key {
		case "csv_url":
			return setURL(&cfg.Sheets.CSVURL, value)
		case "export_path":
			cfg.Sheets.ExportPath = value
		default:
			return fmt.Errorf("unknown sheets key: %s", key)
		}
	default:
		return fmt.Errorf("unknown section: %s", section)
	}

	return nil
}

func setURL(dst *string, value string) error {
	u, err := utils.ValidateURL(value)
	if err != nil {
		return err
	}
	*dst = u
	return nil
}

func setInt(dst *int, key, value string, min int) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < min {
		return fmt.Errorf("invalid %s value: %s", key, value)
	}
	*dst = n
	return nil
}
