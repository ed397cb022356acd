package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
)

func validate(cfg *Configuration, opts LoadOptions) error {
	if err := validateEntries(cfg, opts.Variant); err != nil {
		return err
	}
	if err := validateProfile(cfg.Profile(opts.TestMode), opts.TestMode); err != nil {
		return err
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %v", cfg.Timezone, err)
	}
	return nil
}

func validateEntries(cfg *Configuration, variant Variant) error {
	if len(cfg.Cfg) == 0 {
		return errors.New("at least one entry is required in cfg")
	}
	for i, entry := range cfg.Cfg {
		switch variant {
		case VariantResolver:
			if strings.TrimSpace(entry.State) == "" {
				return fmt.Errorf("cfg[%d]: state is required", i)
			}
			if len(entry.Districts) == 0 {
				return fmt.Errorf("cfg[%d]: at least one district is required for state %s", i, entry.State)
			}
			for j, d := range entry.Districts {
				if strings.TrimSpace(d.District) == "" {
					return fmt.Errorf("cfg[%d].districts[%d]: district pattern is required", i, j)
				}
				if err := validateRecipients(d.Receivers); err != nil {
					return fmt.Errorf("cfg[%d].districts[%d]: %w", i, j, err)
				}
			}
		case VariantDirect:
			if entry.DistrictID <= 0 {
				return fmt.Errorf("cfg[%d]: district_id needs to be a positive number", i)
			}
			if strings.TrimSpace(entry.DistrictName) == "" {
				return fmt.Errorf("cfg[%d]: district_name is required", i)
			}
			if err := validateRecipients(entry.Recipients); err != nil {
				return fmt.Errorf("cfg[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func validateRecipients(recipients []string) error {
	if len(recipients) == 0 {
		return errors.New("at least one recipient email is required")
	}
	for _, email := range recipients {
		if err := checkmail.ValidateFormat(email); err != nil {
			return fmt.Errorf("recipient %q: %v", email, err)
		}
	}
	return nil
}

func validateProfile(p SMTP, testMode bool) error {
	name := "prod_creds"
	if testMode {
		name = "test_creds"
	}
	switch p.Transport {
	case TransportSMTP:
		if strings.TrimSpace(p.Server) == "" {
			return fmt.Errorf("%s: server is required", name)
		}
		if p.Port <= 0 {
			return fmt.Errorf("%s: port needs to be a valid port number", name)
		}
		// The test profile talks to an unauthenticated relay.
		if !testMode && strings.TrimSpace(p.Password) == "" {
			return fmt.Errorf("%s: password is required", name)
		}
	case TransportSES:
		if strings.TrimSpace(p.Region) == "" {
			return fmt.Errorf("%s: region is required for ses", name)
		}
	default:
		return fmt.Errorf("%s: unknown transport %q", name, p.Transport)
	}
	if err := checkmail.ValidateFormat(p.Username); err != nil {
		return fmt.Errorf("%s: username needs to be the sender email: %v", name, err)
	}
	return nil
}
