package assess

import (
	"fmt"

	"cocorels-hq/kernel/pkg/config"
)

// FromConfig builds the configured assessor and, when predicate rules are
// configured, an expression validator. The validator is nil otherwise.
func FromConfig(cfg *config.Config) (Assessor, Validator, error) {
	var assessor Assessor

	switch cfg.Assessor.Type {
	case "", "hash":
		assessor = NewHash()
	case "http":
		predicates := make(map[string]string, len(cfg.SubTraits))
		for code, st := range cfg.SubTraits {
			predicates[code] = st.Predicate
		}
		assessor = NewHTTP(HTTPConfig{
			BaseURL:    cfg.Assessor.HTTP.BaseURL,
			APIKey:     cfg.Assessor.HTTP.APIKey,
			Model:      cfg.Assessor.HTTP.Model,
			Timeout:    cfg.Assessor.HTTP.Timeout,
			MaxRetries: 2,
			Predicates: predicates,
		})
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownAssessor, cfg.Assessor.Type)
	}

	if len(cfg.Assessor.Predicates) == 0 {
		return assessor, nil, nil
	}

	validator, err := NewExprValidator(cfg.Assessor.Predicates)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compile predicate rules: %w", err)
	}
	return assessor, validator, nil
}
