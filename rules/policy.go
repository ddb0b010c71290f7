package rules

import "fmt"

// Affordability hesitation windows.
const (
	WindowCentered = "centered" // [i-1, i+1]
	WindowForward  = "forward"  // [i, i+2]
)

// Consent rule variants.
const (
	ConsentLocal = "local" // prompt followed by no commitment and a data-quality issue
	ConsentCall  = "call"  // commitment with no prompt anywhere in the call
)

// Policy fixes the window sizes and the canonical variant of each rule for
// one deployment.
type Policy struct {
	CommitmentLookback     int    `json:"commitment_lookback" yaml:"commitment_lookback" mapstructure:"commitment_lookback"`
	AffordabilityWindow    string `json:"affordability_window" yaml:"affordability_window" mapstructure:"affordability_window"`
	PressurePushWindow     int    `json:"pressure_push_window" yaml:"pressure_push_window" mapstructure:"pressure_push_window"`
	PressureFollowupWindow int    `json:"pressure_followup_window" yaml:"pressure_followup_window" mapstructure:"pressure_followup_window"`
	ConsentVariant         string `json:"consent_variant" yaml:"consent_variant" mapstructure:"consent_variant"`
	ConsentResponseWindow  int    `json:"consent_response_window" yaml:"consent_response_window" mapstructure:"consent_response_window"`
}

func DefaultPolicy() Policy {
	return Policy{
		CommitmentLookback:     3,
		AffordabilityWindow:    WindowCentered,
		PressurePushWindow:     2,
		PressureFollowupWindow: 2,
		ConsentVariant:         ConsentLocal,
		ConsentResponseWindow:  3,
	}
}

// Validate rejects unknown variants and non-positive windows.
func (p Policy) Validate() error {
	switch p.AffordabilityWindow {
	case WindowCentered, WindowForward:
	default:
		return fmt.Errorf("rules: unknown affordability window %q", p.AffordabilityWindow)
	}
	switch p.ConsentVariant {
	case ConsentLocal, ConsentCall:
	default:
		return fmt.Errorf("rules: unknown consent variant %q", p.ConsentVariant)
	}
	for name, v := range map[string]int{
		"commitment_lookback":      p.CommitmentLookback,
		"pressure_push_window":     p.PressurePushWindow,
		"pressure_followup_window": p.PressureFollowupWindow,
		"consent_response_window":  p.ConsentResponseWindow,
	} {
		if v <= 0 {
			return fmt.Errorf("rules: %s must be positive, got %d", name, v)
		}
	}
	return nil
}

func (p Policy) String() string {
	return fmt.Sprintf("affordability=%s,consent=%s", p.AffordabilityWindow, p.ConsentVariant)
}
