package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/auditx/auditx-pipeline/interpret"
	"github.com/auditx/auditx-pipeline/rules"
	"github.com/auditx/auditx-pipeline/signals"
)

type Service struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	APIKey  string        `mapstructure:"api_key" yaml:"api_key"`
	Model   string        `mapstructure:"model" yaml:"model,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Configured reports whether the service has an endpoint.
func (s Service) Configured() bool { return s.URL != "" }

type Services struct {
	Transcription Service `mapstructure:"transcription" yaml:"transcription"`
	Markers       Service `mapstructure:"markers" yaml:"markers"`
	Explainer     Service `mapstructure:"explainer" yaml:"explainer"`
}

type Interpret struct {
	Enabled           bool          `mapstructure:"enabled" yaml:"enabled"`
	RateInterval      time.Duration `mapstructure:"rate_interval" yaml:"rate_interval"`
	interpret.Options `mapstructure:",squash" yaml:",inline"`
}

type Root struct {
	Pipeline struct {
		Name      string `mapstructure:"name" yaml:"name"`
		Version   string `mapstructure:"version" yaml:"version"`
		LogLvl    string `mapstructure:"log_level" yaml:"log_level"`
		LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	} `mapstructure:"pipeline" yaml:"pipeline"`
	Services  Services       `mapstructure:"services" yaml:"services"`
	Signals   signals.Params `mapstructure:"signals" yaml:"signals"`
	Rules     rules.Policy   `mapstructure:"rules" yaml:"rules"`
	Interpret Interpret      `mapstructure:"interpret" yaml:"interpret"`
	Paths     struct {
		Outputs string `mapstructure:"outputs" yaml:"outputs"`
		Store   string `mapstructure:"store" yaml:"store"`
	} `mapstructure:"paths" yaml:"paths"`
}

const EnvPrefix = "AUDITX"

func setDefaults(v *viper.Viper) {
	sp := signals.DefaultParams()
	rp := rules.DefaultPolicy()
	ip := interpret.DefaultOptions()

	v.SetDefault("pipeline.name", "auditx")
	v.SetDefault("pipeline.version", "1.2.0")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("pipeline.log_format", "text")

	for _, svc := range []string{"transcription", "markers", "explainer"} {
		v.SetDefault("services."+svc+".url", "")
		v.SetDefault("services."+svc+".api_key", "")
		v.SetDefault("services."+svc+".model", "")
		v.SetDefault("services."+svc+".timeout", 60*time.Second)
	}

	v.SetDefault("signals.warmup", sp.Warmup)
	v.SetDefault("signals.window", sp.Window)
	v.SetDefault("signals.grade_threshold", sp.GradeThreshold)
	v.SetDefault("signals.extreme_threshold", sp.ExtremeThreshold)
	v.SetDefault("signals.low_confidence_threshold", sp.LowConfidence)
	v.SetDefault("signals.min_words_for_baseline", sp.MinWordsForBaseline)

	v.SetDefault("rules.commitment_lookback", rp.CommitmentLookback)
	v.SetDefault("rules.affordability_window", rp.AffordabilityWindow)
	v.SetDefault("rules.pressure_push_window", rp.PressurePushWindow)
	v.SetDefault("rules.pressure_followup_window", rp.PressureFollowupWindow)
	v.SetDefault("rules.consent_variant", rp.ConsentVariant)
	v.SetDefault("rules.consent_response_window", rp.ConsentResponseWindow)

	v.SetDefault("interpret.enabled", true)
	v.SetDefault("interpret.rate_interval", 750*time.Millisecond)
	v.SetDefault("interpret.workers", ip.Workers)
	v.SetDefault("interpret.timeout", ip.Timeout)
	v.SetDefault("interpret.excerpt_window", ip.ExcerptWindow)

	v.SetDefault("paths.outputs", "outputs")
	v.SetDefault("paths.store", "")
}

// Load reads the configuration. With an empty path it looks for
// config/<CONFIG_ENV>/config.yaml (CONFIG_ENV defaults to dev) and falls
// back to defaults when none exists. AUDITX_* variables override any key,
// e.g. AUDITX_SERVICES_EXPLAINER_API_KEY.
func Load(path string) (*Root, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join("config", env))
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &nf) {
			return nil, fmt.Errorf("config read: %w", err)
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// YAML renders cfg with secrets masked.
func (r Root) YAML() ([]byte, error) {
	for _, s := range []*Service{&r.Services.Transcription, &r.Services.Markers, &r.Services.Explainer} {
		if s.APIKey != "" {
			s.APIKey = "****"
		}
	}
	return yaml.Marshal(r)
}
