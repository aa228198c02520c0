package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wikiboard/wikimod/moderation"
	"github.com/wikiboard/wikimod/moderation/censor"
	"github.com/wikiboard/wikimod/moderation/models"

	"github.com/spf13/viper"
)

type policyFile struct {
	Escalation struct {
		Threshold   int    `mapstructure:"threshold"`
		BanDuration string `mapstructure:"ban_duration"`
		SystemActor uint64 `mapstructure:"system_actor"`
	} `mapstructure:"escalation"`
	Counter struct {
		TTL      time.Duration `mapstructure:"ttl"`
		Capacity int           `mapstructure:"capacity"`
	} `mapstructure:"counter"`
	Retention struct {
		ModLog   time.Duration `mapstructure:"modlog"`
		Warnings time.Duration `mapstructure:"warnings"`
	} `mapstructure:"retention"`
	Censor struct {
		Severity    string `mapstructure:"severity"`
		Dictionary  string `mapstructure:"dictionary"`
		Whitelist   string `mapstructure:"whitelist"`
		Replacement string `mapstructure:"replacement"`
	} `mapstructure:"censor"`
}

type policy struct {
	Engine *moderation.Config

	// extra word lists, on top of the built-in ones
	DictionaryPath string
	WhitelistPath  string
}

// Reads the moderation policy. An empty path yields the defaults, still overridable with MODCTL_* env vars (eg, MODCTL_ESCALATION_THRESHOLD).
func loadPolicy(configPath string) (*policy, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MODCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		slog.Debug("using policy file", "path", v.ConfigFileUsed())
	}

	var pf policyFile
	if err := v.Unmarshal(&pf); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	dur, err := models.ParseBanDuration(pf.Escalation.BanDuration)
	if err != nil {
		return nil, fmt.Errorf("escalation.ban_duration: %w", err)
	}
	sev, err := models.ParseSeverity(pf.Censor.Severity)
	if err != nil {
		return nil, fmt.Errorf("censor.severity: %w", err)
	}

	cfg := moderation.DefaultConfig()
	cfg.EscalationThreshold = pf.Escalation.Threshold
	cfg.AutoBanDuration = dur
	cfg.SystemActorID = pf.Escalation.SystemActor
	cfg.CounterTTL = pf.Counter.TTL
	cfg.CounterCapacity = pf.Counter.Capacity
	cfg.ModLogRetention = pf.Retention.ModLog
	cfg.WarningRetention = pf.Retention.Warnings
	cfg.AutoWarningSeverity = sev
	cfg.Replacement = pf.Censor.Replacement

	return &policy{
		Engine:         cfg,
		DictionaryPath: pf.Censor.Dictionary,
		WhitelistPath:  pf.Censor.Whitelist,
	}, nil
}

func setDefaults(v *viper.Viper) {
	d := moderation.DefaultConfig()

	v.SetDefault("escalation.threshold", d.EscalationThreshold)
	v.SetDefault("escalation.ban_duration", string(d.AutoBanDuration))
	v.SetDefault("escalation.system_actor", d.SystemActorID)

	v.SetDefault("counter.ttl", d.CounterTTL)
	v.SetDefault("counter.capacity", d.CounterCapacity)

	v.SetDefault("retention.modlog", d.ModLogRetention)
	v.SetDefault("retention.warnings", d.WarningRetention)

	v.SetDefault("censor.severity", string(d.AutoWarningSeverity))
	v.SetDefault("censor.dictionary", "")
	v.SetDefault("censor.whitelist", "")
	v.SetDefault("censor.replacement", d.Replacement)
}

// Builds the matcher: the built-in dictionary, extended by any configured word lists.
func (p *policy) Matcher() (*censor.Matcher, error) {
	if p.DictionaryPath == "" && p.WhitelistPath == "" {
		return censor.DefaultMatcher()
	}

	terms := censor.DefaultTerms()
	whitelist := censor.DefaultWhitelist()
	if p.DictionaryPath != "" {
		extra, err := censor.LoadWordList(p.DictionaryPath)
		if err != nil {
			return nil, err
		}
		terms = append(terms, extra...)
	}
	if p.WhitelistPath != "" {
		extra, err := censor.LoadWordList(p.WhitelistPath)
		if err != nil {
			return nil, err
		}
		whitelist = append(whitelist, extra...)
	}
	return censor.NewMatcher(terms, whitelist)
}
