package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfextract/internal/api"
	"github.com/jackzampolin/pdfextract/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and initialize configuration",
	Long: `Inspect and initialize pdfextract configuration.

Configuration is read from --config, ./config.yaml or ~/.pdfextract/config.yaml.
Every key can be overridden with a PDFEXTRACT_ environment variable.

Examples:
  pdfextract config init          # Write defaults to ~/.pdfextract/config.yaml
  pdfextract config show          # Print the effective configuration
  pdfextract config keys          # List keys, defaults and env overrides`,
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		path := cfgFile
		if path == "" {
			path = h.ConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

// effectiveConfig is the loaded configuration with secrets masked.
type effectiveConfig struct {
	ConfigFile string         `json:"config_file" yaml:"config_file"`
	Config     *config.Config `json:"config" yaml:"config"`
	Valid      bool           `json:"valid" yaml:"valid"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		mgr, err := loadConfig(h)
		if err != nil {
			return err
		}

		cfg := *mgr.Get()
		out := effectiveConfig{ConfigFile: mgr.ConfigFileUsed(), Valid: true}
		if err := cfg.Validate(); err != nil {
			out.Valid = false
			out.Error = err.Error()
		}
		cfg.Provider.APIKey = maskSecret(cfg.Provider.APIKey)
		out.Config = &cfg
		return api.Output(out)
	},
}

// maskSecret hides literal credentials but keeps ${ENV_VAR} references.
func maskSecret(s string) string {
	if s == "" || strings.HasPrefix(s, "${") {
		return s
	}
	if len(s) <= 8 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

type keyInfo struct {
	Key         string `json:"key" yaml:"key"`
	Default     any    `json:"default" yaml:"default"`
	Env         string `json:"env" yaml:"env"`
	Description string `json:"description" yaml:"description"`
}

type keyList []keyInfo

func (l keyList) Text() string {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tDEFAULT\tENV")
	for _, k := range l {
		fmt.Fprintf(tw, "%s\t%v\t%s\n", k.Key, k.Default, k.Env)
	}
	tw.Flush()
	return buf.String()
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys with defaults and environment overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var out keyList
		for _, key := range config.Keys() {
			e := config.GetDefault(key)
			out = append(out, keyInfo{
				Key:         e.Key,
				Default:     e.Value,
				Env:         e.EnvVar(),
				Description: e.Description,
			})
		}
		return api.Output(out)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}
