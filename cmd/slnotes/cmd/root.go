// Package cmd implements the slnotes command line interface.
package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"slnotes/client"
)

var jsonOut bool

var rootCmd = &cobra.Command{
	Use:   "slnotes",
	Short: "Browse and publish study notes",
	Long: `slnotes is a client for the study notes platform.

Examples:
  slnotes register
  slnotes login student@example.lk
  slnotes subjects list --exam-type AL
  slnotes notes list --page 2
  slnotes search "organic chemistry"`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("api-url", "", "API base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	_ = viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
}

func initConfig() {
	if dir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(dir, "slnotes"))
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("SLNOTES")
	viper.AutomaticEnv()
	viper.SetDefault("api_url", client.DefaultBaseURL)

	_ = viper.ReadInConfig()
}

func newClient() *client.Client {
	return client.New(client.WithBaseURL(viper.GetString("api_url")))
}

// newSession builds a client plus a bootstrapped session backed by the
// token file in the user's config directory.
func newSession(cmd *cobra.Command) (*client.Client, *client.Session, error) {
	c := newClient()
	store, err := client.DefaultTokenStore()
	if err != nil {
		return nil, nil, fmt.Errorf("locate token store: %w", err)
	}
	session := client.NewSession(c, store)
	if err := session.Bootstrap(cmd.Context()); err != nil {
		return nil, nil, fmt.Errorf("read token store: %w", err)
	}
	return c, session, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func printError(err error) {
	if apiErr, ok := client.APIError(err); ok {
		fmt.Fprintf(os.Stderr, "Error: %s\n", apiErr.Detail)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// confirm asks a y/N question on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
