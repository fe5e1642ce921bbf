package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/akave-ai/udplog/internal/client"
	"github.com/akave-ai/udplog/internal/config"
)

var (
	configPath string
	serverIP   string
	serverPort int
	localLog   string
	verbose    bool
	requestID  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "udplog-client",
	Short:        "Send test records to a udplog server",
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", config.DefaultConfigFile, "config file with serverIP and serverPort")
	pf.StringVar(&serverIP, "server", "", "server IPv4 address (overrides config)")
	pf.IntVar(&serverPort, "port", 0, "server UDP port (overrides config)")
	pf.StringVar(&localLog, "local-log", client.DefaultLocalLog, "file receiving a copy of every sent record")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log every attempt")

	sendCmd.Flags().StringVar(&requestID, "request-id", "", "request ID (random when empty)")

	rootCmd.AddCommand(sendCmd, autoCmd, manualCmd)
}

// newClient resolves the server address from flags, falling back to the config file.
func newClient() (*client.Client, error) {
	ip, port := serverIP, serverPort
	if ip == "" || port == 0 {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if ip == "" {
			ip = cfg.Server.IP
		}
		if port == 0 {
			port = cfg.Server.Port
		}
	}

	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	return client.New(client.Config{ServerIP: ip, ServerPort: port, LocalLog: localLog}, l)
}

var sendCmd = &cobra.Command{
	Use:   "send LEVEL MESSAGE",
	Short: "Send one record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		id := requestID
		if id == "" {
			id = client.NewRequestID()
		}
		if err := c.Send(cmd.Context(), args[0], args[1], id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Successfully sent log: %s\n", client.Entry(args[0], args[1], id))
		return nil
	},
}

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Send one record per level, then a burst that trips the rate limit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		return ignoreCanceled(client.RunAuto(cmd.Context(), c, client.DefaultAutoPlan(), cmd.OutOrStdout()))
	},
}

var manualCmd = &cobra.Command{
	Use:   "manual",
	Short: "Read records interactively from stdin; 'exit' quits",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		return ignoreCanceled(client.RunManual(cmd.Context(), c, cmd.InOrStdin(), cmd.OutOrStdout()))
	},
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
