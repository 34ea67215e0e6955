// Command inputnode runs one simulated input node: it emits data messages
// for a single flow and accepts retarget and ping commands over UDP.
package main

import (
	"context"
	"fmt"
	inputnode "github.com/Chaphasilor/decentralized-automation-networks-virtual-input-node"
	"github.com/spf13/cobra"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

var (
	configPath string
	verbose    bool

	area                string
	flowName            string
	targetIP            string
	targetPort          uint16
	outboundPortData    uint16
	outboundPortAcks    uint16
	inboundPort         uint16
	interval            uint64
	inboundPollInterval uint64
)

var rootCmd = &cobra.Command{
	Use:   "inputnode",
	Short: "Simulated UDP input node for a decentralized automation network",
	Long: `inputnode periodically emits data messages for one flow over UDP and ` +
		`listens for control commands that redirect the stream to another ` +
		`gateway or measure a node's clock.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file, replaces all other flags")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.Flags().StringVarP(&area, "area", "a", "", "execution area this node runs in")
	rootCmd.Flags().StringVarP(&flowName, "flow", "f", "", "name of the flow this node feeds")
	rootCmd.Flags().StringVarP(&targetIP, "target-ip", "t", "", "IP of the initial gateway for data messages")
	rootCmd.Flags().Uint16VarP(&targetPort, "target-port", "p", 0, "port of the initial gateway for data messages")
	rootCmd.Flags().Uint16VarP(&outboundPortData, "outbound-port-data", "o", 0, "local port for sending data, 0 picks an ephemeral port")
	rootCmd.Flags().Uint16Var(&outboundPortAcks, "outbound-port-acks", 0, "local port for sending acks, 0 disables acks")
	rootCmd.Flags().Uint16VarP(&inboundPort, "inbound-port", "i", 0, "local port for receiving control commands")
	rootCmd.Flags().Uint64Var(&interval, "interval", inputnode.DefaultInterval, "time between data messages in milliseconds")
	rootCmd.Flags().Uint64Var(&inboundPollInterval, "inbound-poll-interval", inputnode.DefaultInboundPollInterval, "control socket poll interval in milliseconds")
}

func run(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	inputnode.InitLogger(verbose)

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	node, err := inputnode.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return node.Run(ctx)
}

// resolveConfig builds the node config from either the config file or the
// individual flags. A config file is authoritative so that the same file
// can drive a node regardless of how it is launched.
func resolveConfig() (inputnode.Config, error) {
	if configPath != "" {
		cfg, err := inputnode.LoadConfig(configPath)
		if err != nil {
			return inputnode.Config{}, err
		}
		slog.Info("config loaded", slog.String("path", configPath))
		return cfg, nil
	}

	if area == "" {
		return inputnode.Config{}, fmt.Errorf("--area is required unless a config file is given")
	}
	if flowName == "" {
		return inputnode.Config{}, fmt.Errorf("--flow is required unless a config file is given")
	}
	if targetIP == "" {
		return inputnode.Config{}, fmt.Errorf("--target-ip is required unless a config file is given")
	}
	if targetPort == 0 {
		return inputnode.Config{}, fmt.Errorf("--target-port is required unless a config file is given")
	}
	if inboundPort == 0 {
		return inputnode.Config{}, fmt.Errorf("--inbound-port is required unless a config file is given")
	}

	return inputnode.Config{
		Area:                area,
		FlowName:            flowName,
		TargetIP:            targetIP,
		TargetPort:          targetPort,
		OutboundPortData:    outboundPortData,
		OutboundPortAcks:    outboundPortAcks,
		InboundPort:         inboundPort,
		Interval:            interval,
		InboundPollInterval: inboundPollInterval,
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
