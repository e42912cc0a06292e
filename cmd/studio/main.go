// Command studio mixes, records, synthesizes and analyses voice tracks from
// the terminal.
//
// Usage:
//
//	studio play intro.wav bed.wav --mix mix.yaml --watch
//	studio record --seconds 10 --out take.wav
//	studio synth "Welcome back" --voice Adam --out welcome.wav
//	studio analyze take.wav
//	studio voices
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-studio/internal/config"
	"github.com/cwbudde/algo-studio/internal/logging"
	"github.com/cwbudde/algo-studio/internal/metrics"
)

var (
	// Version is set at build time.
	Version = ""

	configFile string
	envFile    string

	cfg *config.Config
	log = zap.NewNop()
	reg = prometheus.NewRegistry()
	mtr = metrics.New(reg)

	rootCmd = &cobra.Command{
		Use:           "studio",
		Short:         "Voice studio on the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd)
		},
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	_ = log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default ./studio.yaml)")
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file with GEMINI_API_KEY and STUDIO_* settings")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.Bool("log-json", false, "write JSON logs")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	pf.Float64("sample-rate", 48000, "processing sample rate in Hz")

	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.json", pf.Lookup("log-json"))
	_ = viper.BindPFlag("metrics_addr", pf.Lookup("metrics-addr"))
	_ = viper.BindPFlag("audio.sample_rate", pf.Lookup("sample-rate"))

	rootCmd.AddCommand(playCmd, recordCmd, synthCmd, analyzeCmd, voicesCmd)
}

// setup merges the environment, the optional config file and explicit flags,
// in rising precedence.
func setup(cmd *cobra.Command) error {
	var err error
	if cfg, err = config.Load(envFile); err != nil {
		return err
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("studio")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	applyViper(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if log, err = logging.New(cfg.Log.Level, cfg.Log.Console); err != nil {
		return err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("using configuration file", zap.String("path", used))
	}

	if cfg.MetricsAddr != "" {
		serveMetrics(cmd.Context(), cfg.MetricsAddr)
	}
	return nil
}

func applyViper(c *config.Config) {
	if viper.IsSet("log.level") {
		c.Log.Level = viper.GetString("log.level")
	}
	if viper.IsSet("log.json") {
		c.Log.Console = !viper.GetBool("log.json")
	}
	if viper.IsSet("metrics_addr") {
		c.MetricsAddr = viper.GetString("metrics_addr")
	}
	if viper.IsSet("audio.sample_rate") {
		c.Audio.SampleRate = viper.GetFloat64("audio.sample_rate")
	}
	if viper.IsSet("audio.block_size") {
		c.Audio.BlockSize = viper.GetInt("audio.block_size")
	}
	if viper.IsSet("audio.master_gain") {
		c.Audio.MasterGain = viper.GetFloat64("audio.master_gain")
	}
	if viper.IsSet("audio.output_buffer") {
		c.Audio.OutputBuffer = viper.GetDuration("audio.output_buffer")
	}
	if viper.IsSet("capture.format") {
		c.Capture.Format = viper.GetString("capture.format")
	}
	if viper.IsSet("capture.device") {
		c.Capture.Device = viper.GetString("capture.device")
	}
	if viper.IsSet("gemini.speech_model") {
		c.Gemini.SpeechModel = viper.GetString("gemini.speech_model")
	}
	if viper.IsSet("gemini.analysis_model") {
		c.Gemini.AnalysisModel = viper.GetString("gemini.analysis_model")
	}
}

func serveMetrics(ctx context.Context, addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
}
