// deepscreen — deep-value stock screener for US nano and micro caps
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/seenimoa/deepscreen/api"
	"github.com/seenimoa/deepscreen/internal/config"
	"github.com/seenimoa/deepscreen/internal/datasource"
	"github.com/seenimoa/deepscreen/internal/llm"
	"github.com/seenimoa/deepscreen/internal/screener/alerts"
	"github.com/seenimoa/deepscreen/internal/screener/assemble"
	"github.com/seenimoa/deepscreen/internal/screener/score"
	"github.com/seenimoa/deepscreen/internal/session"
	"github.com/seenimoa/deepscreen/internal/universe"
	"github.com/seenimoa/deepscreen/pkg/models"
	"github.com/seenimoa/deepscreen/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "deepscreen",
	Short: "deepscreen — deep-value screener for US nano and micro caps",
	Long: `deepscreen screens US-listed nano, micro and small caps for
deep-value setups: net-nets, net cash positions, owner-earnings yield,
insider buying and share count reduction. Results are scored, ranked
and served over a REST API with WebSocket alert streaming.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		setupLogging(cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(benchmarkCmd)
	rootCmd.AddCommand(thesisCmd)
	rootCmd.AddCommand(statusCmd)
}

func setupLogging(cfg *config.Config) {
	log.DefaultLogger.Level = log.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.Format != "json" {
		log.DefaultLogger.Writer = &log.ConsoleWriter{
			ColorOutput:    true,
			EndWithMessage: true,
		}
	}
}

// buildEngine wires the data source, record builder, alert engine and
// universe controller from the loaded configuration.
func buildEngine(cfg *config.Config, extra ...universe.Option) (*universe.Controller, *alerts.Engine, *session.Memory) {
	fmp := datasource.NewFMPClient(cfg.FMP.APIKey,
		datasource.WithCacheTTL(time.Duration(cfg.FMP.CacheTTLSec)*time.Second),
		datasource.WithRateLimit(cfg.FMP.RequestsPerSec, time.Second),
	)

	regSHO, err := datasource.LoadRegSHOFile(cfg.Data.RegShoFile)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Data.RegShoFile).Msg("Reg SHO list unavailable, flag disabled")
	}

	var opts []universe.Option
	var catalysts assemble.CatalystSource
	if len(cfg.Data.CatalystFeeds) > 0 {
		detector := datasource.NewCatalystDetector(cfg.Data.CatalystFeeds)
		catalysts = detector
		opts = append(opts, universe.WithNewsSource(detector))
	}
	opts = append(opts, extra...)

	builder := assemble.New(regSHO, catalysts, score.NewJitterBaseline(time.Now().UnixNano()))
	sess := session.NewMemory()
	engine := alerts.NewEngine(sess)
	ctrl := universe.New(fmp, builder, engine, cfg.Screener.UniverseSize, opts...)
	return ctrl, engine, sess
}

// thesisWriter returns nil when no Gemini key is configured.
func thesisWriter(cfg *config.Config) *llm.ThesisWriter {
	if cfg.LLM.GeminiKey == "" {
		return nil
	}
	provider, err := llm.NewGeminiProvider(cfg.LLM.GeminiKey, llm.WithGeminiModel(cfg.LLM.Model))
	if err != nil {
		log.Warn().Err(err).Msg("thesis generation disabled")
		return nil
	}
	return llm.NewThesisWriter(provider, &llm.ChatOptions{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("deepscreen %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		// The hub does not exist until the server does, so alert
		// delivery is bound through a late closure.
		var srv *api.Server
		ctrl, engine, sess := buildEngine(cfg, universe.WithNotify(func(raised []models.Alert) {
			if srv != nil && len(raised) > 0 {
				srv.Hub().Broadcast(api.WSMessage{Type: "alerts", Data: raised})
			}
		}))
		srv = api.NewServer(cfg, ctrl, engine, sess, thesisWriter(cfg))

		// Populate the universe in the background so the API is
		// responsive immediately.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			if err := ctrl.Refresh(ctx); err != nil {
				log.Error().Err(err).Msg("initial universe refresh failed")
			}
			refreshBenchmark(ctx, ctrl)
		}()

		if spec := cfg.Screener.RefreshSchedule; spec != "" {
			if err := ctrl.StartSchedule(spec); err != nil {
				return fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
			}
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		log.Info().Str("addr", addr).Msg("starting deepscreen API server")
		return srv.ListenAndServe(addr)
	},
}

func refreshBenchmark(ctx context.Context, ctrl *universe.Controller) {
	symbols, err := datasource.LoadSP500File(cfg.Data.SP500File)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Data.SP500File).Msg("S&P 500 list unavailable, scraping")
		symbols, err = datasource.ScrapeSP500(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("benchmark unavailable")
			return
		}
	}
	if err := ctrl.RefreshBenchmark(ctx, symbols); err != nil {
		log.Warn().Err(err).Msg("benchmark refresh failed")
	}
}

// --- Screen Command ---

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Run a one-shot screen and print the ranked universe",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, _, _ := buildEngine(cfg)

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
		defer cancel()

		fmt.Printf("🔍 Screening %d symbols...\n", cfg.Screener.UniverseSize)
		if err := ctrl.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}

		stocks := ctrl.Snapshot()
		sort.SliceStable(stocks, func(i, j int) bool {
			return stocks[i].SimpleScore > stocks[j].SimpleScore
		})

		limit, _ := cmd.Flags().GetInt("top")
		if limit > 0 && limit < len(stocks) {
			stocks = stocks[:limit]
		}

		fmt.Printf("%-8s %-28s %10s %8s %7s %7s  %s\n",
			"SYMBOL", "NAME", "MCAP", "P/NCAV", "OE-YLD", "SCORE", "FLAGS")
		for _, s := range stocks {
			name := s.Name
			if len(name) > 28 {
				name = name[:25] + "..."
			}
			mcap := "n/a"
			if s.MarketCap != nil {
				mcap = utils.FormatUSDCompact(*s.MarketCap)
			}
			oeYld := "n/a"
			if s.OwnerEarningsYield != nil {
				oeYld = utils.FormatPct(*s.OwnerEarningsYield)
			}
			flags := ""
			if s.HasCatalyst {
				flags += "📰"
			}
			if s.IsRegSho {
				flags += "⚠️"
			}
			fmt.Printf("%-8s %-28s %10s %8s %7s %7d  %s\n",
				s.Symbol, name, mcap,
				utils.FormatPtr(s.PncaRatio, "%.2f"), oeYld, s.SimpleScore, flags)
		}
		return nil
	},
}

func init() {
	screenCmd.Flags().Int("top", 0, "print only the top N by score")
}

// --- Benchmark Command ---

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Compare the screened universe against S&P 500 averages",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, _, _ := buildEngine(cfg)

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
		defer cancel()

		if err := ctrl.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}
		refreshBenchmark(ctx, ctrl)

		cmp := ctrl.Compare()
		fmt.Printf("%-28s %12s %12s\n", "METRIC", "SCREEN", "S&P 500")
		row := func(name string, a, b *float64) {
			fmt.Printf("%-28s %12s %12s\n", name,
				utils.FormatPtr(a, "%.3f"), utils.FormatPtr(b, "%.3f"))
		}
		row("Owner earnings yield", cmp.Screen.OwnerEarningsYield, cmp.Reference.OwnerEarningsYield)
		row("Revenue CAGR 5y", cmp.Screen.RevenueCAGR5yr, cmp.Reference.RevenueCAGR5yr)
		row("Avg tangible ROE 5y", cmp.Screen.AvgRotce5yr, cmp.Reference.AvgRotce5yr)
		row("Net cash / market cap", cmp.Screen.NetCashToMarketCap, cmp.Reference.NetCashToMarketCap)
		row("Rank momentum 63d", cmp.Screen.RankMomentum63, cmp.Reference.RankMomentum63)
		fmt.Printf("%-28s %12d %12d\n", "Sample size", cmp.Screen.SampleSize, cmp.Reference.SampleSize)
		return nil
	},
}

// --- Thesis Command ---

var thesisCmd = &cobra.Command{
	Use:   "thesis [symbol]",
	Short: "Generate an investment thesis for a screened stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		writer := thesisWriter(cfg)
		if writer == nil {
			return fmt.Errorf("no Gemini API key configured (set DEEPSCREEN_LLM_GEMINI_KEY)")
		}

		ctrl, _, _ := buildEngine(cfg)
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
		defer cancel()
		if err := ctrl.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}

		symbol := strings.ToUpper(args[0])
		for _, s := range ctrl.Snapshot() {
			if s.Symbol == symbol {
				text, err := writer.Generate(ctx, s)
				if err != nil {
					return err
				}
				fmt.Printf("📝 %s — %s\n\n%s\n", s.Symbol, s.Name, text)
				return nil
			}
		}
		return fmt.Errorf("%s is not in the screened universe", symbol)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  deepscreen — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Universe size:   %d\n", cfg.Screener.UniverseSize)
		fmt.Printf("    Refresh:         %s\n", orManual(cfg.Screener.RefreshSchedule))
		fmt.Printf("    Thesis model:    %s\n", cfg.LLM.Model)
		fmt.Printf("    API Server:      %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-18s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func orManual(spec string) string {
	if spec == "" {
		return "manual"
	}
	return spec
}
