package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gtoxlili/echoChart/analyzer"
	"github.com/gtoxlili/echoChart/collector"
	"github.com/gtoxlili/echoChart/entity"
	"github.com/spf13/cobra"
)

var (
	analyzeMarket marketFlags
	analyzeUser   userFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a chart screenshot",
	Long: `Analyze a chart screenshot with the vision model.
The market context comes from flags, or from a live Binance snapshot with --live.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := mustNonEmpty("symbol", analyzeMarket.symbol); err != nil {
			return err
		}
		imagePath, _ := cmd.Flags().GetString("image")
		if err := mustNonEmpty("image", imagePath); err != nil {
			return err
		}
		image, err := readImage(imagePath)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var market entity.MarketContext
		if live, _ := cmd.Flags().GetBool("live"); live {
			market, err = liveMarket(ctx, cmd)
		} else {
			market, err = analyzeMarket.build(cmd)
		}
		if err != nil {
			return err
		}

		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.Error("failed to close", "error", err)
			}
		}()
		if _, err := a.sessions.UpdateProfile(analyzeUser.userID, analyzeUser.patch()); err != nil {
			return err
		}

		templateID, _ := cmd.Flags().GetString("template")
		hint, _ := cmd.Flags().GetString("hint")
		prompt, _ := cmd.Flags().GetString("prompt")
		vars, _ := cmd.Flags().GetStringToString("var")

		rec, err := a.analyzer.Analyze(ctx, analyzeUser.userID, analyzer.Request{
			ImageData:       image,
			Market:          market,
			TemplateID:      templateID,
			Hint:            hint,
			CustomPrompt:    prompt,
			CustomVariables: parseVars(vars),
		})
		if err != nil {
			if analyzer.IsCatalogMiss(err) {
				return fmt.Errorf("%w (try `echochart templates`)", err)
			}
			return err
		}
		fmt.Printf("%s via %s [%s]\n", rec.Symbol, rec.Model, rec.AnalysisType)
		rec.Result.Print()
		return nil
	},
}

func init() {
	analyzeMarket.bind(analyzeCmd)
	analyzeUser.bind(analyzeCmd)
	analyzeCmd.Flags().String("image", "", "chart screenshot (png/jpeg/webp)")
	analyzeCmd.Flags().String("template", "", "template id (skips selection)")
	analyzeCmd.Flags().String("hint", "", "analysis type hint")
	analyzeCmd.Flags().String("prompt", "", "custom prompt sent verbatim")
	analyzeCmd.Flags().StringToString("var", nil, "custom variable, key=value (repeatable)")
	analyzeCmd.Flags().Bool("live", false, "build the market context from a live Binance futures snapshot")
}

// readImage 读取图片并编码为 data URL
func readImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	mime := http.DetectContentType(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func liveMarket(ctx context.Context, cmd *cobra.Command) (entity.MarketContext, error) {
	cc := cfg.Collector
	source := collector.NewBinanceSource(cc.BinanceAPIKey, cc.BinanceSecretKey, cc.KlineInterval, cc.KlineLimit)
	snap, err := source.Snapshot(ctx, analyzeMarket.symbol)
	if err != nil {
		return entity.MarketContext{}, err
	}

	opts := collector.DefaultContextOptions()
	opts.VolatileChangePct = cc.VolatileChange
	opts.VolatileStdDevPct = cc.VolatileStdDev
	if cmd.Flags().Changed("timeframe") {
		opts.Timeframe = analyzeMarket.timeframe
	}
	if cmd.Flags().Changed("instrument") {
		it, err := entity.ParseInstrumentType(analyzeMarket.instrument)
		if err != nil {
			return entity.MarketContext{}, err
		}
		opts.InstrumentType = it
	}
	market := collector.BuildMarketContext(snap, opts)
	log.Info("live market context built",
		"symbol", market.Symbol,
		"price", market.CurrentPrice,
		"condition", market.MarketCondition,
	)
	return market, market.Validate()
}
