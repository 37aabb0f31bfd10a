package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"positionScope/internal/config"
	"positionScope/internal/model"
	"positionScope/internal/positions"
	"positionScope/internal/view"
)

func runResolve(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadResolve(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	for _, address := range []string{cfg.TokenA.Address, cfg.TokenB.Address} {
		if !common.IsHexAddress(address) {
			return fmt.Errorf("invalid token address %q", address)
		}
	}

	loaded, err := positions.Offline(positions.OfflineRequest{
		TokenA:      tokenMeta(cfg.TokenA),
		TokenB:      tokenMeta(cfg.TokenB),
		Fee:         cfg.Fee,
		TickLower:   cfg.TickLower,
		TickUpper:   cfg.TickUpper,
		TickCurrent: cfg.TickCurrent,
		Liquidity:   cfg.Liquidity,
	})
	if err != nil {
		return fmt.Errorf("build position: %w", err)
	}

	rendered, err := view.Build(loaded.Input(), cfg.Classification.Table(), view.Options{Invert: cfg.Invert})
	if err != nil {
		return err
	}

	logger.Debug("resolved",
		zap.String("base", rendered.Base.Label()),
		zap.String("quote", rendered.Quote.Label()),
		zap.String("rule", rendered.Rule),
	)

	return writeView(os.Stdout, cfg.Format, rendered)
}

func tokenMeta(token config.TokenConfig) model.TokenMeta {
	return model.TokenMeta{
		Address:  common.HexToAddress(token.Address).Hex(),
		Symbol:   token.Symbol,
		Decimals: token.Decimals,
	}
}

// writeView prints a view as indented JSON or a short human summary.
func writeView(w io.Writer, format string, v model.PositionView) error {
	switch strings.ToLower(format) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "text":
		unit := fmt.Sprintf("%s per %s", v.Quote.Label(), v.Base.Label())
		if v.TokenID != "" {
			fmt.Fprintf(w, "position #%s  %s/%s  fee %s  %s\n", v.TokenID, v.Base.Label(), v.Quote.Label(), v.FeeTier, v.Status)
		} else {
			fmt.Fprintf(w, "%s/%s  fee %s  %s\n", v.Base.Label(), v.Quote.Label(), v.FeeTier, v.Status)
		}
		fmt.Fprintf(w, "min    %s %s\n", v.PriceLower, unit)
		fmt.Fprintf(w, "max    %s %s\n", v.PriceUpper, unit)
		fmt.Fprintf(w, "price  %s %s\n", v.CurrentPrice, unit)
		if v.BaseRatio != nil {
			fmt.Fprintf(w, "ratio  %d%% %s / %d%% %s\n", *v.BaseRatio, v.Base.Label(), 100-*v.BaseRatio, v.Quote.Label())
		}
		fmt.Fprintf(w, "rule   %s\n", v.Rule)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
