package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"go.aimuz.me/gamelingo/config"
	"go.aimuz.me/gamelingo/langdetect"
	"go.aimuz.me/gamelingo/ocr"
	"go.aimuz.me/gamelingo/screenshot"
	"go.aimuz.me/gamelingo/translator"
)

// ─────────────────────────────────────────────────────────────────────────────
// Translation
// ─────────────────────────────────────────────────────────────────────────────

func newTranslateCommand(c *cli) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "translate TEXT...",
		Short: "Translate text with the configured translator",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if from == "" {
				from = cfg.SourceLanguage
			}
			if to == "" {
				to = cfg.TargetLanguage
			}

			provider, closeProvider, err := newProvider(cfg)
			if err != nil {
				return err
			}
			defer closeProvider()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			out, err := provider.Translate(ctx, strings.Join(args, " "), from, to)
			if err != nil {
				return fmt.Errorf("translate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "source language (default from config)")
	cmd.Flags().StringVar(&to, "to", "", "target language (default from config)")
	return cmd
}

func newDetectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect TEXT...",
		Short: "Detect the language of text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, name := langdetect.Detect(strings.Join(args, " "))
			if code == langdetect.Unknown {
				return errors.New("language not recognized")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", code, name)
			return nil
		},
	}
}

func newLanguagesCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and installed OCR data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			installed := map[string]bool{}
			langs, err := ocr.InstalledLanguages(cmd.Context(), cfg.TesseractPath)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "tesseract: %v\n", err)
			}
			for _, l := range langs {
				installed[l] = true
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tLANGUAGE\tOCR DATA")
			for _, code := range translator.LanguageCodes() {
				ocrLang := ocr.TesseractLanguage(code)
				mark := "missing"
				if installed[ocrLang] {
					mark = ocrLang
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", code, translator.Languages[code], mark)
			}
			return w.Flush()
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Screen
// ─────────────────────────────────────────────────────────────────────────────

func newMonitorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "monitors",
		Short: "List displays usable as region monitors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MONITOR\tX\tY\tWIDTH\tHEIGHT")
			for _, m := range screenshot.Monitors() {
				b := m.Bounds
				fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", m.Index, b.Min.X, b.Min.Y, b.Dx(), b.Dy())
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "monitor 0 means absolute virtual-screen coordinates")
			return nil
		},
	}
}

func newRegionsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "Manage capture regions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List capture regions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			printRegions(cmd, cfg.Regions)
			return nil
		},
	}

	var r config.Region
	var replace bool
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a capture region",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if replace {
				if err := cfg.SetRegion(r); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cfg.Regions[0].ID)
				return nil
			}
			id, err := cfg.AddRegion(r)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	add.Flags().StringVar(&r.Name, "name", "", "region label")
	add.Flags().IntVar(&r.X, "x", 0, "left edge")
	add.Flags().IntVar(&r.Y, "y", 0, "top edge")
	add.Flags().IntVar(&r.Width, "width", 800, "width in pixels")
	add.Flags().IntVar(&r.Height, "height", 200, "height in pixels")
	add.Flags().IntVar(&r.Monitor, "monitor", 0, "display index, 0 for absolute coordinates")
	add.Flags().BoolVar(&replace, "replace", false, "replace all existing regions")

	remove := &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a capture region by ID or unique ID prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			region, ok := cfg.FindRegion(args[0])
			if !ok {
				return fmt.Errorf("no unique region matches %q", args[0])
			}
			return cfg.RemoveRegion(region.ID)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Reset to a single default region",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return cfg.ClearRegions()
		},
	}

	cmd.AddCommand(list, add, remove, clearCmd)
	return cmd
}

func printRegions(cmd *cobra.Command, regions []config.Region) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tNAME\tMONITOR\tX\tY\tWIDTH\tHEIGHT")
	for _, r := range regions {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.ID[:min(8, len(r.ID))], r.Name, r.Monitor, r.X, r.Y, r.Width, r.Height)
	}
}
