package main

import (
	"fmt"

	"github.com/gtoxlili/echoChart/analyzer"
	"github.com/gtoxlili/echoChart/entity"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// --- Templates Command ---

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List analysis templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine()
		if err != nil {
			return err
		}
		templates := engine.Catalog().All()

		if raw, _ := cmd.Flags().GetString("category"); raw != "" {
			category, err := entity.ParseCategory(raw)
			if err != nil {
				return err
			}
			templates = engine.TemplatesByCategory(category)
		}
		if raw, _ := cmd.Flags().GetString("instrument"); raw != "" {
			it, err := entity.ParseInstrumentType(raw)
			if err != nil {
				return err
			}
			templates = lo.Filter(templates, func(t entity.Template, _ int) bool { return t.Supports(it) })
		}

		for _, t := range templates {
			types := lo.Map(t.InstrumentTypes, func(it entity.InstrumentType, _ int) string { return string(it) })
			fmt.Printf("%-32s %-20s %v\n", t.ID, t.Category, types)
			fmt.Printf("  %s\n", t.Description)
		}
		return nil
	},
}

func init() {
	templatesCmd.Flags().String("category", "", "filter by category")
	templatesCmd.Flags().String("instrument", "", "filter by instrument type")
}

// --- Select Command ---

var (
	selectMarket marketFlags
	selectUser   userFlags
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Show which template would be chosen for a market context",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := mustNonEmpty("symbol", selectMarket.symbol); err != nil {
			return err
		}
		market, err := selectMarket.build(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(false)
		if err != nil {
			return err
		}
		user, err := a.sessions.UpdateProfile(selectUser.userID, selectUser.patch())
		if err != nil {
			return err
		}
		hint, _ := cmd.Flags().GetString("hint")
		t, err := a.engine.SelectOptimalTemplate(market, user, hint)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n  %s\n", t.ID, t.Category, t.Description)
		return nil
	},
}

func init() {
	selectMarket.bind(selectCmd)
	selectUser.bind(selectCmd)
	selectCmd.Flags().String("hint", "", "analysis type hint, e.g. risk or pattern")
}

// --- Render Command ---

var (
	renderMarket marketFlags
	renderUser   userFlags
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the analysis prompt without calling the model",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := mustNonEmpty("symbol", renderMarket.symbol); err != nil {
			return err
		}
		market, err := renderMarket.build(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(false)
		if err != nil {
			return err
		}
		if _, err := a.sessions.UpdateProfile(renderUser.userID, renderUser.patch()); err != nil {
			return err
		}

		templateID, _ := cmd.Flags().GetString("template")
		hint, _ := cmd.Flags().GetString("hint")
		vars, _ := cmd.Flags().GetStringToString("var")
		showSystem, _ := cmd.Flags().GetBool("system")

		p, err := a.analyzer.Prepare(renderUser.userID, analyzer.Request{
			Market:          market,
			TemplateID:      templateID,
			Hint:            hint,
			CustomVariables: parseVars(vars),
		})
		if err != nil {
			return err
		}
		if showSystem {
			fmt.Println(p.SystemPrompt)
			fmt.Println("---")
		}
		fmt.Println(p.Prompt)
		return nil
	},
}

func init() {
	renderMarket.bind(renderCmd)
	renderUser.bind(renderCmd)
	renderCmd.Flags().String("template", "", "template id (skips selection)")
	renderCmd.Flags().String("hint", "", "analysis type hint")
	renderCmd.Flags().StringToString("var", nil, "custom variable, key=value (repeatable)")
	renderCmd.Flags().Bool("system", false, "also print the system prompt")
}
