package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/pfrederiksen/eventscrape/internal/handler"
	"github.com/spf13/cobra"
)

func newHandlersCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "handlers",
		Short: "List site registrations and their strategy chains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(root, false, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			registry, err := handler.LoadRegistry(cfg.Registry.Path)
			if err != nil {
				return fmt.Errorf("loading registrations: %w", err)
			}
			return writeHandlers(cmd.OutOrStdout(), registry)
		},
	}
}

func writeHandlers(w io.Writer, registry *handler.Registry) error {
	for _, reg := range append(registry.All(), handler.Generic()) {
		if _, err := fmt.Fprintf(w, "%s\n", reg.Name); err != nil {
			return err
		}
		fmt.Fprintf(w, "  match:      %s\n", describeMatch(reg.Match))
		fmt.Fprintf(w, "  strategies: %s\n", strings.Join(reg.Strategies, " → "))
		if reg.Locale != "" || reg.Timezone != "" {
			fmt.Fprintf(w, "  dates:      %s %s\n", orDash(reg.Locale), orDash(reg.Timezone))
		}
	}
	return nil
}

func describeMatch(m handler.Match) string {
	var parts []string
	if len(m.Domains) > 0 {
		parts = append(parts, "domains="+strings.Join(m.Domains, ","))
	}
	if m.Platform != "" {
		parts = append(parts, "platform="+m.Platform)
	}
	if len(parts) == 0 {
		return "(fallback)"
	}
	return strings.Join(parts, " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
