package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/HolgerKurtz/meta-ads-insights/internal/model"
	"github.com/HolgerKurtz/meta-ads-insights/internal/query"
	"github.com/HolgerKurtz/meta-ads-insights/internal/redact"
	"github.com/HolgerKurtz/meta-ads-insights/internal/service"
)

// ---------- url ----------

func newURLCmd() *cobra.Command {
	var (
		sel    selectionFlags
		reveal bool
	)

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the Graph API request URL for a selection",
		Long: `Build the insights request URL for a selection without fetching it.
The access token is redacted unless --reveal is given.`,
		Example: `  adinsights url -a 1234567890 --token EAA... -b age,gender
  adinsights url -a 1234567890 -d custom --start 2024-03-01 --end 2024-03-31 --reveal`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runURL(cmd, &sel, reveal)
		},
	}

	sel.register(cmd)
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print the access token unredacted")

	return cmd
}

func runURL(cmd *cobra.Command, sel *selectionFlags, reveal bool) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	spec, err := sel.spec(cmd, p)
	if err != nil {
		return err
	}

	u := query.Preview(p.svc.BaseURL(), spec)
	if u == query.MissingCredentialsMessage {
		return errors.New(u)
	}
	if err := query.Validate(p.svc.Registry(), spec); err != nil {
		warn(cmd, err.Error())
	}
	if spec.IncompleteRange() {
		warn(cmd, service.IncompleteRangeWarning)
	}

	if !reveal {
		u = redact.Token(u, spec.AccessToken)
	}
	fmt.Fprintln(cmd.OutOrStdout(), u)
	return nil
}

// ---------- run ----------

func newRunCmd() *cobra.Command {
	var (
		sel    selectionFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch insights and print them as a typed table",
		Long: `Fetch insights for a selection, flatten the conversion lists into
per-goal columns and print the typed table as aligned text, CSV or JSON.`,
		Example: `  adinsights run -a 1234567890 -d last_7d -b age
  adinsights run -a 1234567890 -g purchase --format csv > purchases.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsights(cmd, &sel, format)
		},
	}

	sel.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "o", "text", "Output format: text, csv or json")

	return cmd
}

func runInsights(cmd *cobra.Command, sel *selectionFlags, format string) error {
	switch format {
	case "text", "csv", "json":
	default:
		return fmt.Errorf("unsupported format %q; use text, csv or json", format)
	}

	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	spec, err := sel.spec(cmd, p)
	if err != nil {
		return err
	}
	if err := query.Validate(p.svc.Registry(), spec); err != nil {
		if errors.Is(err, query.ErrMissingCredentials) {
			return errors.New(query.MissingCredentialsMessage)
		}
		return err
	}

	start := time.Now()
	rep := p.svc.Run(cmd.Context(), spec)
	switch {
	case rep.ValidationMessage != "":
		return errors.New(rep.ValidationMessage)
	case rep.Error != "":
		return fmt.Errorf("fetch failed: %s\n  url: %s", rep.Error, rep.URL)
	}

	if spec.IncompleteRange() {
		warn(cmd, service.IncompleteRangeWarning)
	}
	if rep.Truncated {
		warn(cmd, service.TruncatedWarning)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "csv":
		return rep.Table.WriteCSV(out)
	case "json":
		resp := model.InsightsResponse{
			URL:       rep.URL,
			RowCount:  rep.RowCount,
			Truncated: rep.Truncated,
			Columns:   rep.Table.Describe(),
			Rows:      rep.Table.Records(),
			TookMs:    float64(time.Since(start).Microseconds()) / 1000.0,
		}
		if rep.Truncated {
			resp.Warning = service.TruncatedWarning
		} else if spec.IncompleteRange() {
			resp.Warning = service.IncompleteRangeWarning
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if rep.Table.Empty() {
		fmt.Fprintln(cmd.ErrOrStderr(), "no rows")
		return nil
	}
	if err := rep.Table.WriteText(out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "→ %d rows\n", rep.RowCount)
	return nil
}
