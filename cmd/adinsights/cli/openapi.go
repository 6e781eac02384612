package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HolgerKurtz/meta-ads-insights/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		outputFile string
		serverURL  string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI specification of the JSON API",
		Long: `Generate the OpenAPI 3.1 document served by 'adinsights serve'. Request
enumerations and row column types follow the loaded schema registry.`,
		Example: `  adinsights openapi                 # print to stdout
  adinsights openapi -o openapi.json # write to file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenAPI(cmd, outputFile, serverURL)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write spec to file instead of stdout")
	cmd.Flags().StringVar(&serverURL, "server-url", "", "Server URL in the document (default from server.host and server.port)")

	return cmd
}

func runOpenAPI(cmd *cobra.Command, outputFile, serverURL string) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	if serverURL == "" {
		serverURL = fmt.Sprintf("http://%s:%d", p.settings.Server.Host, p.settings.Server.Port)
	}

	doc := openapi.Generate(p.svc.Registry(), serverURL)
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal openapi: %w", err)
	}
	b = append(b, '\n')

	if outputFile == "" {
		_, err = cmd.OutOrStdout().Write(b)
		return err
	}
	if err := os.WriteFile(outputFile, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outputFile, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outputFile)
	return nil
}
