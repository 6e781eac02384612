package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HolgerKurtz/meta-ads-insights/internal/config"
	"github.com/HolgerKurtz/meta-ads-insights/internal/openapi"
	"github.com/HolgerKurtz/meta-ads-insights/internal/server"
)

const banner = `
             _ _           _       _     _
  __ _  __| (_)_ __  ___(_) __ _| |__ | |_ ___
 / _' |/ _' | | '_ \/ __| |/ _' | '_ \| __/ __|
| (_| | (_| | | | | \__ \ | (_| | | | | |_\__ \
 \__,_|\__,_|_|_| |_|___/_|\__, |_| |_|\__|___/
                           |___/
`

func newServeCmd(version string) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the insights JSON API server",
		Long: `Start the HTTP server that exposes the insights pipeline as a JSON API,
with an OpenAPI document at /openapi.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, version)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "HTTP listen host")

	viper.BindPFlag(config.KeyServerPort, cmd.Flags().Lookup("port"))
	viper.BindPFlag(config.KeyServerHost, cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(cmd *cobra.Command, version string) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	s := p.settings.Server

	srvCfg := server.Config{
		Host:            s.Host,
		Port:            s.Port,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     s.CORSOrigins,
		RateLimit:       s.RateLimit,
	}
	base := fmt.Sprintf("http://%s:%d", s.Host, s.Port)
	doc := openapi.Generate(p.svc.Registry(), base)
	srv := server.New(srvCfg, p.svc, p.fetcher, doc, p.logger)

	out := cmd.OutOrStdout()
	fmt.Fprint(out, banner)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "→ adinsights %s\n", version)
	fmt.Fprintf(out, "→ Listening on %s\n", base)
	fmt.Fprintf(out, "→ API:        %s/api/v1\n", base)
	fmt.Fprintf(out, "→ OpenAPI:    %s/openapi.json\n", base)
	fmt.Fprintf(out, "→ Health:     %s/healthz\n", base)
	if p.settings.Graph.AccessToken == "" {
		fmt.Fprintln(out, "→ No default access token; requests must carry access_token")
	}
	fmt.Fprintln(out)

	return srv.ListenAndServe()
}
