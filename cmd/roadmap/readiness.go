package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/roadmap-gate/internal/gate"
)

func (a *app) readinessCmd() *cobra.Command {
	var (
		opts   gate.ReadinessOptions
		write  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Classify readiness dimensions and print the program verdict",
		Long: `Classifies the built-in dimensions (milestone closure, capability closure,
obligation closure, p0 issue closure) and the dimensions of the checks file,
then aggregates the mandatory ones into PASS or BLOCKED.

--out writes a deterministic completion certificate (JSON plus a Markdown
rendering next to it); --write uses the configured certificate path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if write && opts.Out == "" {
				opts.Out = a.env.Config.CertificatePath()
			}
			result, err := gate.EvaluateReadiness(cmd.Context(), a.env, opts)
			if err != nil {
				return err
			}
			if asJSON {
				data, err := json.MarshalIndent(result.Program, "", "  ")
				if err != nil {
					return fmt.Errorf("readiness: encode: %w", err)
				}
				if _, err := fmt.Fprintln(a.stdout, string(data)); err != nil {
					return err
				}
			} else if err := a.printer.PrintProgram(result.Program); err != nil {
				return err
			}
			if result.Certificate != nil {
				a.env.Log.Printf("certificate %s (%s)", result.Certificate.CertificateID, a.env.Config.Rel(result.MarkdownPath))
			}
			if !result.Program.Passed() {
				return errChecksFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Checks, "checks", "", "Readiness checks file (default from config)")
	cmd.Flags().StringVar(&opts.Previous, "previous", "", "Previous registry JSON for transition closure")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Write the completion certificate to this JSON path")
	cmd.Flags().BoolVar(&write, "write", false, "Write the certificate to the configured path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the program verdict as JSON")
	return cmd
}
