package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/vigil/internal/pipeline"
)

func newDetectCmd(a *app) *cobra.Command {
	var req pipeline.DetectRequest
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Evaluate a metrics snapshot and write an anomaly report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			report, err := a.pipeline(cmd).Detect(cmd.Context(), req)
			if err != nil {
				return err
			}
			wrote(cmd, req.Out, fmt.Sprintf(" (%d anomalies)", report.Count))
			return a.finish()
		},
	}
	cmd.Flags().StringVar(&req.Input, "input", "", "metrics snapshot (JSON or YAML)")
	cmd.Flags().StringVar(&req.Out, "out", "", `anomaly report path, "-" for stdout`)
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("out")
	return cmd
}

func newActCmd(a *app) *cobra.Command {
	var req pipeline.ActRequest
	cmd := &cobra.Command{
		Use:   "act",
		Short: "Select remediation actions for an anomaly report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			plan, err := a.pipeline(cmd).Act(cmd.Context(), req)
			if err != nil {
				return err
			}
			wrote(cmd, req.Out, fmt.Sprintf(" (%d items)", plan.Count))
			wrote(cmd, req.Audit, "")
			return a.finish()
		},
	}
	cmd.Flags().StringVar(&req.Anomalies, "anomalies", "", "anomaly report from detect")
	cmd.Flags().StringVar(&req.Playbook, "playbook", "", "playbook (JSON or YAML); missing file means no actions")
	cmd.Flags().StringVar(&req.Out, "out", "", `action plan path, "-" for stdout`)
	cmd.Flags().StringVar(&req.Audit, "audit", "", `Markdown audit path, "-" for stdout`)
	cmd.MarkFlagRequired("anomalies")
	cmd.MarkFlagRequired("playbook")
	cmd.MarkFlagRequired("out")
	cmd.MarkFlagRequired("audit")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var req pipeline.RunRequest
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run detect and act in one pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			plan, err := a.pipeline(cmd).Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			if req.AnomaliesOut != "" {
				wrote(cmd, req.AnomaliesOut, fmt.Sprintf(" (%d anomalies)", plan.Count))
			}
			wrote(cmd, req.Out, fmt.Sprintf(" (%d items)", plan.Count))
			wrote(cmd, req.Audit, "")
			return a.finish()
		},
	}
	cmd.Flags().StringVar(&req.Input, "input", "", "metrics snapshot (JSON or YAML)")
	cmd.Flags().StringVar(&req.Playbook, "playbook", "", "playbook (JSON or YAML); missing file means no actions")
	cmd.Flags().StringVar(&req.AnomaliesOut, "anomalies-out", "", "also write the intermediate anomaly report here")
	cmd.Flags().StringVar(&req.Out, "out", "", `action plan path, "-" for stdout`)
	cmd.Flags().StringVar(&req.Audit, "audit", "", `Markdown audit path, "-" for stdout`)
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("playbook")
	cmd.MarkFlagRequired("out")
	cmd.MarkFlagRequired("audit")
	return cmd
}

// wrote reports a written file on stderr. Stdout targets are skipped since
// stdout carries the document itself.
func wrote(cmd *cobra.Command, path, suffix string) {
	if path == pipeline.StdoutPath {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s%s\n", path, suffix)
}
