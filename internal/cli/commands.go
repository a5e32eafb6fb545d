package cli

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skosovsky/mcptoolkit"
	"github.com/skosovsky/mcptoolkit/bridge"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every mapped external tool is registered",
		Args:  cobra.NoArgs,
		RunE:  runVerify,
	}
}

func runVerify(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close(cmd.Context())

	names := make([]string, 0, len(bridge.Mapping()))
	for name := range bridge.Mapping() {
		names = append(names, name)
	}
	slices.Sort(names)
	result := bridge.Verify(a.reg, names)
	missing := 0
	for _, name := range names {
		mark := "ok"
		if !result[name] {
			mark = "missing"
			missing++
		}
		id, _ := bridge.CanonicalID(name)
		fmt.Fprintf(cmd.OutOrStdout(), "%-26s %-42s %s\n", name, id, mark)
	}
	if missing > 0 {
		return exitError(1, "%d of %d tools are not registered", missing, len(names))
	}
	return nil
}

type debugReport struct {
	Status  mcptoolkit.Status `yaml:"status"`
	Mapping map[string]string `yaml:"mapping"`
	Skipped []string          `yaml:"skipped,omitempty"`
}

func newDebugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Print registry status, the name mapping and skipped tools as YAML",
		Args:  cobra.NoArgs,
		RunE:  runDebug,
	}
}

func runDebug(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close(cmd.Context())

	report := debugReport{Status: a.reg.Status(), Mapping: bridge.Mapping()}
	for _, s := range a.report.Skipped {
		report.Skipped = append(report.Skipped, s.Name)
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <tool-id> [json-args]",
		Short: "Dispatch one call and print the normalized result as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runCall,
	}
	cmd.Flags().String("mode", "", "Use the synchronous entry point with this mode: inline or worker")
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	var callArgs mcptoolkit.Args
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &callArgs); err != nil {
			return exitError(2, "arguments must be a JSON object: %v", err)
		}
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close(cmd.Context())

	var res mcptoolkit.Result
	if m, _ := cmd.Flags().GetString("mode"); m != "" {
		mode, perr := mcptoolkit.ParseExecMode(m)
		if perr != nil {
			return exitError(2, "%v", perr)
		}
		res, err = a.dispatcher.CallSync(cmd.Context(), mode, args[0], callArgs)
	} else {
		res, err = a.dispatcher.Call(cmd.Context(), args[0], callArgs)
	}
	if err != nil {
		return exitError(1, "%s: %v", mcptoolkit.KindOf(err), err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if a.tracker != nil {
		fmt.Fprint(cmd.OutOrStdout(), a.tracker.Summary())
	}
	return a.reportMetrics(cmd.Context(), cmd.OutOrStdout())
}
