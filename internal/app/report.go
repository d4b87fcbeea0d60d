package app

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vk/precomp/internal/resultstore"
)

// instanceReport is the serialised form of one instance's result.
type instanceReport struct {
	Instance string              `json:"instance" yaml:"instance"`
	Status   string              `json:"status" yaml:"status"`
	Error    string              `json:"error,omitempty" yaml:"error,omitempty"`
	Fixups   []resultstore.Entry `json:"fixups" yaml:"fixups"`
	Values   []resultstore.Entry `json:"values" yaml:"values"`
}

func toReports(results []*resultstore.Result) []instanceReport {
	reports := make([]instanceReport, 0, len(results))
	for _, r := range results {
		rep := instanceReport{
			Instance: r.Instance,
			Status:   r.Status.String(),
			Fixups:   []resultstore.Entry{},
			Values:   []resultstore.Entry{},
		}
		if r.Err != nil {
			rep.Error = r.Err.Error()
		}
		if r.Output != nil {
			rep.Fixups = append(rep.Fixups, r.Output.Fixups...)
			rep.Values = append(rep.Values, r.Output.Values...)
		}
		reports = append(reports, rep)
	}
	return reports
}

// writeReport prints results in the given format, in instance order.
func writeReport(w io.Writer, format string, results []*resultstore.Result) error {
	reports := toReports(results)
	switch format {
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any{"instances": reports}); err != nil {
			return err
		}
		return enc.Close()
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"instances": reports})
	case OutputText, "":
		return writeText(w, reports)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func writeText(w io.Writer, reports []instanceReport) error {
	for _, rep := range reports {
		if _, err := fmt.Fprintf(w, "%s [%s]\n", rep.Instance, rep.Status); err != nil {
			return err
		}
		if rep.Error != "" {
			if _, err := fmt.Fprintf(w, "  error: %s\n", rep.Error); err != nil {
				return err
			}
		}
		if err := writeSection(w, "fixups", rep.Fixups); err != nil {
			return err
		}
		if err := writeSection(w, "values", rep.Values); err != nil {
			return err
		}
	}
	return nil
}

func writeSection(w io.Writer, title string, entries []resultstore.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "  %s:\n", title); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "    %s = %s\n", e.Name, e.Value); err != nil {
			return err
		}
	}
	return nil
}
