package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pacesim/internal/config"
	"github.com/san-kum/pacesim/internal/experiment"
	"github.com/san-kum/pacesim/internal/storage"
	"github.com/san-kum/pacesim/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(nil)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context(), storage.Filter{Model: filterModel, Kind: filterKind, Limit: limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tMODEL\tTIME\tBCL\tPACES\tFINAL MRMS\tCONVERGED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%d\t%.3e\t%v\n",
			run.ID,
			run.Kind,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Protocol.Period,
			run.Paces,
			run.FinalMRMS,
			run.Converged,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadPaces(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s (%s)\n", meta.Model, meta.Kind)
	fmt.Printf("paces: %d\n\n", len(rows))

	mrms := make([]float64, len(rows))
	apd := make([]float64, len(rows))
	for i, r := range rows {
		mrms[i] = r.MRMS
		apd[i] = r.APD
	}

	if chart := viz.Plot(viz.Log10Series(mrms), 10, 80, "log10 MRMS vs pace"); chart != "" {
		fmt.Println(chart)
		fmt.Println()
	}
	if chart := viz.Plot(viz.Finite(apd), 10, 80, "APD vs pace"); chart != "" {
		fmt.Println(chart)
		fmt.Println()
	}

	const maxPlots = 6
	for varIdx := 0; varIdx < len(meta.StateNames) && varIdx < maxPlots; varIdx++ {
		data := make([]float64, 0, len(rows))
		for _, r := range rows {
			if varIdx < len(r.State) {
				data = append(data, r.State[varIdx])
			}
		}
		if chart := viz.Plot(viz.Finite(data), 10, 80, meta.StateNames[varIdx]+" vs pace"); chart != "" {
			fmt.Println(chart)
			fmt.Println()
		}
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}
	if outputPath != "" {
		return storage.ExportJSON(outputPath, data)
	}
	return storage.ExportJSONStdout(data)
}

func listModels(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tVARIABLES\tPARAMETERS")
	for _, name := range reg.ListModels() {
		m, err := reg.GetModel(name)
		if err != nil {
			return err
		}
		p := m.GetParams()
		fmt.Fprintf(w, "%s\t%v\t%s\n", name, m.StateNames(), formatParams(p))
	}
	return w.Flush()
}

func formatParams(p map[string]float64) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, " ")
}

func listPresets(cmd *cobra.Command, args []string) error {
	models := config.Models
	if len(args) > 0 {
		models = args
	}
	for _, model := range models {
		presets := config.ListPresets(model)
		if len(presets) == 0 {
			fmt.Printf("no presets for model: %s\n", model)
			continue
		}
		fmt.Printf("presets for %s:\n", model)
		for _, p := range presets {
			cfg := config.GetPreset(model, p)
			fmt.Printf("  %-6s period %g, stimulus %g for %g, %d paces\n",
				p, cfg.Protocol.Period, cfg.Protocol.Amplitude, cfg.Protocol.Duration, cfg.Paces)
		}
	}
	return nil
}

func printConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, modelArg(args))
	if err != nil {
		return err
	}
	if outputPath != "" {
		return config.Save(outputPath, cfg)
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
