package io

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/guptarohit/asciigraph"
	plt "github.com/phil-mansfield/pyplot"
	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/capsid/anneal"
)

// PlotTrace writes matplotlib figures of energy and temperature against
// iteration. The energy figure goes to fname and the temperature figure to
// TemperaturePlotFile(fname). Nothing is written for an empty trace.
func PlotTrace(fname string, tr *anneal.Trace) {
	if len(tr.Iterations) == 0 {
		return
	}
	plt.Reset()

	plt.Figure(plt.FigSize(8, 6))
	plt.Plot(tr.Iterations, tr.Energies, "k", plt.LW(2))
	plt.Title(fmt.Sprintf(
		`$E_{\rm min}$ = %.4g, $E_{\rm final}$ = %.4g`,
		floats.Min(tr.Energies), tr.Energies[len(tr.Energies)-1],
	))
	plt.XLabel(`Iteration`, plt.FontSize(16))
	plt.YLabel(`$E$`, plt.FontSize(16))
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)

	plt.Figure(plt.FigSize(8, 6))
	plt.Plot(tr.Iterations, tr.Temperatures, "k", plt.LW(2))
	plt.XLabel(`Iteration`, plt.FontSize(16))
	plt.YLabel(`$T$`, plt.FontSize(16))
	if floats.Min(tr.Temperatures) > 0 {
		plt.YScale("log")
	}
	plt.SaveFig(TemperaturePlotFile(fname))

	plt.Execute()
}

// TemperaturePlotFile returns the name PlotTrace gives the temperature figure:
// fname with "_temperature" inserted before its extension.
func TemperaturePlotFile(fname string) string {
	ext := filepath.Ext(fname)
	return strings.TrimSuffix(fname, ext) + "_temperature" + ext
}

// TraceSummary returns a short terminal chart of the energy trace along with
// its extremes.
func TraceSummary(tr *anneal.Trace) string {
	if len(tr.Energies) == 0 {
		return "no snapshots"
	}

	data := make([]float64, 0, len(tr.Energies))
	for _, e := range tr.Energies {
		if !math.IsInf(e, 0) && !math.IsNaN(e) {
			data = append(data, e)
		}
	}
	header := fmt.Sprintf(
		"%d snapshots, E_0 = %.6g, E_min = %.6g, E_final = %.6g",
		len(tr.Energies), tr.Energies[0], floats.Min(tr.Energies),
		tr.Energies[len(tr.Energies)-1],
	)
	if len(data) < 2 {
		return header
	}
	chart := asciigraph.Plot(
		data, asciigraph.Height(4), asciigraph.Width(30),
		asciigraph.Caption("Energy"),
	)
	return header + "\n" + chart
}
