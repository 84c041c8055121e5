package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/epicycle/internal/analysis"
	"github.com/san-kum/epicycle/internal/epicycle"
	"github.com/san-kum/epicycle/internal/export"
	"github.com/san-kum/epicycle/internal/storage"
	"github.com/san-kum/epicycle/internal/stroke"
	"github.com/spf13/cobra"
)

const (
	exportSize  = 800
	energyShare = 0.95
)

func runExport(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	e, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := signalContext()
	defer cancel()
	d, err := loadDrawing(ctx, e, id)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)

	color := string(e.theme().Primary)
	switch format {
	case "svg":
		_, err = io.WriteString(w, export.TraceSVG(d.Vectors, export.DefaultSamples, exportSize, exportSize, color))
	case "pdf":
		err = export.TracePDF(w, d, export.PDFOptions{Stroke: len(d.Stroke) > 1, Color: color})
	case "json":
		err = storage.WriteJSON(w, d)
	case "csv":
		err = storage.WriteVectorsCSV(w, d.Vectors)
	default:
		return epicycle.Invalid("unknown format %q (svg, pdf, json, csv)", format)
	}
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(os.Stderr, "exported drawing %d to %s\n", id, outPath)
	}
	return nil
}

func runSpectrum(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	e, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := signalContext()
	defer cancel()
	d, err := loadDrawing(ctx, e, id)
	if err != nil {
		return err
	}

	bins := analysis.Spectrum(d.Vectors)
	fmt.Printf("drawing: %d\n", d.ID)
	fmt.Printf("vectors: %d\n", len(d.Vectors))
	fmt.Printf("max |n|: %d\n", d.Vectors.MaxFrequency())
	fmt.Printf("vectors for %.0f%% energy: %d\n\n", energyShare*100, analysis.EnergyRank(d.Vectors, energyShare))

	if len(bins) > 1 {
		graph := asciigraph.Plot(analysis.Amplitudes(bins),
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("amplitude by |n|"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	fmt.Print(analysis.TraceToASCII(analysis.Trace(d.Vectors, export.DefaultSamples), 60, 24))
	return nil
}

func runSample(cmd *cobra.Command, args []string) error {
	if listShapes || len(args) == 0 {
		for _, name := range stroke.Shapes() {
			fmt.Println(name)
		}
		return nil
	}
	st, err := stroke.Sample(args[0], numPoints)
	if err != nil {
		return err
	}
	return stroke.Save(os.Stdout, st, 0)
}

