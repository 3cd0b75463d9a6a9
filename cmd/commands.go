package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forest-guardian/spectral-indices/internal/delivery"
	"github.com/forest-guardian/spectral-indices/internal/indices"
	"github.com/forest-guardian/spectral-indices/internal/logger"
	"github.com/forest-guardian/spectral-indices/internal/mapping"
	"github.com/forest-guardian/spectral-indices/internal/properties"
	"github.com/forest-guardian/spectral-indices/internal/raster"
	"github.com/forest-guardian/spectral-indices/internal/ui"
)

type app struct {
	cfg properties.Config
	in  io.Reader
	svc *delivery.Service
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "spectra",
		Short:         "Compute spectral indices from multispectral rasters",
		Long:          "spectra guesses which band is Blue, Green, Red, NIR, SWIR1 and SWIR2 from band names, lists the indices those bands allow and computes them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().IntVar(&a.cfg.Workers, "workers", a.cfg.Workers, "concurrent images and indices in a batch")
	root.PersistentFlags().BoolVar(&a.cfg.MaskNoData, "mask-nodata", a.cfg.MaskNoData, "treat each band's no-data value as undefined")

	root.AddCommand(
		newIndicesCmd(),
		newBandsCmd(a),
		newCalcCmd(a),
		newBatchCmd(a),
	)
	return root
}

func (a *app) setup() error {
	log, err := logger.NewConsole(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.svc = &delivery.Service{
		Log:             log,
		Store:           mapping.NewStore(a.cfg.MappingsPath()),
		Raster:          raster.Options{MaskNoData: a.cfg.MaskNoData},
		Workers:         a.cfg.Workers,
		NotificationURL: a.cfg.NotificationURL,
		Progress:        os.Stderr,
	}
	return nil
}

func newIndicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indices",
		Short: "List every index spectra knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ui.PrintIndices(indices.All())
			return nil
		},
	}
}

func newBandsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bands <image>",
		Short: "Show band names, the inferred roles and the indices they allow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := raster.Load(args[0], a.svc.Raster)
			if err != nil {
				return err
			}
			m := indices.Infer(img.Bands.Names)
			ui.PrintBands(img.Bands.Names)
			ui.PrintAssignments(indices.Explain(img.Bands.Names))
			ui.PrintMapping(img.Bands.Names, m)
			ui.PrintAvailable(indices.Available(m))
			return nil
		},
	}
}

type calcFlags struct {
	index       string
	mappingPath string
	assignments []string
	params      []string
	edit        bool
	saveMapping string
	out         string
	export      bool
	pixels      string
	keepNaN     bool
	region      string
}

func newCalcCmd(a *app) *cobra.Command {
	var f calcFlags
	cmd := &cobra.Command{
		Use:   "calc <image>",
		Short: "Compute one index for one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(a, args[0])
			if err != nil {
				return err
			}
			resp, err := a.svc.Calculate(cmd.Context(), req)
			if err != nil {
				return err
			}

			ui.PrintMapping(resp.Image.Bands.Names, resp.Mapping)
			ui.PrintAvailable(resp.Available)
			ui.PrintSummary(resp.Result.Index, resp.Summary)
			if resp.OutputPath != "" {
				ui.PrintSuccess("GeoTIFF written to " + resp.OutputPath)
			}
			if resp.PixelsPath != "" {
				ui.PrintSuccess(fmt.Sprintf("%d pixel values written to %s", resp.PixelRows, resp.PixelsPath))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.index, "index", "i", "NDVI", "index to compute")
	cmd.Flags().StringVarP(&f.mappingPath, "mapping", "m", "", "band mapping JSON file to use instead of guessing")
	cmd.Flags().StringArrayVar(&f.assignments, "set", nil, "assign a band to a role, e.g. --set NIR=3 (repeatable)")
	cmd.Flags().StringArrayVar(&f.params, "param", nil, "override a formula parameter, e.g. --param L=0.25 (repeatable)")
	cmd.Flags().BoolVarP(&f.edit, "edit", "e", false, "review the band mapping interactively before computing")
	cmd.Flags().StringVar(&f.saveMapping, "save-mapping", "", "write the band mapping used to this JSON file")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "GeoTIFF output path")
	cmd.Flags().BoolVar(&f.export, "export", false, "write <image>_<INDEX>.tif next to the image when --out is not given")
	cmd.Flags().StringVar(&f.pixels, "pixels", "", "CSV file receiving one row per pixel")
	cmd.Flags().BoolVar(&f.keepNaN, "keep-nan", false, "keep undefined pixels in the pixel CSV")
	cmd.Flags().StringVar(&f.region, "region", "", "GeoJSON polygon restricting statistics and pixel rows")
	return cmd
}

func (f calcFlags) request(a *app, image string) (delivery.Request, error) {
	assignments, err := mapping.ParseAssignments(f.assignments)
	if err != nil {
		return delivery.Request{}, err
	}
	params, err := mapping.ParseParams(f.params)
	if err != nil {
		return delivery.Request{}, err
	}

	out := f.out
	if out == "" && f.export {
		out = filepath.Join(filepath.Dir(image), raster.DefaultExportName(image, f.index))
	}

	req := delivery.Request{
		ImagePath:   image,
		Index:       strings.ToUpper(strings.TrimSpace(f.index)),
		MappingPath: f.mappingPath,
		Assignments: assignments,
		Params:      params,
		SaveMapping: f.saveMapping,
		OutputPath:  out,
		PixelsPath:  f.pixels,
		SkipNaN:     !f.keepNaN,
		RegionPath:  f.region,
	}
	if f.edit {
		req.Edit = func(names []string, m indices.RoleMapping) (indices.RoleMapping, error) {
			return ui.EditMapping(a.in, names, m)
		}
	}
	return req, nil
}

func newBatchCmd(a *app) *cobra.Command {
	var (
		names       []string
		params      []string
		mappingPath string
		outDir      string
		summary     string
	)
	cmd := &cobra.Command{
		Use:   "batch <image>...",
		Short: "Compute indices for many images at once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := mapping.ParseParams(params)
			if err != nil {
				return err
			}
			for i := range names {
				names[i] = strings.ToUpper(strings.TrimSpace(names[i]))
			}

			rows, err := a.svc.Batch(cmd.Context(), delivery.BatchRequest{
				Images:      args,
				Indices:     names,
				MappingPath: mappingPath,
				Params:      p,
				OutDir:      outDir,
				SummaryPath: summary,
			})
			for _, r := range rows {
				if r.Error != "" {
					ui.PrintError(fmt.Sprintf("%s %s: %s", r.Image, r.Index, r.Error))
				}
			}
			if err != nil {
				return err
			}
			ui.PrintSuccess(fmt.Sprintf("%d index results computed", len(rows)))
			if summary != "" {
				ui.PrintSuccess("Summary written to " + summary)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&names, "index", "i", nil, "index to compute (repeatable, default every available index)")
	cmd.Flags().StringArrayVar(&params, "param", nil, "override a formula parameter for the indices that declare it")
	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "", "band mapping JSON file applied to every image")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "folder receiving one GeoTIFF per image and index")
	cmd.Flags().StringVar(&summary, "summary", "", "CSV file receiving the statistics of every result")
	return cmd
}
