package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/catalog"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/log"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/matching"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/notification"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/pipeline"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/properties"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/selection"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/sentinel"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/tides"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/internal/utils"
	"github.com/shoreline-guardian/shoreline-guardian-api-poc/output"
)

func printBanner() {
	figure1 := figure.NewFigure("Shoreline", "isometric1", true)
	figure2 := figure.NewFigure("CLI", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

func readLine(reader *bufio.Reader, prompt string) string {
	fmt.Printf("\033[34m%s\033[0m", prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readDate(reader *bufio.Reader, prompt string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", readLine(reader, prompt))
	if err != nil {
		fmt.Printf("\n\033[31mInvalid date, expected YYYY-MM-DD.\033[0m\n")
		return time.Time{}, false
	}
	return date, true
}

func loadSeries(reader *bufio.Reader) (*tides.Series, bool) {
	path := readLine(reader, "Enter the tide CSV path: ")
	series, err := tides.LoadCSV(path)
	if err != nil {
		fmt.Printf("\n\033[31mError loading tide CSV: %s\033[0m\n", err.Error())
		return nil, false
	}

	stats, err := series.Statistics(series.Start(), series.End())
	if err == nil {
		fmt.Printf("\033[32mLoaded %d samples, %s to %s\033[0m\n",
			series.Len(),
			series.Start().Format("2006-01-02 15:04"),
			series.End().Format("2006-01-02 15:04"))
		fmt.Printf("\033[32mWater level: min %.3f m, max %.3f m, mean %.3f m, std %.3f m\033[0m\n",
			stats.Min, stats.Max, stats.Mean, stats.StdDev)
	}
	return series, true
}

func filterTideCSV(reader *bufio.Reader) {
	series, ok := loadSeries(reader)
	if !ok {
		return
	}

	samples := series.Samples()
	if answer := readLine(reader, "Filter by water level range? (y/N): "); strings.EqualFold(answer, "y") {
		var min, max float64
		fmt.Sscanf(readLine(reader, "Enter min level (m): "), "%f", &min)
		fmt.Sscanf(readLine(reader, "Enter max level (m): "), "%f", &max)
		samples = series.FilterByLevel(min, max)
	}
	if answer := readLine(reader, "Filter by hour of day? (y/N): "); strings.EqualFold(answer, "y") {
		var startHour, endHour int
		fmt.Sscanf(readLine(reader, "Enter start hour (0-23): "), "%d", &startHour)
		fmt.Sscanf(readLine(reader, "Enter end hour (0-23): "), "%d", &endHour)
		filtered, err := tides.NewSeries(samples)
		if err != nil {
			fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
			return
		}
		samples = filtered.FilterByHour(startHour, endHour)
	}

	if len(samples) == 0 {
		fmt.Printf("\n\033[31mNo samples left after filtering.\033[0m\n")
		return
	}

	outPath := readLine(reader, "Enter the output CSV path: ")
	if err := tides.ExportCSV(samples, outPath); err != nil {
		fmt.Printf("\n\033[31mError exporting CSV: %s\033[0m\n", err.Error())
		return
	}
	fmt.Printf("\n\033[32mFiltered CSV with %d samples written to %s\033[0m\n", len(samples), outPath)
}

func searchAndSelect(reader *bufio.Reader) {
	series, ok := loadSeries(reader)
	if !ok {
		return
	}

	from, ok := readDate(reader, "Enter the analysis start date (YYYY-MM-DD): ")
	if !ok {
		return
	}
	to, ok := readDate(reader, "Enter the analysis end date (YYYY-MM-DD): ")
	if !ok {
		return
	}

	settings := properties.DefaultSettings()
	if tileList := readLine(reader, "Enter the required tiles (comma separated, empty for default): "); tileList != "" {
		settings.RequiredTiles = strings.Split(strings.ReplaceAll(tileList, " ", ""), ",")
	}

	ctx := context.Background()
	client, err := catalog.NewClient(ctx)
	if err != nil {
		fmt.Printf("\n\033[31mError creating catalog client: %s\033[0m\n", err.Error())
		return
	}

	matcher, err := matching.NewMatcher(client, series, settings)
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}

	candidates, err := matcher.Match(ctx, from, to)
	if err != nil {
		fmt.Printf("\n\033[31mError matching scenes: %s\033[0m\n", err.Error())
		notification.SendDiscordErrorNotification(fmt.Sprintf("Shoreline CLI\n\nScene matching failed: %s", err.Error()))
		return
	}
	fmt.Printf("\033[32m%d candidate scene(s) within the acceptance window\033[0m\n", len(candidates))

	selections := selection.SelectBestPairs(candidates, settings)
	if len(selections) == 0 {
		fmt.Printf("\n\033[33mNo year has a complete pair covering %s.\033[0m\n", strings.Join(settings.RequiredTiles, "+"))
		return
	}

	reportPath, err := output.WriteSelectionCSV(selections, fmt.Sprintf("pairs_%s_%s", from.Format("2006"), to.Format("2006")))
	if err != nil {
		fmt.Printf("\n\033[31mError writing selection report: %s\033[0m\n", err.Error())
		return
	}
	fmt.Printf("\n\033[32mBest pairs for %d year(s) written to %s\033[0m\n", len(selections), reportPath)

	if answer := readLine(reader, "Download quicklooks for the chosen scenes? (y/N): "); strings.EqualFold(answer, "y") {
		scenes := []catalog.SceneRecord{}
		for _, sel := range selections {
			scenes = append(scenes, sel.Scenes...)
		}
		quicklookDir := fmt.Sprintf("%s/data/quicklooks", properties.RootPath())
		if err := client.DownloadQuicklooks(ctx, scenes, quicklookDir); err != nil {
			fmt.Printf("\n\033[31mError downloading quicklooks: %s\033[0m\n", err.Error())
			return
		}
		fmt.Printf("\033[32mQuicklooks saved to %s\033[0m\n", quicklookDir)
	}
}

func extractSurfaces(reader *bufio.Reader) {
	series, ok := loadSeries(reader)
	if !ok {
		return
	}

	from, ok := readDate(reader, "Enter the analysis start date (YYYY-MM-DD): ")
	if !ok {
		return
	}
	to, ok := readDate(reader, "Enter the analysis end date (YYYY-MM-DD): ")
	if !ok {
		return
	}

	settings := properties.DefaultSettings()
	ctx := context.Background()
	client, err := catalog.NewClient(ctx)
	if err != nil {
		fmt.Printf("\n\033[31mError creating catalog client: %s\033[0m\n", err.Error())
		return
	}

	var provider pipeline.RasterProvider
	if answer := readLine(reader, "Fetch rasters from the process API instead of local mosaics? (y/N): "); strings.EqualFold(answer, "y") {
		remote, err := sentinel.NewProvider(ctx)
		if err != nil {
			fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
			return
		}
		provider = remote
	} else {
		mosaicDir := readLine(reader, "Enter the mosaic directory (one <year>_ndvi.tif or band pair per year): ")
		var sourceEPSG int
		fmt.Sscanf(readLine(reader, "Enter the mosaic EPSG code (e.g. 4326): "), "%d", &sourceEPSG)
		provider = &pipeline.FileRasterProvider{Dir: mosaicDir, EPSG: sourceEPSG}
	}
	run, err := pipeline.New(series, client, provider, settings)
	if err != nil {
		fmt.Printf("\n\033[31m%s\033[0m\n", err.Error())
		return
	}

	report, err := run.Run(ctx, from, to)
	if err != nil {
		fmt.Printf("\n\033[31mPipeline error: %s\033[0m\n", err.Error())
		notification.SendDiscordErrorNotification(fmt.Sprintf("Shoreline CLI\n\nPipeline failed: %s", err.Error()))
		return
	}

	for _, surface := range report.Surfaces {
		geojsonPath, err := output.WriteSurfaceGeoJson(surface)
		if err != nil {
			fmt.Printf("\n\033[31mError writing %d surfaces: %s\033[0m\n", surface.Year, err.Error())
			continue
		}
		fmt.Printf("\033[32m%d: %d surface(s), %.4f km2 -> %s\033[0m\n",
			surface.Year, len(surface.Features), surface.TotalKm2, geojsonPath)

		if surface.Mask != nil {
			if _, err := output.WriteMaskImage(surface.Mask, fmt.Sprintf("mask_%d", surface.Year)); err != nil {
				fmt.Printf("\033[33mCould not render %d mask preview: %s\033[0m\n", surface.Year, err.Error())
			}
		}
	}

	fmt.Printf("\n\033[32m%s\033[0m\n", report.Summary())
	if failed := report.Failed(); len(failed) > 0 {
		notification.SendDiscordErrorNotification(fmt.Sprintf("Shoreline CLI\n\n%s", report.Summary()))
	} else {
		notification.SendDiscordSuccessNotification(fmt.Sprintf("Shoreline CLI\n\n%s", report.Summary()))
	}
}

func tideStatistics(reader *bufio.Reader) {
	series, ok := loadSeries(reader)
	if !ok {
		return
	}

	extrema := 0
	for range series.Extrema(series.Start(), series.End()) {
		extrema++
	}
	fmt.Printf("\033[32m%d tidal extrema in the series\033[0m\n", extrema)

	daily := series.DailyStatistics()
	fmt.Printf("\033[32m%d day(s) of measurements\033[0m\n", len(daily))
	for _, day := range utils.SortedKeys(daily) {
		stats := daily[day]
		fmt.Printf("\033[32m%s: min %.3f m, max %.3f m, mean %.3f m, median %.3f m\033[0m\n",
			day.Format("2006-01-02"), stats.Min, stats.Max, stats.Mean, stats.Median)
	}
}

func initCLI() {
	defer func() {
		if r := recover(); r != nil {
			pc, file, line, ok := runtime.Caller(3)
			var location string
			if ok {
				fn := runtime.FuncForPC(pc)
				location = fmt.Sprintf("%s:%d in %s", file, line, fn.Name())
			} else {
				location = "Unknown location"
			}

			fmt.Printf("\n\033[31mPANIC: %v\033[0m\n", r)
			fmt.Printf("\033[31mLocation: %s\033[0m\n", location)
			fmt.Printf("\033[31mExiting...\033[0m\n")

			stack := debug.Stack()
			errMessage := fmt.Sprintf("Shoreline CLI panic:\n\n%v\n\nLocation: %s\n\nStack trace:\n%s", r, location, stack)
			if err := notification.SendDiscordErrorNotification(errMessage); err != nil {
				fmt.Printf("\033[31mFailed to send notification: %s\033[0m\n", err.Error())
			}
		}
	}()
	printBanner()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("\033[34m===================\033[0m")
		fmt.Println("\033[34m1. Filter and export a tide CSV\033[0m")
		fmt.Println("\033[34m2. Select best acquisition pairs per year\033[0m")
		fmt.Println("\033[34m3. Extract yearly land surfaces\033[0m")
		fmt.Println("\033[34m4. Show tide series statistics\033[0m")
		fmt.Println("\033[34m5. Exit\033[0m")
		fmt.Println("\033[34mEnter your choice:\033[0m")

		var choice int
		_, err := fmt.Scan(&choice)
		if err != nil {
			fmt.Printf("\n\033[31mInvalid input. Please enter a number.\033[0m\n")
			fmt.Scanln()
			continue
		}
		reader.ReadString('\n') // consume the rest of the line

		switch choice {
		case 1:
			filterTideCSV(reader)
		case 2:
			fmt.Println("\033[33m\nWarning:\033[0m")
			fmt.Println("\033[33m- COPERNICUS_CLIENT_ID, COPERNICUS_CLIENT_SECRET and COPERNICUS_TOKEN_URL must be set.\n\033[0m")
			searchAndSelect(reader)
		case 3:
			fmt.Println("\033[33m\nWarning:\033[0m")
			fmt.Println("\033[33m- Either local mosaics per year or Copernicus credentials are required.\033[0m")
			fmt.Println("\033[33m- Results are written to data/result under ROOT_PATH.\n\033[0m")
			extractSurfaces(reader)
		case 4:
			tideStatistics(reader)
		case 5:
			println("Exiting...")
			return
		default:
			println("Invalid choice. Please try again.")
		}
	}
}

func main() {
	debugLogs := false
	for _, arg := range os.Args[1:] {
		if arg == "--debug" {
			debugLogs = true
		}
	}

	if err := godotenv.Load("../../.env"); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			godotenv.Load(".env")
		}
	}

	if err := log.Init(debugLogs); err != nil {
		fmt.Printf("\033[31mFailed to initialize logger: %s\033[0m\n", err.Error())
		os.Exit(1)
	}
	defer log.Sync()

	initCLI()
}
