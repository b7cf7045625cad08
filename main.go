package main

import (
	"flag"
	"log"
	"strconv"
	"time"
)

// Settings - command line options. The first positional argument selects
// the mode, the remaining arguments are input and output paths.
type Settings struct {
	Mode        string
	InputPath   string
	ImportPath  string
	OutputPath  string
	LeveldbPath string
	Original    bool
	Verify      bool
	Debug       bool
}

func getSettings() Settings {

	// command line flags
	leveldbPath := flag.String("leveldb", "/tmp/building2osm", "path to leveldb directory")
	original := flag.Bool("original", false, "skip simplification and rectification, output as loaded")
	verify := flag.Bool("verify", false, "include verification properties in output")
	debug := flag.Bool("debug", false, "include all diagnostic properties in output")

	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		log.Fatal("invalid args, you must specify a mode: convert, merge or boundary")
	}

	settings := Settings{
		Mode:        args[0],
		LeveldbPath: *leveldbPath,
		Original:    *original,
		Verify:      *verify,
		Debug:       *debug,
	}

	switch settings.Mode {
	case "convert":
		if len(args) != 3 {
			log.Fatal("usage: convert <input.geojson> <output.geojson>")
		}
		settings.InputPath = args[1]
		settings.OutputPath = args[2]
	case "merge":
		if len(args) != 4 {
			log.Fatal("usage: merge <existing.pbf> <import.geojson> <output.osm>")
		}
		settings.InputPath = args[1]
		settings.ImportPath = args[2]
		settings.OutputPath = args[3]
	case "boundary":
		if len(args) != 3 {
			log.Fatal("usage: boundary <input.pbf> <output.geojson>")
		}
		settings.InputPath = args[1]
		settings.OutputPath = args[2]
	default:
		log.Fatal("unknown mode: ", settings.Mode)
	}

	return settings
}

func main() {

	settings := getSettings()
	config := LoadConfig()

	start := time.Now()

	switch settings.Mode {
	case "convert":
		runConvert(settings, config)
	case "merge":
		runMerge(settings, config)
	case "boundary":
		runBoundary(settings)
	}

	log.Printf("done in %.1fs", time.Since(start).Seconds())
}

// runConvert - load import buildings from geojson, simplify and rectify
// their footprints, and save the result.
func runConvert(settings Settings, config Config) {

	buildings, err := LoadGeoJSON(settings.InputPath)
	if err != nil {
		log.Fatal(err)
	}

	for _, building := range buildings {
		adjustBuildingTags(building)
	}

	removed := make(map[Point]bool)
	if !settings.Original {
		SimplifyBuildings(buildings, config, removed)
		RectifyBuildings(buildings, config, removed)
	}

	if err := SaveGeoJSON(settings.OutputPath, buildings, removed, settings.Verify, settings.Debug); err != nil {
		log.Fatal(err)
	}
}

// runMerge - conflate import buildings against the buildings of an OSM
// extract and write the result as an OSM change file.
func runMerge(settings Settings, config Config) {

	source, err := LoadPBF(settings.InputPath, settings.LeveldbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer source.Close()
	log.Printf("loaded %d existing buildings from %s", len(source.Buildings), settings.InputPath)

	imports, err := LoadGeoJSON(settings.ImportPath)
	if err != nil {
		log.Fatal(err)
	}

	result := ConflateBuildings(source.Buildings, imports, config)
	log.Printf("matched %d buildings, %d new, %d untouched",
		len(result.Merged), len(result.Added), len(result.Unmatched))

	if err := WriteOSMChange(settings.OutputPath, result, source, settings.Debug); err != nil {
		log.Fatal(err)
	}
}

// runBoundary - assemble the boundary relations of an OSM extract into
// polygons and save them as geojson.
func runBoundary(settings Settings) {

	source, err := LoadPBF(settings.InputPath, settings.LeveldbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer source.Close()
	log.Printf("assembled %d boundaries from %s", len(source.Boundaries), settings.InputPath)

	// building count per boundary, useful for eyeballing the assembly
	for _, boundary := range source.Boundaries {
		count := 0
		for _, building := range source.Buildings {
			if PointInPolygon(building.Center, boundary.Polygon) ||
				PointInMultipolygon(building.Center, boundary.Multipolygon) {
				count++
			}
		}
		boundary.Tags["buildings"] = strconv.Itoa(count)
	}

	if err := SaveGeoJSON(settings.OutputPath, source.Boundaries, nil, false, false); err != nil {
		log.Fatal(err)
	}
}
