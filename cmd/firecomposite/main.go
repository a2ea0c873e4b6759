// Command firecomposite builds one fire-index RGB composite from a scene
// file and writes it as a TIFF.
//
// Usage:
//
//	go run ./cmd/firecomposite \
//	  -input data/scene.json \
//	  -out out \
//	  -bits 16 -mode day
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/fire-index-etl/internal/adapter/filestore"
	"github.com/couchcryptid/fire-index-etl/internal/config"
	"github.com/couchcryptid/fire-index-etl/internal/domain"
	"github.com/couchcryptid/fire-index-etl/internal/raster"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	input := flag.String("input", "", "scene JSON file")
	outDir := flag.String("out", "out", "output directory")
	bits := flag.Int("bits", 16, "output bit depth (8 or 16)")
	mode := flag.String("mode", "day", "composite mode (day or night)")
	profilePath := flag.String("profile", "", "optional YAML normalization profile")
	gamma := flag.Float64("gamma", domain.DefaultGamma, "fire index gamma")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := sharedobs.NewLogger(*logLevel, "text")

	if *input == "" {
		flag.Usage()
		logger.Error("missing required flag: -input")
		os.Exit(2)
	}

	params, err := buildParams(*bits, *mode, *gamma)
	if err != nil {
		logger.Error("invalid parameters", "error", err)
		os.Exit(2)
	}

	path, err := run(*input, *outDir, *profilePath, params)
	if err != nil {
		logger.Error("composite failed", "input", *input, "error", err)
		os.Exit(1)
	}
	logger.Info("composite written", "path", path, "mode", params.Mode, "bit_depth", params.BitDepth)
}

func buildParams(bits int, mode string, gamma float64) (domain.Params, error) {
	p := domain.DefaultParams()
	var err error
	if p.BitDepth, err = raster.ParseBitDepth(bits); err != nil {
		return p, err
	}
	if p.Mode, err = domain.ParseMode(mode); err != nil {
		return p, err
	}
	p.Gamma = gamma
	return p, p.Validate()
}

func run(input, outDir, profilePath string, params domain.Params) (string, error) {
	profile, err := config.LoadProfile(profilePath)
	if err != nil {
		return "", err
	}

	scene, err := filestore.NewReader(nil).LoadScene(context.Background(), input)
	if err != nil {
		return "", err
	}

	composite, err := domain.BuildComposite(scene, profile, params)
	if err != nil {
		return "", fmt.Errorf("build composite: %w", err)
	}

	path := filepath.Join(outDir, composite.FileName())
	if err := filestore.WriteComposite(path, composite); err != nil {
		return "", err
	}
	return path, nil
}
