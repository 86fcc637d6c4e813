//go:build ignore

// generate_testdata.go writes synthetic datasets for trying mhv locally.
// Usage: go run scripts/generate_testdata.go [-out data] [-countries 0] [-seed 42]
//
// With -countries 0 the eleven sample countries are written. A positive
// count writes that many random countries instead. The files use the names
// from the default config, so `mhv -data <out>` reads them directly.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/mhviz/pkg/config"
	"github.com/vanderheijden86/mhviz/pkg/testutil"
)

func main() {
	out := flag.String("out", "data", "Output directory")
	n := flag.Int("countries", 0, "Number of random countries (0 writes the sample set)")
	seed := flag.Int64("seed", 42, "Random seed")
	flag.Parse()

	cfg := testutil.DefaultConfig()
	cfg.Seed = *seed
	gen := testutil.New(cfg)

	countries := testutil.SampleCountries()
	if *n > 0 {
		countries = gen.RandomCountries(*n)
	}
	fx := gen.Build(countries)

	if err := os.MkdirAll(*out, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	data := config.DefaultConfig().Data
	files := []struct{ name, content string }{
		{data.Mental, fx.Mental},
		{data.GDP, fx.GDP},
		{data.Population, fx.Population},
		{data.Alcohol, fx.Alcohol},
	}
	for _, f := range files {
		path := filepath.Join(*out, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", path, len(f.content))
	}
	fmt.Printf("\n%d countries, %d-%d\n", len(countries), cfg.FirstYear, cfg.LastYear)
}
