package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/queuetheory/lossim/simulator"
)

func main() {
	// Parse command line flags
	configFile := flag.String("config", "", "Path to JSON configuration file (optional, overrides model flags)")
	channels := flag.Int("channels", 3, "Number of service channels (n)")
	mu := flag.Float64("mu", 1.0, "Service rate per channel")
	lambdaMin := flag.Float64("lambda-min", 0.5, "Sweep start arrival rate")
	lambdaMax := flag.Float64("lambda-max", 5.0, "Sweep end arrival rate (inclusive)")
	lambdaStep := flag.Float64("lambda-step", 0.5, "Sweep step")
	durationSec := flag.Float64("duration", 60.0, "Experiment length per arrival rate, in model seconds")
	timeScale := flag.Float64("scale", 0.01, "Wall seconds per model second (smaller = faster sweeps)")
	seed := flag.Int64("seed", 0, "Random seed (0 = time-based)")
	outputFile := flag.String("output", "", "Path to output JSON file (optional, prints to stdout if not specified)")
	verbose := flag.Bool("verbose", false, "Enable verbose logging from the driver")
	flag.Parse()

	config := simulator.DefaultConfig()
	if *configFile != "" {
		configData, err := os.ReadFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(configData, &config); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing config JSON: %v\n", err)
			os.Exit(1)
		}
	} else {
		config.Channels = *channels
		config.ServiceRate = *mu
		config.ArrivalRate = *lambdaMin
		config.RunDurationSec = *durationSec
		config.TimeScale = *timeScale
		config.RandomSeed = *seed
	}

	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *lambdaStep <= 0 || *lambdaMax < *lambdaMin {
		fmt.Fprintf(os.Stderr, "Invalid sweep: need lambda-step > 0 and lambda-max >= lambda-min\n")
		os.Exit(1)
	}

	lambdas := make([]float64, 0)
	for l := *lambdaMin; l <= *lambdaMax+1e-9; l += *lambdaStep {
		lambdas = append(lambdas, l)
	}

	driver, err := simulator.NewDriver(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating driver: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		driver.LogEvent = func(msg string) {
			fmt.Fprintf(os.Stderr, "[SIM] %s\n", msg)
		}
		fmt.Fprintf(os.Stderr, "Verbose logging enabled\n")
	}

	fmt.Fprintf(os.Stderr, "Sweeping %d arrival rates, %.1f model seconds each (n=%d, mu=%.3f, scale=%.4f)...\n",
		len(lambdas), config.RunDurationSec, config.Channels, config.ServiceRate, config.TimeScale)
	startTime := time.Now()

	points := driver.RunSweep(lambdas)

	elapsed := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "Sweep completed in %v\n", elapsed)

	// Summary table on stderr; full data goes to the JSON output
	fmt.Fprintf(os.Stderr, "%8s %8s %10s %10s %10s %10s\n",
		"lambda", "total", "Prej(sim)", "Prej(th)", "P0(sim)", "P0(th)")
	for _, p := range points {
		if p.Unavailable {
			fmt.Fprintf(os.Stderr, "%8.3f %8s %10s\n", p.Lambda, "-", "unavailable")
			continue
		}
		fmt.Fprintf(os.Stderr, "%8.3f %8d %10.4f %10.4f %10.4f %10.4f\n",
			p.Lambda, p.TotalRequests, p.EmpiricalPReject, p.TheoreticalPReject, p.EmpiricalP0, p.TheoreticalP0)
	}

	results := map[string]interface{}{
		"config":   config,
		"lambdas":  lambdas,
		"realTime": elapsed.Seconds(),
		"points":   points,
	}

	output, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling results: %v\n", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Results written to %s\n", *outputFile)
	} else {
		fmt.Println(string(output))
	}
}
