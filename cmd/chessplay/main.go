package main

import (
	"flag"
	"os"
	"runtime/pprof"

	"github.com/hailam/chessplay/internal/config"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/logging"
	"github.com/hailam/chessplay/internal/protocol"
)

var log = logging.New("main")

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	configPath = flag.String("config", "", "path to a TOML config file")
)

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatalf("could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
		log.Infof("CPU profiling enabled, writing to %s", profilePath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("could not load config %s: %v", *configPath, err)
	}
	logging.SetLevel(cfg.LogLevel, "")

	eng := engine.NewEngine(cfg.TTSizeMB)

	if cfg.NNUEWeights != "" {
		if err := eng.LoadNNUE(cfg.NNUEWeights); err != nil {
			log.Warningf("NNUE weights not loaded from %s: %v", cfg.NNUEWeights, err)
		}
	}

	loop := protocol.New(eng)
	loop.Run()
}
