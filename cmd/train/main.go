// Command train downloads the wine quality data, preprocesses it and trains
// the network, resuming from the latest checkpoint when there is one.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/winequality/internal/fetch"
	"github.com/FlavioCFOliveira/winequality/internal/logging"
	"github.com/FlavioCFOliveira/winequality/internal/monitor"
	"github.com/FlavioCFOliveira/winequality/internal/net"
	"github.com/FlavioCFOliveira/winequality/internal/preprocess"
	"github.com/FlavioCFOliveira/winequality/internal/run"
	"github.com/FlavioCFOliveira/winequality/internal/trainer"
)

var log = logging.New("train")

type options struct {
	rawFolder           string
	preprocessingFolder string
	modelFolder         string
	startEpoch          int
	epochs              int
	saveEvery           int
	seed                int64
	ui                  string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.rawFolder, "rf", "data/raw", "folder with the raw data")
	flag.StringVar(&o.rawFolder, "rawDataFolder", "data/raw", "folder with the raw data")
	flag.StringVar(&o.preprocessingFolder, "pf", "data/preprocessed", "folder for the preprocessed data")
	flag.StringVar(&o.preprocessingFolder, "preprocessingFolder", "data/preprocessed", "folder for the preprocessed data")
	flag.StringVar(&o.modelFolder, "mf", "data/model", "folder for the trained models")
	flag.StringVar(&o.modelFolder, "modelFolder", "data/model", "folder for the trained models")
	flag.IntVar(&o.startEpoch, "se", -1, "epoch to resume, -1 uses the last available")
	flag.IntVar(&o.startEpoch, "startEpoch", -1, "epoch to resume, -1 uses the last available")
	flag.IntVar(&o.epochs, "e", 1000, "number of epochs to train")
	flag.IntVar(&o.epochs, "epochs", 1000, "number of epochs to train")
	flag.IntVar(&o.saveEvery, "saveEvery", run.DefaultSaveEvery, "epochs between checkpoints")
	flag.Int64Var(&o.seed, "seed", preprocess.DefaultSeed, "random seed for shuffling and weight init")
	flag.StringVar(&o.ui, "ui", "http://localhost:9000", "monitoring UI url, empty disables")
	flag.Parse()
	return o
}

func main() {
	os.Exit(train(parseFlags()))
}

func train(o options) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outputFolder := run.OutputFolder(o.modelFolder, preprocess.Tag, trainer.Tag)
	if err := os.MkdirAll(outputFolder, 0o755); err != nil {
		log.Errorf("Cannot create output folder: %v", err)
		return 1
	}

	// the log file name carries the epoch we resume from
	epoch, err := run.ParseEpoch(run.FindEpochFile(outputFolder, o.startEpoch))
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}
	started := time.Now()
	logPath := run.LogFile(outputFolder, started, epoch, "train")
	logFile, err := logging.AddFile(logPath)
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}
	defer logFile.Close()
	log.Infof("Writing output to %s", outputFolder)
	log.Infof("Using log file %s", logPath)

	if err := fetch.New(o.rawFolder).Fetch(ctx); err != nil {
		log.Errorf("Fetching data failed: %v", err)
		return 1
	}

	pre := preprocess.NewStandardizing(o.rawFolder, o.preprocessingFolder)
	pre.Seed = o.seed
	if err := pre.Preprocess(); err != nil {
		log.Errorf("Preprocessing failed: %v", err)
		return 1
	}
	if err := pre.WriteLog(outputFolder); err != nil {
		log.Errorf("Writing preprocessing reports failed: %v", err)
		return 1
	}

	router := monitor.NewRouter(o.ui)
	defer router.Close()
	worker, _ := os.Hostname()
	session := fmt.Sprintf("%s_%s_%s", pre.Tag(), trainer.Tag, started.Format("20060102-150405"))
	stats := monitor.NewStatsListener(router, session, worker)

	cfg := trainer.DefaultConfig()
	cfg.Seed = o.seed
	t, err := trainer.NewMultilayer(o.preprocessingFolder, cfg, stats)
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}
	epochLog, err := net.NewCSVLogger(filepath.Join(outputFolder, "epochs.csv"))
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}
	defer epochLog.Close()
	t.AddListener(epochLog)

	start, err := run.Resume(t, outputFolder, o.startEpoch)
	if err != nil {
		log.Errorf("Cannot resume: %v", err)
		return 1
	}

	loop := &run.Loop{
		Trainer:      t,
		OutputFolder: outputFolder,
		Epochs:       o.epochs,
		SaveEvery:    o.saveEvery,
		StartEpoch:   start,
	}
	last, err := loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Warnf("Interrupted after epoch %d", last)
		return 130
	}
	if err != nil {
		log.Errorf("Training failed after epoch %d: %v", last, err)
		return 1
	}
	log.Infof("Finished epoch %d in %s", last, time.Since(started).Round(time.Second))
	return 0
}
