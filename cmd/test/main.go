// Command test evaluates a trained checkpoint on the testing split.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/FlavioCFOliveira/winequality/internal/logging"
	"github.com/FlavioCFOliveira/winequality/internal/monitor"
	"github.com/FlavioCFOliveira/winequality/internal/preprocess"
	"github.com/FlavioCFOliveira/winequality/internal/run"
	"github.com/FlavioCFOliveira/winequality/internal/trainer"
)

var log = logging.New("test")

func main() {
	var preprocessingFolder, modelFolder, outputFolder, ui string
	var startEpoch int
	flag.StringVar(&preprocessingFolder, "pf", "data/preprocessed", "folder with the preprocessed data")
	flag.StringVar(&preprocessingFolder, "preprocessingFolder", "data/preprocessed", "folder with the preprocessed data")
	flag.StringVar(&modelFolder, "mf", "data/model", "model folder, used when no output folder is given")
	flag.StringVar(&modelFolder, "modelFolder", "data/model", "model folder, used when no output folder is given")
	flag.StringVar(&outputFolder, "of", "", "folder with the trained model to test")
	flag.StringVar(&outputFolder, "outputFolder", "", "folder with the trained model to test")
	flag.IntVar(&startEpoch, "se", -1, "epoch to test, -1 uses the last available")
	flag.IntVar(&startEpoch, "startEpoch", -1, "epoch to test, -1 uses the last available")
	flag.StringVar(&ui, "ui", "", "monitoring UI url, empty disables")
	flag.Parse()

	if outputFolder == "" {
		outputFolder = run.OutputFolder(modelFolder, preprocess.Tag, trainer.Tag)
	}
	os.Exit(test(preprocessingFolder, outputFolder, startEpoch, ui))
}

func test(preprocessingFolder, outputFolder string, startEpoch int, ui string) int {
	epochFile := run.FindEpochFile(outputFolder, startEpoch)
	if epochFile == "" {
		log.Errorf("No epoch file in %s", outputFolder)
		return 1
	}
	epoch, err := run.ParseEpoch(epochFile)
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}

	started := time.Now()
	logPath := run.LogFile(outputFolder, started, epoch, "test")
	logFile, err := logging.AddFile(logPath)
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}
	defer logFile.Close()
	log.Infof("Using log file %s", logPath)

	router := monitor.NewRouter(ui)
	defer router.Close()
	worker, _ := os.Hostname()
	session := fmt.Sprintf("%s_%s_test_%s", preprocess.Tag, trainer.Tag, started.Format("20060102-150405"))

	t, err := trainer.NewMultilayer(preprocessingFolder, trainer.DefaultConfig(), monitor.NewStatsListener(router, session, worker))
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}
	if _, err := run.Resume(t, outputFolder, startEpoch); err != nil {
		log.Errorf("Cannot load model: %v", err)
		return 1
	}
	if _, err := t.Test(); err != nil {
		log.Errorf("Testing failed: %v", err)
		return 1
	}
	return 0
}
