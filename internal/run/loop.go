package run

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/winequality/internal/logging"
	"github.com/FlavioCFOliveira/winequality/internal/trainer"
)

// DefaultSaveEvery is the number of epochs between two checkpoints.
const DefaultSaveEvery = 100

var log = logging.New("run")

// Resume loads the checkpoint selected by startEpoch into t and returns its
// epoch. Without a checkpoint it returns 0 and leaves t untouched.
func Resume(t trainer.Trainer, folder string, startEpoch int) (int, error) {
	path := FindEpochFile(folder, startEpoch)
	epoch, err := ParseEpoch(path)
	if err != nil {
		return 0, err
	}
	if path == "" {
		log.Infof("No epoch to resume, starting from scratch.")
		return 0, nil
	}
	log.Infof("Resuming from epoch file: %s", path)
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		return 0, errors.Errorf("cannot read epoch file %s", path)
	}
	if err := t.LoadState(path); err != nil {
		return 0, err
	}
	return epoch, nil
}

// Loop trains for Epochs epochs after StartEpoch. Every SaveEvery epochs it
// writes a checkpoint to OutputFolder and validates.
type Loop struct {
	Trainer      trainer.Trainer
	OutputFolder string
	Epochs       int
	SaveEvery    int
	StartEpoch   int
}

// Run executes the loop and returns the last completed epoch. It stops
// between epochs once ctx is done.
func (l *Loop) Run(ctx context.Context) (int, error) {
	saveEvery := l.SaveEvery
	if saveEvery <= 0 {
		saveEvery = DefaultSaveEvery
	}
	current := l.StartEpoch
	for i := 0; i < l.Epochs; i++ {
		if err := ctx.Err(); err != nil {
			log.Warnf("Stopping after epoch %d: %v", current, err)
			return current, err
		}
		current++
		start := time.Now()
		if err := l.Trainer.Train(); err != nil {
			return current - 1, errors.Wrapf(err, "epoch %d", current)
		}
		log.Infof("Epoch %d took %dms to train.", current, time.Since(start).Milliseconds())

		if (i+1)%saveEvery == 0 {
			if err := l.Trainer.SaveState(EpochFile(l.OutputFolder, current)); err != nil {
				return current, err
			}
			if _, err := l.Trainer.Validate(); err != nil {
				return current, err
			}
		}
	}
	return current, nil
}
