// Package run lays out training output folders, finds epoch checkpoints and
// drives the epoch loop with its save and validation cadence.
package run

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	epochPrefix = "epoch_"
	epochSuffix = ".zip"
)

// LogTimeLayout formats the start time in log file names.
const LogTimeLayout = "2006-01-02 15-04-05"

// OutputFolder returns modelFolder/<preprocessorTag>/<trainerTag>.
func OutputFolder(modelFolder, preprocessorTag, trainerTag string) string {
	return filepath.Join(modelFolder, preprocessorTag, trainerTag)
}

// EpochFile returns the checkpoint path of epoch n in folder.
func EpochFile(folder string, n int) string {
	return filepath.Join(folder, epochPrefix+strconv.Itoa(n)+epochSuffix)
}

// LogFile returns the dated log file path for a run of kind starting at
// epoch, e.g. "2024-03-01 12-30-00_200_train.log".
func LogFile(folder string, start time.Time, epoch int, kind string) string {
	return filepath.Join(folder, start.Format(LogTimeLayout)+"_"+strconv.Itoa(epoch)+"_"+kind+".log")
}

// ParseEpoch returns the epoch number encoded in a checkpoint file name, or
// 0 for an empty path.
func ParseEpoch(path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	name := filepath.Base(path)
	us, dot := strings.IndexByte(name, '_'), strings.IndexByte(name, '.')
	if us < 0 || dot < us {
		return 0, errors.Errorf("%s: not an epoch file name", name)
	}
	n, err := strconv.Atoi(name[us+1 : dot])
	if err != nil {
		return 0, errors.Wrapf(err, "%s: not an epoch file name", name)
	}
	return n, nil
}

// FindLastEpochFile returns the checkpoint in folder with the highest epoch,
// or "" when there is none or the folder does not exist.
func FindLastEpochFile(folder string) string {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return ""
	}
	best, bestEpoch := "", -1
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, epochPrefix) || !strings.HasSuffix(name, epochSuffix) {
			continue
		}
		n, err := ParseEpoch(name)
		if err != nil {
			continue
		}
		if n > bestEpoch {
			best, bestEpoch = filepath.Join(folder, name), n
		}
	}
	return best
}

// FindEpochFile returns the checkpoint to resume from. A startEpoch of -1
// selects the latest one, which may be ""; any other value names the file
// directly whether or not it exists.
func FindEpochFile(folder string, startEpoch int) string {
	if startEpoch == -1 {
		return FindLastEpochFile(folder)
	}
	return EpochFile(folder, startEpoch)
}
