package net

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// CSVLogger appends one row per epoch (epoch, loss, time_seconds) to a CSV file.
type CSVLogger struct {
	BaseCallback
	Filename string

	file   *os.File
	writer *csv.Writer
	start  time.Time
}

// NewCSVLogger opens filename for appending and writes the header if the
// file is new.
func NewCSVLogger(filename string) (*CSVLogger, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "CSVLogger: failed to open file %s", filename)
	}
	c := &CSVLogger{
		Filename: filename,
		file:     file,
		writer:   csv.NewWriter(file),
		start:    time.Now(),
	}

	info, err := file.Stat()
	if err == nil && info.Size() == 0 {
		c.writer.Write([]string{"epoch", "loss", "time_seconds"})
		c.writer.Flush()
	}
	return c, c.writer.Error()
}

func (c *CSVLogger) OnEpochEnd(epoch int, loss float64, n *Network) {
	if c.writer == nil {
		return
	}

	record := []string{
		strconv.Itoa(epoch),
		fmt.Sprintf("%.6f", loss),
		fmt.Sprintf("%.2f", time.Since(c.start).Seconds()),
	}
	c.writer.Write(record)
	c.writer.Flush()
}

// Close flushes and closes the file.
func (c *CSVLogger) Close() error {
	if c.file == nil {
		return nil
	}
	c.writer.Flush()
	err := c.file.Close()
	c.file = nil
	c.writer = nil
	return err
}
