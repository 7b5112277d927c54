package net

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CSVLogger logs the loss of every epoch to a CSV file.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool

	file   *os.File
	writer *csv.Writer
	start  time.Time
	err    error
}

// NewCSVLogger creates a new CSVLogger.
func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
	}
}

// Err returns the first error the logger hit, if any.
func (c *CSVLogger) Err() error {
	return c.err
}

func (c *CSVLogger) OnTrainBegin(m *Model) {
	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.Filename, mode, 0644)
	if err != nil {
		c.err = fmt.Errorf("csv logger: failed to open file %s: %w", c.Filename, err)
		return
	}
	c.file = file
	c.writer = csv.NewWriter(file)
	c.start = time.Now()

	// Write header if not appending or if file is empty
	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		c.write([]string{"epoch", "loss", "params", "time_seconds"})
	}
}

func (c *CSVLogger) OnEpochEnd(epoch int, loss float64, m *Model) {
	if c.writer == nil {
		return
	}
	c.write([]string{
		strconv.Itoa(epoch),
		strconv.FormatFloat(loss, 'g', 10, 64),
		strconv.Itoa(m.NumParams()),
		fmt.Sprintf("%.2f", time.Since(c.start).Seconds()),
	})
}

func (c *CSVLogger) OnTrainEnd(m *Model) {
	if c.file != nil {
		c.writer.Flush()
		c.file.Close()
		c.file = nil
		c.writer = nil
	}
}

func (c *CSVLogger) write(record []string) {
	if err := c.writer.Write(record); err != nil && c.err == nil {
		c.err = fmt.Errorf("csv logger: failed to write record: %w", err)
	}
	c.writer.Flush()
}
