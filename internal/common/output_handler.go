package common

import (
	"fmt"
	"io"
	"os"

	"jobscout/internal/errors"
	"jobscout/internal/formatters"
)

// CommandConfig holds common configuration for commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler handles formatting and writing output
type OutputHandler struct {
	fileProcessor *FileProcessor
	registry      *formatters.FormatterRegistry
	stdout        io.Writer
	logger        *errors.Logger
}

// NewOutputHandler creates an output handler writing to stdout when no file is set.
func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return NewOutputHandlerTo(os.Stdout, logger)
}

// NewOutputHandlerTo is NewOutputHandler with an explicit standard output.
func NewOutputHandlerTo(stdout io.Writer, logger *errors.Logger) *OutputHandler {
	if logger == nil {
		logger = errors.Nop()
	}
	return &OutputHandler{
		fileProcessor: NewFileProcessor(logger),
		registry:      formatters.GlobalRegistry,
		stdout:        stdout,
		logger:        logger,
	}
}

// HandleOutput formats data and writes it to the specified output
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	if err := oh.fileProcessor.ValidateOutputFile(config.OutputFile); err != nil {
		return err
	}

	output, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	if config.OutputFile != "" {
		if err := oh.fileProcessor.WriteFile(config.OutputFile, output); err != nil {
			return err
		}
		oh.logger.Info("Output written successfully",
			"file", config.OutputFile, "format", config.OutputFormat)
		return nil
	}

	if _, err := io.WriteString(oh.stdout, output); err != nil {
		return errors.NewIOError("OUTPUT_WRITE_FAILED", "Cannot write output", err)
	}
	return nil
}

// GetSupportedFormats returns all supported output formats
func (oh *OutputHandler) GetSupportedFormats() []string {
	return oh.registry.GetSupportedFormats()
}
