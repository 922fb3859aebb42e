package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadPromptFile reads the analysis instruction from ai.promptFile when set.
// The resume text is appended after a blank line.
func (c *Config) loadPromptFile() error {
	if c.AI.PromptFile == "" {
		return nil
	}
	content, err := readPromptFile(c.AI.PromptFile)
	if err != nil {
		return err
	}
	c.AI.Instruction = content + "\n\n"
	return nil
}

func readPromptFile(filePath string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for prompt file '%s': %w", filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("prompt file not found: %s", absPath)
		}
		return "", fmt.Errorf("failed to read prompt file '%s': %w", absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("prompt file '%s' is empty", absPath)
	}

	log.Printf("[CONFIG] Successfully loaded analysis prompt from file: %s (%d characters)", absPath, len(trimmed))
	return trimmed, nil
}
