// This file handles infrastructure-level loading of embedded dictionaries:
// censored words for moderation and scripted lines for personas.
package runtime

import (
	bbserrors "bbs-lab/errors"
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"
)

//go:embed censored/*
var censoredFS embed.FS

//go:embed personas/*
var personaFS embed.FS

// LoadCensoredWords loads the embedded moderation dictionaries.
func LoadCensoredWords() (*CensoredData, error) {
	return NewCensoredLoader(censoredFS).LoadAll("censored")
}

// LoadPersona loads the embedded script of one automated persona.
func LoadPersona(name string) ([]string, error) {
	return LoadPersonaLines(personaFS, "personas/"+name+".txt")
}

// CensoredData carries the result of the loading process including
// metadata for logging.
type CensoredData struct {
	Words     []string
	Languages []string
}

// CensoredLoader reads blacklisted words from embedded files.
type CensoredLoader struct {
	fs embed.FS
}

func NewCensoredLoader(f embed.FS) *CensoredLoader {
	return &CensoredLoader{fs: f}
}

// LoadAll scans the directory in the embedded FS, treating each .txt file
// as a language dictionary, and collects a unique word list.
func (l *CensoredLoader) LoadAll(path string) (*CensoredData, error) {
	entries, err := fs.ReadDir(l.fs, path)
	if err != nil {
		return nil, err
	}

	var languages []string
	uniqueWords := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		lines, err := readLines(l.fs, path+"/"+entry.Name())
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			uniqueWords[line] = struct{}{}
		}
	}

	if len(uniqueWords) == 0 {
		return nil, bbserrors.ErrEmptyWords
	}

	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}
	return &CensoredData{Words: words, Languages: languages}, nil
}

// LoadPersonaLines reads one persona's scripted lines, in file order.
func LoadPersonaLines(f embed.FS, path string) ([]string, error) {
	lines, err := readLines(f, path)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, bbserrors.ErrEmptyWords
	}
	return lines, nil
}

// readLines handles different line endings (\n vs \r\n) correctly, which
// strings.Split would not.
func readLines(f embed.FS, path string) ([]string, error) {
	data, err := f.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
