package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MimeLyc/subtitle-batch-translator/internal/subtitle"
	"github.com/MimeLyc/subtitle-batch-translator/pkg/file"
	"github.com/MimeLyc/subtitle-batch-translator/pkg/log"
)

// Sidecar files holding manual [id]\ntext edits next to a subtitle.
const (
	PreOverlayExt  = ".pre.txt"
	PostOverlayExt = ".post.txt"
)

// FindInputs lists the subtitle files under dir.
func FindInputs(dir string) ([]string, error) {
	paths, err := file.FindSubtitles(dir, subtitle.IsSupported)
	if err != nil {
		return nil, WrapError(err, ErrFileRead, "failed to scan directory").WithContext("dir", dir)
	}
	return paths, nil
}

// LoadInputs reads the files at paths into FileInputs named relative to
// baseDir, attaching any overlay sidecars and marking names in skip.
func LoadInputs(baseDir string, paths []string, skip map[string]bool) ([]FileInput, error) {
	inputs := make([]FileInput, 0, len(paths))
	for _, path := range paths {
		name, err := filepath.Rel(baseDir, path)
		if err != nil {
			name = filepath.Base(path)
		}
		name = filepath.ToSlash(name)

		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, WrapError(err, ErrFileRead, "failed to read subtitle").WithContext("file", path)
		}

		in := FileInput{
			Name: name,
			Raw:  raw,
			Skip: skip[name] || skip[filepath.Base(path)],
		}
		if in.PreOverlay, err = readOptional(file.ReplaceExt(path, PreOverlayExt)); err != nil {
			return nil, err
		}
		if in.PostOverlay, err = readOptional(file.ReplaceExt(path, PostOverlayExt)); err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", WrapError(err, ErrFileRead, "failed to read overlay").WithContext("file", path)
	}
	return subtitle.Decode(data), nil
}

// WriteOutputs writes completed results as trans_<name> under outputDir.
// Incomplete results are written too when partial is set. It returns the
// paths written.
func WriteOutputs(outputDir string, results []FileResult, partial bool) ([]string, error) {
	var written []string
	for _, r := range results {
		if r.Skipped || r.TotalUnits == 0 && r.Output == "" {
			continue
		}
		if !r.Completed() && !partial {
			log.Info("%s: not complete (%d/%d), output withheld", r.Name, r.CompletedUnits, r.TotalUnits)
			continue
		}

		path := file.OutputPath(outputDir, r.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return written, WrapError(err, ErrFileWrite, "failed to create output directory").WithContext("dir", filepath.Dir(path))
		}
		if err := os.WriteFile(path, []byte(r.Output), 0o644); err != nil {
			return written, WrapError(err, ErrFileWrite, fmt.Sprintf("failed to write %s", path))
		}
		log.Info("%s: wrote %s", r.Name, path)
		written = append(written, path)
	}
	return written, nil
}
