// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package batch runs many project renders from one YAML job file.
package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ManuGH/videostove/internal/config"
	"github.com/ManuGH/videostove/internal/validate"
)

// File is the document root of a job file.
type File struct {
	Batch Job `yaml:"batch"`
}

// Job describes one batch run. Relative paths are resolved against the
// directory of the job file.
type Job struct {
	PresetFile   string `yaml:"preset_file"`
	OverlayVideo string `yaml:"overlay_video"`
	FontFile     string `yaml:"font_file"`
	BgMusic      string `yaml:"bg_music"`
	GPUMode      string `yaml:"gpu_mode"`
	// Concurrency of zero uses the application default.
	Concurrency int       `yaml:"concurrency"`
	Projects    []Project `yaml:"projects"`
}

// Project is one render in a batch.
type Project struct {
	Name string `yaml:"name"`
	// Mode empty means detect from the preset or the directory contents.
	Mode      string `yaml:"mode"`
	InputsDir string `yaml:"inputs_dir"`
	Output    string `yaml:"output"`
}

// LoadFile reads, strictly decodes and validates a job file.
func LoadFile(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("read batch file: %w", err)
	}
	job, err := Parse(data)
	if err != nil {
		return Job{}, fmt.Errorf("batch file %s: %w", path, err)
	}
	job.resolve(filepath.Dir(path))
	return job, nil
}

// Parse decodes a job document. Unknown keys are rejected.
func Parse(data []byte) (Job, error) {
	var f File
	if err := config.DecodeStrict(data, &f); err != nil {
		return Job{}, err
	}
	if err := f.Batch.Validate(); err != nil {
		return Job{}, err
	}
	return f.Batch, nil
}

func (j *Job) resolve(dir string) {
	abs := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	abs(&j.PresetFile)
	abs(&j.OverlayVideo)
	abs(&j.FontFile)
	abs(&j.BgMusic)
	for i := range j.Projects {
		abs(&j.Projects[i].InputsDir)
		abs(&j.Projects[i].Output)
	}
}

// Validate checks the job for structural problems.
func (j Job) Validate() error {
	v := validate.New()
	if len(j.Projects) == 0 {
		v.AddError("projects", "at least one project is required", nil)
	}
	if j.GPUMode != "" {
		v.OneOf("gpu_mode", j.GPUMode, config.GPUModes)
	}
	if j.Concurrency < 0 {
		v.AddError("concurrency", "must not be negative", j.Concurrency)
	}
	seen := make(map[string]bool, len(j.Projects))
	for i, p := range j.Projects {
		pv := v.WithPrefix(fmt.Sprintf("projects[%d].", i))
		pv.NotEmpty("name", p.Name)
		pv.NotEmpty("inputs_dir", p.InputsDir)
		if p.Mode != "" {
			pv.OneOf("mode", p.Mode, config.ProjectTypes)
		}
		if seen[p.Name] {
			pv.AddError("name", "duplicate project name", p.Name)
		}
		seen[p.Name] = true
	}
	return v.Err()
}

// FontsDir is the directory of the configured font file, if any.
func (j Job) FontsDir() string {
	if j.FontFile == "" {
		return ""
	}
	return filepath.Dir(j.FontFile)
}
