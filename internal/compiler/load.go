package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/odegen/internal/ir"
)

// Load error codes (E001-E009), shared with the CLI.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeCompile     = "E007" // Model compilation failed
)

// LoadResult contains the models loaded from a file or directory.
type LoadResult struct {
	Models    []ir.ModelSpec
	Value     cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files read
}

// Model returns the model with the given name.
// An empty name selects the only model when exactly one is defined.
func (r *LoadResult) Model(name string) (ir.ModelSpec, error) {
	if name == "" {
		if len(r.Models) == 1 {
			return r.Models[0], nil
		}
		return ir.ModelSpec{}, fmt.Errorf("%d models defined; choose one by name", len(r.Models))
	}
	for _, m := range r.Models {
		if m.Name == name {
			return m, nil
		}
	}
	return ir.ModelSpec{}, fmt.Errorf("model %q not found", name)
}

// LoadError represents an error that occurred during model loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads CUE model definitions from a single .cue file or from every
// .cue file under a directory, and compiles each entry under the top-level
// "model" field.
func Load(path string) (*LoadResult, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}
	}

	var (
		value cue.Value
		count int
	)
	if info.IsDir() {
		value, count, err = loadDir(path)
	} else {
		value, count, err = loadFile(path)
	}
	if err != nil {
		return nil, err
	}

	specs, err := CompileModels(value)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return &LoadResult{Models: specs, Value: value, FileCount: count}, nil
}

func loadFile(path string) (cue.Value, int, error) {
	return compileFiles(cuecontext.New(), []string{path})
}

// loadDir unifies every .cue file under dir. Files are compiled one at a
// time, so a package clause is optional.
func loadDir(dir string) (cue.Value, int, error) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}
	return compileFiles(cuecontext.New(), cueFiles)
}

func compileFiles(ctx *cue.Context, paths []string) (cue.Value, int, error) {
	var value cue.Value
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return cue.Value{}, 0, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
		}
		v := ctx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return cue.Value{}, 0, buildError(err)
		}
		if i == 0 {
			value = v
		} else {
			value = value.Unify(v)
		}
	}
	if err := value.Validate(); err != nil {
		return cue.Value{}, 0, buildError(err)
	}
	return value, len(paths), nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func buildError(err error) *LoadError {
	le := &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	var ce *CompileError
	if errors.As(formatCUEError(err), &ce) {
		le.Pos = ce.Pos
	}
	return le
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeCompile,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}
