package pipeline

import (
	"fmt"
	"os"

	"github.com/bio-mcp/bedtools-mcp/pkg/domain/errors"
	"github.com/bio-mcp/bedtools-mcp/pkg/tools"
)

// ValidatedFile is an input that existed and was within the size limit at
// validation time. The check races with the later copy; that gap is an
// accepted limitation.
type ValidatedFile struct {
	Param tools.FileParam
	Path  string
	Size  int64
}

// validate resolves and checks every declared file parameter before any
// subprocess concern is touched. Paths are not normalized.
func (p *Pipeline) validate(tool *tools.Tool, args map[string]any) ([]ValidatedFile, error) {
	files := make([]ValidatedFile, 0, len(tool.Files))

	for _, fp := range tool.Files {
		path, err := tools.RequiredString(args, fp.Name)
		if err != nil {
			return nil, errors.New(errors.CodeInternalError, domain,
				fmt.Sprintf("Error: %v", err), err)
		}

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return nil, errors.New(errors.CodeNotFound, domain, notFoundMessage(fp, path), err)
		}
		if info.Size() > p.cfg.MaxFileSize {
			return nil, errors.New(errors.CodeFileTooLarge, domain, tooLargeMessage(fp, p.cfg.MaxFileSize), nil)
		}

		files = append(files, ValidatedFile{Param: fp, Path: path, Size: info.Size()})
	}

	return files, nil
}

func notFoundMessage(fp tools.FileParam, path string) string {
	if fp.Label != "" {
		return fmt.Sprintf("Input file %s not found: %s", fp.Label, path)
	}
	return fmt.Sprintf("Input file not found: %s", path)
}

func tooLargeMessage(fp tools.FileParam, max int64) string {
	if fp.Label != "" {
		return fmt.Sprintf("File %s too large. Maximum size: %d bytes", fp.Label, max)
	}
	return fmt.Sprintf("File too large. Maximum size: %d bytes", max)
}
