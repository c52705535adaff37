package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bio-mcp/bedtools-mcp/pkg/domain/errors"
)

// stagingPrefix names invocation-scoped directories so the janitor can
// recognize orphans left behind by crashed processes.
const stagingPrefix = "bio-mcp-bedtools-"

// stage copies validated inputs into a fresh, exclusively owned directory.
// os.MkdirTemp guarantees collision-free allocation under concurrent
// invocations. The directory path is returned even when staging fails so
// the caller can register cleanup before inspecting the error.
func (p *Pipeline) stage(files []ValidatedFile) (string, []string, error) {
	dir, err := os.MkdirTemp(p.cfg.TempDir, stagingPrefix+"*")
	if err != nil {
		return "", nil, errors.New(errors.CodeInternalError, domain,
			fmt.Sprintf("Error: failed to create staging directory: %v", err), err)
	}

	staged := make([]string, 0, len(files))
	var bytesStaged int64
	for _, f := range files {
		dst := filepath.Join(dir, filepath.Base(f.Path))
		if err := copyFile(f.Path, dst); err != nil {
			return dir, nil, errors.New(errors.CodeInternalError, domain,
				fmt.Sprintf("Error: failed to stage %s: %v", f.Path, err), err)
		}
		staged = append(staged, dst)
		bytesStaged += f.Size
	}

	p.metrics.RecordStagedBytes(bytesStaged)
	p.logger.Debug("staged input files", "dir", dir, "files", len(staged), "bytes", bytesStaged)
	return dir, staged, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
