package usecase

import (
	"path/filepath"

	"go.uber.org/zap"
)

// MergeResult summarizes a merge.
type MergeResult struct {
	Output string
	Files  int
	Lines  int
}

// Merge concatenates every *.jsonl file of dir into outPath in listing order.
// Blank lines are dropped and outPath itself is never read back.
func Merge(dir, outPath string, logger *zap.Logger) (*MergeResult, error) {
	files, err := listJSONL(dir, outPath)
	if err != nil {
		return nil, err
	}

	f, w, err := createOutput(outPath)
	if err != nil {
		return nil, err
	}
	res := &MergeResult{Output: outPath}
	for _, path := range files {
		logger.Info("merging file", zap.String("file", filepath.Base(path)))
		err := eachFileLine(path, func(_ int, line []byte) error {
			if _, err := w.Write(line); err != nil {
				return err
			}
			res.Lines++
			return w.WriteByte('\n')
		})
		if err != nil {
			closeOutput(f, w)
			return res, err
		}
		res.Files++
	}
	if err := closeOutput(f, w); err != nil {
		return res, err
	}

	logger.Info("merge complete", zap.String("output", outPath), zap.Int("files", res.Files), zap.Int("lines", res.Lines))
	return res, nil
}
