package jobs

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ArchiveJob packages a completed job's rendered pages into a ZIP next to
// them and returns its path
func (q *Queue) ArchiveJob(jobID string) (string, error) {
	job := q.GetJob(jobID)
	if job == nil {
		return "", fmt.Errorf("job not found: %s", jobID)
	}
	if job.Status != StatusCompleted {
		return "", fmt.Errorf("job %s is %s, only completed jobs can be archived", jobID, job.Status)
	}

	zipPath := filepath.Join(q.outputDir, job.ID+".zip")

	f, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	defer w.Close()

	for _, page := range job.Pages {
		if err := addFileToZip(w, page); err != nil {
			return "", fmt.Errorf("failed to archive %s: %w", filepath.Base(page), err)
		}
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	return zipPath, nil
}

func addFileToZip(w *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := w.Create(filepath.Base(path))
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)
	return err
}
