package api

import (
	"mime/multipart"
	"os"

	"github.com/gin-gonic/gin"
)

// tempUploadPattern names scoped upload artifacts in the system temp dir.
const tempUploadPattern = "ocr-agent-upload-*"

// spoolUpload writes the upload to a scoped temporary file and reads it
// back fully into memory. The returned cleanup removes the file and must
// run on every exit path; callers defer it immediately.
func spoolUpload(c *gin.Context, file *multipart.FileHeader, suffix string) ([]byte, func(), error) {
	tmp, err := os.CreateTemp("", tempUploadPattern+suffix)
	if err != nil {
		return nil, nil, err
	}
	path := tmp.Name()
	tmp.Close()

	cleanup := func() { os.Remove(path) }

	if err := c.SaveUploadedFile(file, path); err != nil {
		cleanup()
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return data, cleanup, nil
}
