package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"design-drop/internal/config"
	"design-drop/internal/model"
)

// maxFieldBytes caps the size of the name and email text fields.
const maxFieldBytes = 64 << 10

// upload is the decoded body of POST /upload.
type upload struct {
	Name  string
	Email string
	Files []model.UploadedFile
}

// receiveUpload streams the multipart body of r and buffers each file part
// in memory, enforcing the count and size limits in limits as it reads.
// Parts under any form name other than name, email and file are skipped.
func receiveUpload(w http.ResponseWriter, r *http.Request, limits config.UploadConfig) (*upload, error) {
	if limits.MaxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limits.MaxRequestBytes)
	}

	mr, err := r.MultipartReader()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, pipelineErr(NoFilesProvided, StateStarted, err)
	}
	if err != nil {
		return nil, pipelineErr(MalformedUpload, StateStarted, err)
	}

	up := &upload{}
	var sawName, sawEmail bool
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readErr(err)
		}

		switch part.FormName() {
		case "name":
			v, err := readField(part)
			if err != nil {
				return nil, err
			}
			if !sawName {
				up.Name, sawName = v, true
			}
		case "email":
			v, err := readField(part)
			if err != nil {
				return nil, err
			}
			if !sawEmail {
				up.Email, sawEmail = v, true
			}
		case "file":
			if part.FileName() == "" {
				continue
			}
			if len(up.Files) >= limits.MaxFiles {
				return nil, pipelineErr(TooManyFiles, StateStarted,
					fmt.Errorf("more than %d files", limits.MaxFiles))
			}
			f, err := readFile(part, limits.MaxFileBytes)
			if err != nil {
				return nil, err
			}
			up.Files = append(up.Files, f)
		}
	}

	if len(up.Files) == 0 {
		return nil, pipelineErr(NoFilesProvided, StateStarted, nil)
	}
	return up, nil
}

func readField(part *multipart.Part) (string, error) {
	b, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
	if err != nil {
		return "", readErr(err)
	}
	if len(b) > maxFieldBytes {
		return "", pipelineErr(PayloadTooLarge, StateStarted,
			fmt.Errorf("field %q exceeds %d bytes", part.FormName(), maxFieldBytes))
	}
	return string(b), nil
}

func readFile(part *multipart.Part, maxBytes int64) (model.UploadedFile, error) {
	name := part.FileName()

	var src io.Reader = part
	if maxBytes > 0 {
		src = io.LimitReader(part, maxBytes+1)
	}
	content, err := io.ReadAll(src)
	if err != nil {
		return model.UploadedFile{}, readErr(err)
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return model.UploadedFile{}, pipelineErr(PayloadTooLarge, StateStarted,
			fmt.Errorf("file %q exceeds %d bytes", name, maxBytes))
	}

	return model.UploadedFile{
		Filename:    name,
		ContentType: partContentType(part.Header.Get("Content-Type"), name),
		Content:     content,
	}, nil
}

// partContentType prefers the part's declared type, then the type implied
// by the filename extension.
func partContentType(declared, filename string) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

func readErr(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return pipelineErr(PayloadTooLarge, StateStarted, err)
	}
	return pipelineErr(MalformedUpload, StateStarted, err)
}
