package validation

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime/multipart"
	"regexp"
	"strconv"
	"time"
)

const (
	FieldPlanche = "planche"
	FieldAudios  = "audios"

	MaxFileSize      = 10 * 1024 * 1024
	MaxFilesPerField = 10
)

var (
	ErrFieldNotAllowed = fmt.Errorf("upload field not allowed")
	ErrBadFileType     = fmt.Errorf("invalid file type")
	ErrFileTooLarge    = fmt.Errorf("file too large")
	ErrTooManyFiles    = fmt.Errorf("too many files")
)

var allowedFileTypes = map[string]*regexp.Regexp{
	FieldPlanche: regexp.MustCompile(`(?i)\.(jpg|jpeg|png|pdf)$`),
	FieldAudios:  regexp.MustCompile(`(?i)\.(mp3|mp4|ogg|3gpp|wav|m4a)$`),
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	unsafeRe     = regexp.MustCompile(`[^\w.-]`)
)

func CheckUpload(field string, headers []*multipart.FileHeader) error {
	pattern, ok := allowedFileTypes[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrFieldNotAllowed, field)
	}
	if len(headers) > MaxFilesPerField {
		return fmt.Errorf("%w: field %s", ErrTooManyFiles, field)
	}
	for _, header := range headers {
		if !pattern.MatchString(header.Filename) {
			return fmt.Errorf("%w: %s", ErrBadFileType, header.Filename)
		}
		if header.Size > MaxFileSize {
			return fmt.Errorf("%w: %s", ErrFileTooLarge, header.Filename)
		}
	}
	return nil
}

// SafeFileName strips everything outside [A-Za-z0-9_.-] so the name can
// be embedded in a storage key.
func SafeFileName(name string) string {
	name = whitespaceRe.ReplaceAllString(name, "_")
	return unsafeRe.ReplaceAllString(name, "")
}

// BuildFileKey produces a unique flat storage key for one uploaded file:
// <field>-<timestamp>-<random>-<sanitized original name>.
func BuildFileKey(field, filename string) string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return field + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + hex.EncodeToString(suffix) + "-" + SafeFileName(filename)
}
