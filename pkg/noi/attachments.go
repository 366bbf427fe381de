package noi

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// StageTempPrefix marks staged attachment files awaiting their final rename.
// The reconcile scan treats leftovers with this prefix as crash debris.
const StageTempPrefix = ".tmp-"

const thumbSubdir = "thumbs"
const thumbWidth = 320

// AttachmentStore writes uploaded files into a dedicated directory. Bytes are
// staged under a random temp name first and renamed into their final derived
// name only after the record row is committed, so a reader never sees a
// half-written attachment and an aborted submission leaves at most a temp
// file behind.
type AttachmentStore struct {
	Dir        string
	Thumbnails bool // generate thumbs/ previews for image attachments
}

func NewAttachmentStore(dir string) *AttachmentStore {
	return &AttachmentStore{Dir: dir, Thumbnails: true}
}

// Stage writes data to a uuid-named temp file inside the attachment
// directory and returns its path. The file is fsynced before return so the
// bytes are durable by the time the row commits.
func (a *AttachmentStore) Stage(data []byte) (string, error) {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(a.Dir, StageTempPrefix+uuid.NewString())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// Publish renames a staged file to its final attachment name.
func (a *AttachmentStore) Publish(stagedPath, filename string) error {
	final := filepath.Join(a.Dir, filepath.Base(filename))
	if err := os.Rename(stagedPath, final); err != nil {
		return err
	}
	if a.Thumbnails && isImageName(filename) {
		if err := a.writeThumbnail(final, filename); err != nil {
			// preview generation must never fail a submission
			log.Printf("thumbnail for %s: %v", filename, err)
		}
	}
	return nil
}

// Discard removes a staged file after a failed submission.
func (a *AttachmentStore) Discard(stagedPath string) {
	if err := os.Remove(stagedPath); err != nil && !os.IsNotExist(err) {
		log.Printf("discard staged attachment %s: %v", stagedPath, err)
	}
}

// Path returns the full path of a stored attachment.
func (a *AttachmentStore) Path(filename string) string {
	return filepath.Join(a.Dir, filepath.Base(filename))
}

// Find locates the stored attachment for a serial without knowing its
// extension. Returns the filename and true when exactly one match exists.
func (a *AttachmentStore) Find(serialNo string) (string, bool) {
	base := filepath.Base(serialNo)
	if base != serialNo || serialNo == "" {
		return "", false
	}
	matches, err := filepath.Glob(filepath.Join(a.Dir, serialNo+".*"))
	if err != nil || len(matches) != 1 {
		return "", false
	}
	return filepath.Base(matches[0]), true
}

// Exists reports whether the named attachment is present.
func (a *AttachmentStore) Exists(filename string) bool {
	_, err := os.Stat(a.Path(filename))
	return err == nil
}

func isImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func (a *AttachmentStore) writeThumbnail(srcPath, filename string) error {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	dir := filepath.Join(a.Dir, thumbSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return imaging.Save(thumb, filepath.Join(dir, filepath.Base(filename)))
}
