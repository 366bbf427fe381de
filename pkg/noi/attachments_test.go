package noi

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentStageAndPublish(t *testing.T) {
	dir := t.TempDir()
	att := NewAttachmentStore(dir)
	att.Thumbnails = false

	staged, err := att.Stage([]byte("%PDF-1.4 content"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(staged), StageTempPrefix))

	require.NoError(t, att.Publish(staged, "CN-001.pdf"))
	assert.True(t, att.Exists("CN-001.pdf"))
	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err), "staged temp must be gone after publish")

	data, err := os.ReadFile(att.Path("CN-001.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 content", string(data))
}

func TestAttachmentDiscardRemovesStaged(t *testing.T) {
	att := NewAttachmentStore(t.TempDir())
	staged, err := att.Stage([]byte("x"))
	require.NoError(t, err)
	att.Discard(staged)
	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err))
}

func TestAttachmentFind(t *testing.T) {
	att := NewAttachmentStore(t.TempDir())
	att.Thumbnails = false
	staged, err := att.Stage([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, att.Publish(staged, "CN-007.jpg"))

	name, ok := att.Find("CN-007")
	require.True(t, ok)
	assert.Equal(t, "CN-007.jpg", name)

	_, ok = att.Find("CN-008")
	assert.False(t, ok)

	// path traversal in the serial never resolves
	_, ok = att.Find("../CN-007")
	assert.False(t, ok)
}

func TestAttachmentPublishSanitizesName(t *testing.T) {
	dir := t.TempDir()
	att := NewAttachmentStore(dir)
	att.Thumbnails = false
	staged, err := att.Stage([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, att.Publish(staged, "../escape.pdf"))
	assert.True(t, att.Exists("escape.pdf"))
	_, err = os.Stat(filepath.Join(dir, "..", "escape.pdf"))
	assert.True(t, os.IsNotExist(err))
}
