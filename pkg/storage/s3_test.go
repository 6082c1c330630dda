package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateImageFilename(t *testing.T) {
	assert.True(t, ValidateImageFilename("cover.png"))
	assert.True(t, ValidateImageFilename("photo.JPG"))
	assert.True(t, ValidateImageFilename("banner.webp"))
	assert.False(t, ValidateImageFilename("video.mp4"))
	assert.False(t, ValidateImageFilename("anim.gif"))
	assert.False(t, ValidateImageFilename("archive.zip"))
	assert.False(t, ValidateImageFilename("noextension"))
}

func TestContentTypeForFilename(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentTypeForFilename("a.jpg"))
	assert.Equal(t, "image/png", ContentTypeForFilename("a.png"))
	assert.Equal(t, "application/octet-stream", ContentTypeForFilename("a.bin"))
}

func TestMediaKey(t *testing.T) {
	assert.Equal(t, "events/ACS2025/cover.png", MediaKey(FolderEvents, "ACS2025", "cover.png"))
	assert.Equal(t, "speakers/Dr_Sharma/head_shot.jpg", MediaKey(FolderSpeakers, "Dr Sharma", "head shot.jpg"))
	// path traversal in the filename is stripped to the base name
	assert.Equal(t, "profiles/u1/evil.png", MediaKey(FolderProfiles, "u1", "../../evil.png"))
}
