package topics

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/conflearn/backend/internal/models"
)

func sampleViews() []models.TopicView {
	return []models.TopicView{
		{ID: uuid.New(), Title: "Opening Keynote", VideoLink: "https://cdn.example.com/v/1.mp4", Thumbnail: "t1.png"},
		{ID: uuid.New(), Title: "Panel Discussion", VideoLink: "https://cdn.example.com/v/2.mp4", Thumbnail: "t2.png"},
	}
}

func TestGateViewsBlanksVideoLinksWhenLocked(t *testing.T) {
	views := GateViews(sampleViews(), false)
	for _, v := range views {
		assert.Empty(t, v.VideoLink)
		assert.NotEmpty(t, v.Title)
		assert.NotEmpty(t, v.Thumbnail)
	}
}

func TestGateViewsPassesThroughWhenUnlocked(t *testing.T) {
	views := GateViews(sampleViews(), true)
	assert.Equal(t, "https://cdn.example.com/v/1.mp4", views[0].VideoLink)
	assert.Equal(t, "https://cdn.example.com/v/2.mp4", views[1].VideoLink)
}
