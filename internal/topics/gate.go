package topics

import "github.com/conflearn/backend/internal/models"

// GateViews blanks the video link on every topic unless the caller holds
// unlocked access. All other fields pass through untouched.
func GateViews(views []models.TopicView, unlocked bool) []models.TopicView {
	if unlocked {
		return views
	}
	for i := range views {
		views[i].VideoLink = ""
	}
	return views
}
