package request

import (
	"encoding/json"
	"fmt"

	"github.com/teachly/teachly-mobile-common/utils"
)

// UploadVoiceNote pushes a recorded voice note into object storage through
// the backend and returns the retrievable URL, or "" on failure.
func (h *HttpClientStruct) UploadVoiceNote(conversationID string, filePath string) string {
	endpoint := fmt.Sprintf("%s/v1/conversations/%s/voice-notes", h.params.endpoint, conversationID)
	response := h.makeRequest(requestParams{
		endpoint:           endpoint,
		method:             "POST",
		useAuthorizeHeader: true,
		file: &requestFile{
			part: "file",
			name: "voice_note.m4a",
			path: filePath,
		},
	})

	jsonMap := utils.H{}
	if err := json.Unmarshal([]byte(response), &jsonMap); err != nil {
		return ""
	}
	body, ok := jsonMap["body"].(map[string]interface{})
	if !ok {
		return ""
	}
	url, _ := body["url"].(string)
	return url
}
