// Package remote implements the chat and model services over the
// application backend's HTTP API.
package remote

const defaultBaseURL = "http://localhost:8000"

const (
	chatPath   = "/api/chat"
	modelsPath = "/api/models"
	pullPath   = "/api/models/pull/"
)

type chatRequest struct {
	UserID    int      `json:"user_id"`
	Message   string   `json:"message"`
	Model     string   `json:"model,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
	Images    []string `json:"images,omitempty"`
}

type modelList struct {
	Models []apiModel `json:"models"`
}

type apiModel struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Downloaded  bool   `json:"downloaded"`
	Family      string `json:"family"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type errorResponse struct {
	Detail any `json:"detail"`
}
