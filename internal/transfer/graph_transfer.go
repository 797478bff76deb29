package transfer

// GraphIDResponse covers the create-container, publish and photo endpoints.
type GraphIDResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

type GraphContainerStatus struct {
	ID         string `json:"id"`
	StatusCode string `json:"status_code"`
}

type GraphPermalink struct {
	ID        string `json:"id"`
	Permalink string `json:"permalink"`
}

type GraphErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		IsTransient  bool   `json:"is_transient"`
		ErrorUserMsg string `json:"error_user_msg"`
		FbtraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}
