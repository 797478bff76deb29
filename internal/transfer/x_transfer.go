package transfer

type TweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type TweetRequest struct {
	Text  string      `json:"text"`
	Media *TweetMedia `json:"media,omitempty"`
}

type XIDData struct {
	ID string `json:"id"`
}

type TweetResponse struct {
	Data   XIDData  `json:"data"`
	Errors []XError `json:"errors,omitempty"`
}

type MediaUploadResponse struct {
	Data   XIDData  `json:"data"`
	Errors []XError `json:"errors,omitempty"`
}

type XError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}
