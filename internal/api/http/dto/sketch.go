package dto

type ListSketchesResponse struct {
	Sketches []string `json:"sketches"`
}

type GenerateLinkResponse struct {
	DeviceID    string `json:"device_id"`
	FileName    string `json:"file_name"`
	DownloadURL string `json:"download_url,omitempty"`
}

type UploadSketchResponse struct {
	Sketch string   `json:"sketch"`
	Files  []string `json:"files"`
}

type DeleteResponse struct {
	Message string `json:"message"`
}
