package dto

type DeviceResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Owner      string `json:"owner"`
	Status     string `json:"status"`
	Ownership  string `json:"ownership"`
	EnrolledAt string `json:"enrolled_at"`
	UpdatedAt  string `json:"updated_at"`
}

type ListDevicesResponse struct {
	Devices []DeviceResponse `json:"devices"`
	Count   int              `json:"count"`
}

type RenameDeviceRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

type RefreshDeviceTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type DeviceTokenResponse struct {
	DeviceID         string `json:"device_id"`
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	AccessExpiresAt  string `json:"access_expires_at"`
	RefreshExpiresAt string `json:"refresh_expires_at"`
}
