package provisioning

type Request struct {
	Owner         string
	DeviceName    string
	SketchVariant string
}

// AssembledArchive is a device-specific sketch zip ready for download.
type AssembledArchive struct {
	Path     string
	FileName string
	DeviceID string
	Size     int64
}
