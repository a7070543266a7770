package tray

// The Windows tray wants an ICO resource.
func iconBytes() []byte { return wrapICO(IconPNG(), iconSize) }
