package ytgrab

// Name is the application name, used for config paths and user-facing output.
const Name = "ytgrab"

// Version is the released application version. The update checker compares
// this against the release feed's tag.
const Version = "1.0.0"
