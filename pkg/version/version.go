package version

// Version is filled at build time with -ldflags "-X".
var Version = "v0.1.0+unknown"
