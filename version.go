package draftbench

// Version is the library version, injected into release builds.
const Version = "0.1.0"
